package event

const NotificationChatReplyDestination string = "notification_chat_reply"

// NotificationChatReplyMessage is published when a recipient replies in the
// chat thread of a notification. Turning it into a comment is up to the
// owner of the entity.
type NotificationChatReplyMessage struct {
	EntityType  string `json:"entity_type"`
	EntityID    string `json:"entity_id"`
	RecipientID int64  `json:"recipient_id"`
	Text        string `json:"text"`
	Ts          string `json:"ts"`
}
