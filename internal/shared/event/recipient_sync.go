package event

const RecipientSyncDestination string = "recipient_sync"
const RecipientSyncConsumer string = "recipient_sync_notification"

type RecipientSyncMessage struct {
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	ChatUserID string `json:"chat_user_id,omitempty"`
}
