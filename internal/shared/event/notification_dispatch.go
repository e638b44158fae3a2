package event

const NotificationDispatchDestination string = "notification_dispatch"
const NotificationDispatchConsumer string = "notification_dispatch_notification"

// NotificationDispatchMessage asks the notification module to deliver one
// event to every listed recipient.
type NotificationDispatchMessage struct {
	RecipientIDs []int64        `json:"recipient_ids"`
	Type         string         `json:"type"`
	Title        string         `json:"title"`
	Message      string         `json:"message,omitempty"`
	EntityType   string         `json:"entity_type,omitempty"`
	EntityID     string         `json:"entity_id,omitempty"`
	BundleKey    string         `json:"bundle_key,omitempty"`
	Priority     string         `json:"priority"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
