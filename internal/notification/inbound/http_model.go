package inbound

import (
	"time"

	"github.com/shandysiswandi/notifyd/internal/pkg/valueobject"
)

type NotificationResponse struct {
	ID               int64      `json:"id,string"`
	Type             string     `json:"type"`
	Label            string     `json:"label"`
	Icon             string     `json:"icon"`
	Title            string     `json:"title"`
	Message          string     `json:"message,omitempty"`
	EntityType       string     `json:"entity_type,omitempty"`
	EntityID         string     `json:"entity_id,omitempty"`
	BundleKey        string     `json:"bundle_key,omitempty"`
	BundleCount      int32      `json:"bundle_count"`
	Priority         string     `json:"priority"`
	IsRead           bool       `json:"is_read"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
	EmailDelivered   bool       `json:"email_delivered"`
	EmailDeliveredAt *time.Time `json:"email_delivered_at,omitempty"`
	ChatDelivered    bool       `json:"chat_delivered"`
	ChatDeliveredAt  *time.Time `json:"chat_delivered_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`

	page  int32
	limit int32
	total int64
}

func (r NotificationsResponse) Meta() map[string]any {
	return map[string]any{"page": r.page, "limit": r.limit, "total": r.total}
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

type PreferenceResponse struct {
	Type          string     `json:"type"`
	Label         string     `json:"label"`
	InApp         bool       `json:"in_app"`
	Email         bool       `json:"email"`
	Chat          bool       `json:"chat"`
	IsLocked      bool       `json:"is_locked"`
	LockedBy      *int64     `json:"locked_by,omitempty"`       
	LockedAt      *time.Time `json:"locked_at,omitempty"`
	ChatConnected bool       `json:"chat_connected"`
}

type PreferencesResponse struct {
	Preferences []PreferenceResponse `json:"preferences"`
}

type PreferenceChangeRequest struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Enabled bool   `json:"enabled"`
}

type SetPreferencesRequest struct {
	Changes []PreferenceChangeRequest `json:"changes"`
}

type SetPreferencesResponse struct {
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

type InitializePreferencesResponse struct {
	Created int64 `json:"created"`
}

type AdminSetPreferenceRequest struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Enabled bool   `json:"enabled"`
}

// DispatchRequest targets either one recipient or a list of them.
type DispatchRequest struct {
	RecipientID  int64               `json:"recipient_id,omitempty"`
	RecipientIDs []int64             `json:"recipient_ids,omitempty"`
	Type         string              `json:"type"`
	Title        string              `json:"title"`
	Message      string              `json:"message"`
	EntityType   string              `json:"entity_type"`
	EntityID     string              `json:"entity_id"`
	BundleKey    string              `json:"bundle_key"`
	Priority     string              `json:"priority"`
	Metadata     valueobject.JSONMap `json:"metadata" swaggertype:"object"`
}

type InAppResultResponse struct {
	Sent     bool  `json:"sent"`
	RecordID int64 `json:"record_id,omitempty,string"`
}

type EmailResultResponse struct {
	Sent   bool   `json:"sent"`
	Queued bool   `json:"queued"`
	Error  string `json:"error,omitempty"`
}

type ChatResultResponse struct {
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

type DispatchResultResponse struct {
	InApp InAppResultResponse `json:"in_app"`
	Email EmailResultResponse `json:"email"`
	Chat  ChatResultResponse  `json:"chat"`
}

type DispatchManyResponse struct {
	Results map[string]DispatchResultResponse `json:"results"`
	Failed  map[string]string                 `json:"failed,omitempty"`
}

type UpsertIntegrationRequest struct {
	IsActive bool                `json:"is_active"`
	Config   valueobject.JSONMap `json:"config" swaggertype:"object"`
}

type ChatConnectionResponse struct {
	Team string `json:"team"`
	Bot  string `json:"bot"`
}

type DigestJobResponse struct {
	RecipientsProcessed int   `json:"recipients_processed"`
	Sent                int   `json:"sent"`
	Skipped             int   `json:"skipped"`
	Errors              int   `json:"errors"`
	Reaped              int64 `json:"reaped"`
}

type ChatBatchJobResponse struct {
	Sent    int   `json:"sent"`
	Skipped int   `json:"skipped"`
	Errors  int   `json:"errors"`
	Cleaned int64 `json:"cleaned"`
}
