package entity

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/notifyd/internal/pkg/valueobject"
)

// Metadata keys callers use to steer chat routing.
const (
	MetaProjectID        = "projectId"
	MetaProjectName      = "projectName"
	MetaIsAdHocOrSupport = "isAdHocOrSupport"
)

var (
	ErrChannelDisabled = errors.New("channel is not configured")
	ErrNoChatIdentity  = errors.New("recipient has no chat identity")
	ErrNoEmailAddress  = errors.New("recipient has no email address")
)

// EntityRef points at the business record an event is about.
type EntityRef struct {
	Type EntityType
	ID   string
}

func (r EntityRef) IsZero() bool {
	return r.Type == "" || r.ID == ""
}

// Link builds the deep link under appURL, or "" when the entity has no page.
func (r EntityRef) Link(appURL string) string {
	if r.IsZero() || appURL == "" {
		return ""
	}
	route := r.Type.Route()
	if route == "" {
		return ""
	}
	return strings.TrimRight(appURL, "/") + route + "/" + r.ID
}

// BundleKey identifies the in-app record a new event may merge into.
type BundleKey struct {
	RecipientID int64
	Key         string
}

func (k BundleKey) String() string {
	return strconv.FormatInt(k.RecipientID, 10) + ":" + k.Key
}

// BatchKey groups chat messages of one recipient within one project.
type BatchKey struct {
	RecipientID int64
	ProjectID   string
}

func (k BatchKey) String() string {
	return strconv.FormatInt(k.RecipientID, 10) + ":" + k.ProjectID
}

// Event is what callers hand to the dispatcher. It is never stored as is.
type Event struct {
	RecipientID int64
	Type        EventType
	Title       string
	Message     string
	Entity      EntityRef
	BundleKey   string
	Priority    Priority
	Metadata    valueobject.JSONMap
}

// Record is one in-app notification, possibly standing for a bundle.
type Record struct {
	ID               int64
	UserID           int64
	Type             EventType
	Title            string
	Message          string
	Entity           EntityRef
	BundleKey        string
	BundleCount      int32
	Priority         Priority
	IsRead           bool
	ReadAt           *time.Time
	EmailDelivered   bool
	EmailDeliveredAt *time.Time
	ChatDelivered    bool
	ChatDeliveredAt  *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type DigestItem struct {
	ID          int64
	UserID      int64
	Type        EventType
	Title       string
	Message     string
	Entity      EntityRef
	CreatedAt   time.Time
	Processed   bool
	ProcessedAt *time.Time
}

type ChatBatchItem struct {
	ID           int64
	Key          BatchKey
	ProjectName  string
	EntityID     string
	Type         EventType
	Title        string
	Message      string
	BatchReadyAt time.Time
	Processed    bool
	ProcessedAt  *time.Time
	CreatedAt    time.Time
}

// ThreadLink remembers which chat message was sent for an entity so replies
// in its thread can be traced back.
type ThreadLink struct {
	Entity     EntityRef
	ChatUserID string
	ChannelID  string
	MessageTs  string
}

// Recipient is the directory entry of a user that can be notified.
type Recipient struct {
	UserID     int64
	Email      string
	FullName   string
	ChatUserID string
}

func (r Recipient) DisplayName() string {
	if r.FullName != "" {
		return r.FullName
	}
	return r.Email
}

type Integration struct {
	Provider  IntegrationProvider
	IsActive  bool
	Config    valueobject.JSONMap
	UpdatedAt time.Time
}

// EmailSettings is the system level email configuration.
type EmailSettings struct {
	Enabled bool
	From    string
	AppURL  string
}

// ChatSettings is the system level chat configuration.
type ChatSettings struct {
	BotToken string
	AppURL   string
}

type ChatLocator struct {
	ChannelID string
	Ts        string
}

type ChatConnection struct {
	Team string
	Bot  string
}

type InAppResult struct {
	Sent     bool
	RecordID int64
}

type EmailResult struct {
	Sent   bool
	Queued bool
	Error  string
}

type ChatResult struct {
	Sent  bool
	Error string
}

// DispatchResult reports per channel what happened to one event.
type DispatchResult struct {
	InApp InAppResult
	Email EmailResult
	Chat  ChatResult
}
