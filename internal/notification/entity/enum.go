package entity

import (
	"strings"
)

type EventType string

const (
	EventTypeTaskAssigned         EventType = "task_assigned"
	EventTypeTaskStatusChanged    EventType = "task_status_changed"
	EventTypeTaskMentioned        EventType = "task_mentioned"
	EventTypeTaskDueSoon          EventType = "task_due_soon"
	EventTypeTaskOverdue          EventType = "task_overdue"
	EventTypeProjectStatusChanged EventType = "project_status_changed"
	EventTypeReviewRequested      EventType = "review_requested"
	EventTypeCommentAdded         EventType = "comment_added"
	EventTypeRetainerAlert        EventType = "retainer_alert"
	EventTypeSystemAlert          EventType = "system_alert"
)

type eventTypeInfo struct {
	label    string
	icon     string
	defaults Flags
}

var eventTypeCatalog = map[EventType]eventTypeInfo{
	EventTypeTaskAssigned:         {label: "Task Assigned", icon: "📋", defaults: Flags{InApp: true, Email: false, Chat: true}},
	EventTypeTaskStatusChanged:    {label: "Task Status Changed", icon: "🔄", defaults: Flags{InApp: true, Email: false, Chat: false}},
	EventTypeTaskMentioned:        {label: "You Were Mentioned", icon: "📢", defaults: Flags{InApp: true, Email: false, Chat: true}},
	EventTypeTaskDueSoon:          {label: "Task Due Soon", icon: "⏰", defaults: Flags{InApp: true, Email: true, Chat: true}},
	EventTypeTaskOverdue:          {label: "Task Overdue", icon: "🚨", defaults: Flags{InApp: true, Email: true, Chat: true}},
	EventTypeProjectStatusChanged: {label: "Project Status Changed", icon: "📊", defaults: Flags{InApp: true, Email: false, Chat: false}},
	EventTypeReviewRequested:      {label: "Review Requested", icon: "👀", defaults: Flags{InApp: true, Email: false, Chat: true}},
	EventTypeCommentAdded:         {label: "New Comment", icon: "💬", defaults: Flags{InApp: true, Email: false, Chat: true}},
	EventTypeRetainerAlert:        {label: "Retainer Alert", icon: "📉", defaults: Flags{InApp: true, Email: true, Chat: true}},
	EventTypeSystemAlert:          {label: "System Alert", icon: "⚠️", defaults: Flags{InApp: true, Email: true, Chat: true}},
}

// EventTypes lists every catalogued type in display order.
func EventTypes() []EventType {
	return []EventType{
		EventTypeTaskAssigned,
		EventTypeTaskStatusChanged,
		EventTypeTaskMentioned,
		EventTypeTaskDueSoon,
		EventTypeTaskOverdue,
		EventTypeProjectStatusChanged,
		EventTypeReviewRequested,
		EventTypeCommentAdded,
		EventTypeRetainerAlert,
		EventTypeSystemAlert,
	}
}

func EventTypeValues() []string {
	types := EventTypes()
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, t.String())
	}
	return out
}

func (t EventType) String() string {
	return string(t)
}

func (t EventType) Valid() bool {
	_, ok := eventTypeCatalog[t]
	return ok
}

func (t EventType) Label() string {
	if info, ok := eventTypeCatalog[t]; ok {
		return info.label
	}
	return string(t)
}

func (t EventType) Icon() string {
	if info, ok := eventTypeCatalog[t]; ok {
		return info.icon
	}
	return "🔔"
}

// Defaults is the channel triple used when a recipient has no stored
// preference for t. Unknown types only get the in-app channel.
func (t EventType) Defaults() Flags {
	if info, ok := eventTypeCatalog[t]; ok {
		return info.defaults
	}
	return Flags{InApp: true}
}

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

func PriorityValues() []string {
	return []string{
		PriorityCritical.String(),
		PriorityHigh.String(),
		PriorityNormal.String(),
		PriorityLow.String(),
	}
}

func (p Priority) String() string {
	return string(p)
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	default:
		return false
	}
}

type Channel int16

const (
	ChannelUnknown Channel = 0
	ChannelInApp   Channel = 1
	ChannelEmail   Channel = 2
	ChannelChat    Channel = 3
)

func ChannelFromString(raw string) Channel {
	switch strings.TrimSpace(raw) {
	case "in_app":
		return ChannelInApp
	case "email":
		return ChannelEmail
	case "chat":
		return ChannelChat
	default:
		return ChannelUnknown
	}
}

func (c Channel) String() string {
	switch c {
	case ChannelInApp:
		return "in_app"
	case ChannelEmail:
		return "email"
	case ChannelChat:
		return "chat"
	default:
		return "unknown"
	}
}

type EntityType string

const (
	EntityTypeTask    EntityType = "task"
	EntityTypeProject EntityType = "project"
	EntityTypeClient  EntityType = "client"
	EntityTypeSite    EntityType = "site"
	EntityTypeSOP     EntityType = "sop"
)

var entityRoutes = map[EntityType]string{
	EntityTypeTask:    "/tasks",
	EntityTypeProject: "/projects",
	EntityTypeClient:  "/clients",
	EntityTypeSite:    "/sites",
	EntityTypeSOP:     "/sops",
}

func EntityTypeValues() []string {
	return []string{
		string(EntityTypeTask),
		string(EntityTypeProject),
		string(EntityTypeClient),
		string(EntityTypeSite),
		string(EntityTypeSOP),
	}
}

func (e EntityType) String() string {
	return string(e)
}

// Route is the web path prefix of the entity, empty when it has no page.
func (e EntityType) Route() string {
	return entityRoutes[e]
}

type IntegrationProvider string

const (
	IntegrationProviderEmail IntegrationProvider = "email"
	IntegrationProviderSlack IntegrationProvider = "slack"
)

func (p IntegrationProvider) String() string {
	return string(p)
}
