package usecase

import (
	"testing"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/valueobject"
	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	all := entity.Flags{InApp: true, Email: true, Chat: true}

	tests := []struct {
		name     string
		priority entity.Priority
		flags    entity.Flags
		want     routing
	}{
		{name: "critical sends everything now", priority: entity.PriorityCritical, flags: all, want: routing{inApp: true, email: emailImmediate, chat: true}},
		{name: "high sends everything now", priority: entity.PriorityHigh, flags: all, want: routing{inApp: true, email: emailImmediate, chat: true}},
		{name: "normal digests email", priority: entity.PriorityNormal, flags: all, want: routing{inApp: true, email: emailDigest, chat: true}},
		{name: "low digests email and drops chat", priority: entity.PriorityLow, flags: all, want: routing{inApp: true, email: emailDigest}},
		{name: "disabled flags stay off", priority: entity.PriorityCritical, flags: entity.Flags{InApp: true}, want: routing{inApp: true}},
		{name: "nothing enabled", priority: entity.PriorityNormal, flags: entity.Flags{}, want: routing{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, route(tt.priority, tt.flags))
		})
	}
}

func TestShouldBatchChat(t *testing.T) {
	task := entity.EntityRef{Type: entity.EntityTypeTask, ID: "42"}

	tests := []struct {
		name   string
		entity entity.EntityRef
		meta   valueobject.JSONMap
		want   bool
	}{
		{name: "project work", entity: task, meta: valueobject.JSONMap{"projectId": "p1", "isAdHocOrSupport": false}, want: true},
		{name: "ad hoc work", entity: task, meta: valueobject.JSONMap{"projectId": "p1", "isAdHocOrSupport": true}},
		{name: "flag missing counts as ad hoc", entity: task, meta: valueobject.JSONMap{"projectId": "p1"}},
		{name: "no project", entity: task, meta: valueobject.JSONMap{"isAdHocOrSupport": false}},
		{name: "no entity", meta: valueobject.JSONMap{"projectId": "p1", "isAdHocOrSupport": false}},
		{name: "no metadata", entity: task},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := entity.Event{Entity: tt.entity, Metadata: tt.meta}
			assert.Equal(t, tt.want, shouldBatchChat(evt))
		})
	}
}
