package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
)

const streamBuffer = 10

// StreamEvent is an in-app record pushed to open streams when it is
// created or bumped.
type StreamEvent struct {
	ID          int64     `json:"id,string"`
	Type        string    `json:"type"`
	Label       string    `json:"label"`
	Icon        string    `json:"icon"`
	Title       string    `json:"title"`
	Message     string    `json:"message,omitempty"`
	EntityType  string    `json:"entity_type,omitempty"`
	EntityID    string    `json:"entity_id,omitempty"`
	BundleCount int32     `json:"bundle_count"`
	Priority    string    `json:"priority"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type subscriber struct {
	ch chan StreamEvent
}

// StreamNotifications registers a stream for the user. The channel is
// closed once ctx is done.
func (s *Usecase) StreamNotifications(ctx context.Context, userID int64) <-chan StreamEvent {
	sub := &subscriber{ch: make(chan StreamEvent, streamBuffer)}

	s.streamMu.Lock()
	if s.streams[userID] == nil {
		s.streams[userID] = make(map[*subscriber]struct{})
	}
	s.streams[userID][sub] = struct{}{}
	s.streamMu.Unlock()

	go func() {
		<-ctx.Done()
		s.streamMu.Lock()
		if subs := s.streams[userID]; subs != nil {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(s.streams, userID)
			}
		}
		close(sub.ch)
		s.streamMu.Unlock()
	}()

	return sub.ch
}

// publishRecord never blocks; a subscriber with a full buffer misses the
// event.
func (s *Usecase) publishRecord(rec entity.Record) {
	evt := StreamEvent{
		ID:          rec.ID,
		Type:        rec.Type.String(),
		Label:       rec.Type.Label(),
		Icon:        rec.Type.Icon(),
		Title:       rec.Title,
		Message:     rec.Message,
		EntityType:  rec.Entity.Type.String(),
		EntityID:    rec.Entity.ID,
		BundleCount: rec.BundleCount,
		Priority:    rec.Priority.String(),
		UpdatedAt:   rec.UpdatedAt,
	}

	s.streamMu.RLock()
	defer s.streamMu.RUnlock()

	for sub := range s.streams[rec.UserID] {
		select {
		case sub.ch <- evt:
		default:
		}
	}
}
