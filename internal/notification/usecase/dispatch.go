package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/shandysiswandi/notifyd/internal/pkg/valueobject"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const failedToQueue = "Failed to queue"

const (
	outcomeSent     = "sent"
	outcomeQueued   = "queued"
	outcomeFailed   = "failed"
	outcomeSkipped  = "skipped"
	outcomeDisabled = "disabled"
)

// EventInput carries the caller supplied fields of an event.
type EventInput struct {
	Type       string         `json:"type" validate:"required,event_type"`
	Title      string         `json:"title" validate:"required,max=255"`
	Message    string         `json:"message" validate:"max=5000"`
	EntityType string         `json:"entity_type" validate:"omitempty,entity_type"`
	EntityID   string         `json:"entity_id" validate:"required_with=EntityType,max=64"`
	BundleKey  string         `json:"bundle_key" validate:"max=255"`
	Priority   string         `json:"priority" validate:"omitempty,priority"`
	Metadata   map[string]any `json:"metadata"`
}

func (in EventInput) toEvent(recipientID int64) entity.Event {
	priority := entity.Priority(in.Priority)
	if priority == "" {
		priority = entity.PriorityNormal
	}

	return entity.Event{
		RecipientID: recipientID,
		Type:        entity.EventType(in.Type),
		Title:       in.Title,
		Message:     in.Message,
		Entity:      entity.EntityRef{Type: entity.EntityType(in.EntityType), ID: in.EntityID},
		BundleKey:   in.BundleKey,
		Priority:    priority,
		Metadata:    valueobject.JSONMap(in.Metadata).Clone(),
	}
}

type DispatchInput struct {
	RecipientID int64 `validate:"required,gt=0"`
	EventInput
}

// Dispatch delivers one event to one recipient. Channel failures end up in
// the result; only a malformed event or an unreadable preference store is
// returned as an error.
func (s *Usecase) Dispatch(ctx context.Context, in DispatchInput) (_ *entity.DispatchResult, err error) {
	ctx, span := s.startSpan(ctx, "Dispatch")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	res, err := s.dispatch(ctx, in.toEvent(in.RecipientID))
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	return &res, nil
}

type DispatchManyInput struct {
	RecipientIDs []int64 `validate:"required,min=1,max=1000,dive,gt=0"`
	EventInput
}

type DispatchManyOutput struct {
	Results map[int64]entity.DispatchResult
	Failed  map[int64]string
}

// DispatchMany runs Dispatch for each distinct recipient in turn. A failure
// for one recipient never affects another.
func (s *Usecase) DispatchMany(ctx context.Context, in DispatchManyInput) (_ *DispatchManyOutput, err error) {
	ctx, span := s.startSpan(ctx, "DispatchMany")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	out := &DispatchManyOutput{
		Results: make(map[int64]entity.DispatchResult, len(in.RecipientIDs)),
		Failed:  make(map[int64]string),
	}
	for _, id := range lo.Uniq(in.RecipientIDs) {
		res, err := s.dispatch(ctx, in.toEvent(id))
		if err != nil {
			out.Failed[id] = err.Error()
			continue
		}
		out.Results[id] = res
	}

	return out, nil
}

func (s *Usecase) dispatch(ctx context.Context, evt entity.Event) (entity.DispatchResult, error) {
	var res entity.DispatchResult

	pref, err := s.ResolvePreference(ctx, evt.RecipientID, evt.Type)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve preference", "user_id", evt.RecipientID, "type", evt.Type.String(), "error", err)
		return res, err
	}

	plan := route(evt.Priority, pref.Flags)

	var rec *entity.Record
	if plan.inApp {
		rec, err = s.createOrMerge(ctx, evt)
		if err != nil {
			s.countChannel(ctx, entity.ChannelInApp, outcomeFailed)
		} else {
			res.InApp = entity.InAppResult{Sent: true, RecordID: rec.ID}
			s.countChannel(ctx, entity.ChannelInApp, outcomeSent)
			s.publishRecord(*rec)
		}
	} else {
		s.countChannel(ctx, entity.ChannelInApp, outcomeDisabled)
	}

	var rcpt *entity.Recipient
	if plan.email == emailImmediate || (plan.chat && !shouldBatchChat(evt)) {
		rcpt = s.lookupRecipient(ctx, evt.RecipientID)
	}

	switch plan.email {
	case emailImmediate:
		res.Email.Sent = s.sendEmail(ctx, rcpt, evt, rec)
	case emailDigest:
		res.Email = s.queueDigest(ctx, evt)
	default:
		s.countChannel(ctx, entity.ChannelEmail, outcomeDisabled)
	}

	switch {
	case !plan.chat:
		s.countChannel(ctx, entity.ChannelChat, outcomeDisabled)
	case shouldBatchChat(evt):
		res.Chat = s.enqueueChatBatch(ctx, evt)
	default:
		res.Chat.Sent = s.sendChat(ctx, rcpt, evt, rec)
	}

	return res, nil
}

// lookupRecipient returns nil when the recipient is unknown or the directory
// cannot be read; both mean the external channels are skipped.
func (s *Usecase) lookupRecipient(ctx context.Context, userID int64) *entity.Recipient {
	rcpt, err := s.repoDB.GetRecipient(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.InfoContext(ctx, "recipient not in directory, skipping external channels", "user_id", userID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get recipient", "user_id", userID, "error", err)
		return nil
	}
	return rcpt
}

func (s *Usecase) sendEmail(ctx context.Context, rcpt *entity.Recipient, evt entity.Event, rec *entity.Record) bool {
	if rcpt == nil || rcpt.Email == "" {
		slog.WarnContext(ctx, "email skipped, no address", "user_id", evt.RecipientID)
		s.countChannel(ctx, entity.ChannelEmail, outcomeSkipped)
		return false
	}

	if err := s.email.SendImmediate(ctx, *rcpt, evt); err != nil {
		if errors.Is(err, entity.ErrChannelDisabled) {
			slog.WarnContext(ctx, "email skipped, channel not configured", "user_id", evt.RecipientID)
			s.countChannel(ctx, entity.ChannelEmail, outcomeSkipped)
			return false
		}
		slog.ErrorContext(ctx, "failed to send immediate email", "user_id", evt.RecipientID, "type", evt.Type.String(), "error", err)
		s.countChannel(ctx, entity.ChannelEmail, outcomeFailed)
		return false
	}
	s.countChannel(ctx, entity.ChannelEmail, outcomeSent)

	if rec != nil {
		if err := s.repoDB.MarkEmailDelivered(ctx, rec.ID, s.clock.Now()); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark email delivered", "record_id", rec.ID, "error", err)
		}
	}

	return true
}

func (s *Usecase) queueDigest(ctx context.Context, evt entity.Event) entity.EmailResult {
	item := entity.DigestItem{
		ID:        s.uid.Generate(),
		UserID:    evt.RecipientID,
		Type:      evt.Type,
		Title:     evt.Title,
		Message:   evt.Message,
		Entity:    evt.Entity,
		CreatedAt: s.clock.Now(),
	}

	if err := s.repoDB.CreateDigestItem(ctx, item); err != nil {
		slog.ErrorContext(ctx, "failed to repo create digest item", "user_id", evt.RecipientID, "type", evt.Type.String(), "error", err)
		s.countChannel(ctx, entity.ChannelEmail, outcomeFailed)
		return entity.EmailResult{Error: failedToQueue}
	}
	s.countChannel(ctx, entity.ChannelEmail, outcomeQueued)

	return entity.EmailResult{Queued: true}
}

func (s *Usecase) sendChat(ctx context.Context, rcpt *entity.Recipient, evt entity.Event, rec *entity.Record) bool {
	if rcpt == nil || rcpt.ChatUserID == "" {
		slog.InfoContext(ctx, "chat skipped, recipient has no chat identity", "user_id", evt.RecipientID)
		s.countChannel(ctx, entity.ChannelChat, outcomeSkipped)
		return false
	}

	loc, err := s.chat.SendDirect(ctx, rcpt.ChatUserID, evt)
	if err != nil {
		if errors.Is(err, entity.ErrChannelDisabled) {
			slog.WarnContext(ctx, "chat skipped, channel not configured", "user_id", evt.RecipientID)
			s.countChannel(ctx, entity.ChannelChat, outcomeSkipped)
			return false
		}
		slog.ErrorContext(ctx, "failed to send chat message", "user_id", evt.RecipientID, "type", evt.Type.String(), "error", err)
		s.countChannel(ctx, entity.ChannelChat, outcomeFailed)
		return false
	}
	s.countChannel(ctx, entity.ChannelChat, outcomeSent)

	now := s.clock.Now()
	if rec != nil {
		if err := s.repoDB.MarkChatDelivered(ctx, rec.ID, now); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark chat delivered", "record_id", rec.ID, "error", err)
		}
	}

	if loc.Ts != "" && !evt.Entity.IsZero() {
		link := entity.ThreadLink{
			Entity:     evt.Entity,
			ChatUserID: rcpt.ChatUserID,
			ChannelID:  loc.ChannelID,
			MessageTs:  loc.Ts,
		}
		if err := s.repoDB.UpsertThreadLink(ctx, link, now); err != nil {
			slog.ErrorContext(ctx, "failed to repo upsert thread link", "user_id", evt.RecipientID, "error", err)
		}
	}

	return true
}

func (s *Usecase) countChannel(ctx context.Context, ch entity.Channel, outcome string) {
	s.channelCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", ch.String()),
		attribute.String("outcome", outcome),
	))
}
