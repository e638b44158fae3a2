package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/notifyd/internal/pkg/chat"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/shandysiswandi/notifyd/internal/pkg/idempotency"
	"github.com/shandysiswandi/notifyd/internal/shared/event"
)

type ChatEventInput struct {
	Body      []byte
	Timestamp string
	Signature string
}

type ChatEventOutput struct {
	Challenge string
}

// isThreadReply reports a human reply inside a direct message thread.
func isThreadReply(m *chat.MessageEvent) bool {
	return m != nil &&
		m.ChannelType == "im" &&
		m.Subtype == "" &&
		m.BotID == "" &&
		m.UserID != "" &&
		m.ThreadTs != "" &&
		m.ThreadTs != m.Ts
}

// HandleChatEvent verifies and processes one chat platform event callback.
// Replies in the thread of a notification are published for the owner of
// the entity, once per message.
func (s *Usecase) HandleChatEvent(ctx context.Context, in ChatEventInput) (_ *ChatEventOutput, err error) {
	ctx, span := s.startSpan(ctx, "HandleChatEvent")
	defer span.End()

	if err := chat.VerifyRequest(in.Timestamp, in.Signature, in.Body, s.signingSecret.Load()); err != nil {
		slog.WarnContext(ctx, "rejected chat event", "error", err)
		return nil, goerror.NewBusiness("invalid request signature", goerror.CodeUnauthorized)
	}

	ev, err := chat.ParseEvent(in.Body)
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}

	if ev.Challenge != "" {
		return &ChatEventOutput{Challenge: ev.Challenge}, nil
	}

	msg := ev.Message
	if !isThreadReply(msg) {
		return &ChatEventOutput{}, nil
	}

	key := "notification:chat-reply:" + msg.ChannelID + ":" + msg.Ts
	err = s.idempotency.Exec(ctx, key, func(ctx context.Context) error {
		return s.relayChatReply(ctx, msg)
	}, idempotency.WithStateTTL(24*time.Hour), idempotency.WithForgetOnFailure())
	switch {
	case err == nil:
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "duplicate chat reply ignored", "channel", msg.ChannelID, "ts", msg.Ts)
	default:
		slog.ErrorContext(ctx, "failed to relay chat reply", "channel", msg.ChannelID, "ts", msg.Ts, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ChatEventOutput{}, nil
}

func (s *Usecase) relayChatReply(ctx context.Context, m *chat.MessageEvent) error {
	link, err := s.repoDB.FindThreadLink(ctx, m.ChannelID, m.ThreadTs)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.InfoContext(ctx, "chat reply outside a notification thread", "channel", m.ChannelID, "thread_ts", m.ThreadTs)
		return nil
	}
	if err != nil {
		return err
	}

	rcpt, err := s.repoDB.GetRecipientByChatUserID(ctx, m.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.InfoContext(ctx, "chat reply from unknown user", "chat_user_id", m.UserID)
		return nil
	}
	if err != nil {
		return err
	}

	return s.publisher.PublishChatReply(ctx, event.NotificationChatReplyMessage{
		EntityType:  link.Entity.Type.String(),
		EntityID:    link.Entity.ID,
		RecipientID: rcpt.UserID,
		Text:        m.Text,
		Ts:          m.Ts,
	})
}
