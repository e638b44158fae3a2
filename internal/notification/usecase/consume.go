package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
)

// ConsumeDispatch handles a dispatch request from the message bus. Invalid
// requests are dropped since redelivery cannot fix them.
func (s *Usecase) ConsumeDispatch(ctx context.Context, in DispatchManyInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeDispatch")
	defer span.End()

	out, err := s.DispatchMany(ctx, in)
	if goerror.HasCode(err, goerror.CodeInvalidInput) {
		slog.WarnContext(ctx, "dropping invalid dispatch message", "type", in.Type, "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	if len(out.Failed) > 0 {
		slog.WarnContext(ctx, "dispatch failed for some recipients", "type", in.Type, "failed", len(out.Failed), "delivered", len(out.Results))
	}

	return nil
}

type RecipientSyncInput struct {
	UserID     int64  `validate:"required,gt=0"`
	Email      string `validate:"omitempty,email"`
	FullName   string `validate:"max=255"`
	ChatUserID string `validate:"max=64"`
}

// ConsumeRecipientSync updates the recipient directory. When no chat
// identity is given, one is looked up on the chat platform by email.
func (s *Usecase) ConsumeRecipientSync(ctx context.Context, in RecipientSyncInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeRecipientSync")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "dropping invalid recipient sync message", "user_id", in.UserID, "error", err)
		return nil
	}

	now := s.clock.Now()
	rcpt := entity.Recipient{
		UserID:     in.UserID,
		Email:      in.Email,
		FullName:   in.FullName,
		ChatUserID: in.ChatUserID,
	}
	if err := s.repoDB.UpsertRecipient(ctx, rcpt, now); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert recipient", "user_id", in.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if in.ChatUserID != "" || in.Email == "" || !s.chat.Enabled() {
		return nil
	}

	stored, err := s.repoDB.GetRecipient(ctx, in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get recipient", "user_id", in.UserID, "error", err)
		return nil
	}
	if stored.ChatUserID != "" {
		return nil
	}

	chatUserID, err := s.chat.LookupUserByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, entity.ErrNoChatIdentity) {
			slog.WarnContext(ctx, "failed to look up chat identity", "user_id", in.UserID, "error", err)
		}
		return nil
	}

	if err := s.repoDB.SetRecipientChatUserID(ctx, in.UserID, chatUserID, now); err != nil {
		slog.ErrorContext(ctx, "failed to repo set recipient chat user id", "user_id", in.UserID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "recipient linked to chat identity", "user_id", in.UserID)

	return nil
}
