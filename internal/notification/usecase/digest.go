package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
)

type FlushDigestOutput struct {
	RecipientsProcessed int
	Sent                int
	Skipped             int
	Errors              int
}

// FlushDigest sends one summary email per recipient with pending digest
// items. Items stay pending when the send fails.
func (s *Usecase) FlushDigest(ctx context.Context) (_ *FlushDigestOutput, err error) {
	ctx, span := s.startSpan(ctx, "FlushDigest")
	defer span.End()

	out := &FlushDigestOutput{}
	if !s.email.Enabled() {
		slog.WarnContext(ctx, "digest flush skipped, email channel not configured")
		return out, nil
	}

	items, err := s.repoDB.ListPendingDigestItems(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list pending digest items", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	groups := lo.GroupBy(items, func(i entity.DigestItem) int64 { return i.UserID })
	for userID, group := range groups {
		out.RecipientsProcessed++
		ids := lo.Map(group, func(i entity.DigestItem, _ int) int64 { return i.ID })

		rcpt := s.lookupRecipient(ctx, userID)
		if rcpt == nil || rcpt.Email == "" {
			slog.WarnContext(ctx, "digest dropped, recipient has no email address", "user_id", userID, "items", len(ids))
			if err := s.repoDB.MarkDigestItemsProcessed(ctx, ids, now); err != nil {
				slog.ErrorContext(ctx, "failed to repo mark digest items processed", "user_id", userID, "error", err)
				out.Errors++
				continue
			}
			out.Skipped++
			continue
		}

		if err := s.email.SendDigest(ctx, *rcpt, group); err != nil {
			slog.ErrorContext(ctx, "failed to send digest email", "user_id", userID, "items", len(ids), "error", err)
			out.Errors++
			continue
		}

		if err := s.repoDB.MarkDigestItemsProcessed(ctx, ids, now); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark digest items processed", "user_id", userID, "error", err)
			out.Errors++
			continue
		}
		out.Sent++
	}

	slog.InfoContext(ctx, "digest flushed", "recipients", out.RecipientsProcessed, "sent", out.Sent, "skipped", out.Skipped, "errors", out.Errors)

	return out, nil
}

// ReapDigest deletes processed digest items past the retention.
func (s *Usecase) ReapDigest(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ReapDigest")
	defer span.End()

	deleted, err := s.repoDB.DeleteProcessedDigestItemsBefore(ctx, s.clock.Now().Add(-s.digestRetention()))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete processed digest items", "error", err)
		return 0, goerror.NewServer(err)
	}

	return deleted, nil
}
