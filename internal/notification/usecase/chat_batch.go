package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
)

const (
	chatBatchLockTTL  = 5 * time.Second
	chatBatchLockWait = 2 * time.Second

	unknownProject = "Unknown Project"
)

// enqueueChatBatch adds evt to the open batch of (recipient, project). The
// first item of a batch fixes its ready time; later items reuse it.
func (s *Usecase) enqueueChatBatch(ctx context.Context, evt entity.Event) entity.ChatResult {
	key := entity.BatchKey{RecipientID: evt.RecipientID, ProjectID: evt.Metadata.GetString(entity.MetaProjectID)}

	if s.locker != nil {
		lk, err := s.locker.Lock(ctx, "notification:chat-batch:"+key.String(), chatBatchLockTTL, chatBatchLockWait)
		if err != nil {
			slog.WarnContext(ctx, "failed to acquire chat batch lock, enqueueing unlocked", "batch_key", key.String(), "error", err)
		}
		defer func() {
			if err := lk.Release(context.WithoutCancel(ctx)); err != nil {
				slog.WarnContext(ctx, "failed to release chat batch lock", "batch_key", key.String(), "error", err)
			}
		}()
	}

	now := s.clock.Now()
	readyAt, err := s.repoDB.FindOpenBatchReadyAt(ctx, key)
	if errors.Is(err, goerror.ErrNotFound) {
		readyAt = now.Add(s.chatBatchWindow())
		err = nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find open chat batch", "batch_key", key.String(), "error", err)
		s.countChannel(ctx, entity.ChannelChat, outcomeFailed)
		return entity.ChatResult{Error: failedToQueue}
	}

	projectName := evt.Metadata.GetString(entity.MetaProjectName)
	if projectName == "" {
		projectName = unknownProject
	}

	item := entity.ChatBatchItem{
		ID:           s.uid.Generate(),
		Key:          key,
		ProjectName:  projectName,
		EntityID:     evt.Entity.ID,
		Type:         evt.Type,
		Title:        evt.Title,
		Message:      evt.Message,
		BatchReadyAt: readyAt,
		CreatedAt:    now,
	}
	if err := s.repoDB.CreateChatBatchItem(ctx, item); err != nil {
		slog.ErrorContext(ctx, "failed to repo create chat batch item", "batch_key", key.String(), "error", err)
		s.countChannel(ctx, entity.ChannelChat, outcomeFailed)
		return entity.ChatResult{Error: failedToQueue}
	}
	s.countChannel(ctx, entity.ChannelChat, outcomeQueued)

	return entity.ChatResult{Sent: true}
}

type FlushChatBatchesOutput struct {
	Sent    int
	Skipped int
	Errors  int
}

// FlushChatBatches sends one message per batch whose ready time has passed.
// Each batch is marked processed only after its own send succeeded.
func (s *Usecase) FlushChatBatches(ctx context.Context) (_ *FlushChatBatchesOutput, err error) {
	ctx, span := s.startSpan(ctx, "FlushChatBatches")
	defer span.End()

	now := s.clock.Now()
	items, err := s.repoDB.ListReadyChatBatchItems(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list ready chat batch items", "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &FlushChatBatchesOutput{}
	groups := lo.GroupBy(items, func(i entity.ChatBatchItem) entity.BatchKey { return i.Key })
	for key, group := range groups {
		ids := lo.Map(group, func(i entity.ChatBatchItem, _ int) int64 { return i.ID })

		rcpt := s.lookupRecipient(ctx, key.RecipientID)
		if rcpt == nil || rcpt.ChatUserID == "" {
			slog.WarnContext(ctx, "chat batch dropped, recipient has no chat identity", "batch_key", key.String(), "items", len(ids))
			if err := s.repoDB.MarkChatBatchItemsProcessed(ctx, ids, now); err != nil {
				slog.ErrorContext(ctx, "failed to repo mark chat batch processed", "batch_key", key.String(), "error", err)
				out.Errors++
				continue
			}
			out.Skipped++
			continue
		}

		if err := s.chat.SendBatch(ctx, rcpt.ChatUserID, group); err != nil {
			slog.ErrorContext(ctx, "failed to send chat batch", "batch_key", key.String(), "items", len(ids), "error", err)
			out.Errors++
			continue
		}

		if err := s.repoDB.MarkChatBatchItemsProcessed(ctx, ids, now); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark chat batch processed", "batch_key", key.String(), "error", err)
			out.Errors++
			continue
		}
		out.Sent++
	}

	slog.InfoContext(ctx, "chat batches flushed", "sent", out.Sent, "skipped", out.Skipped, "errors", out.Errors)

	return out, nil
}

// CleanupChatBatches deletes processed batch items past the retention.
func (s *Usecase) CleanupChatBatches(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CleanupChatBatches")
	defer span.End()

	deleted, err := s.repoDB.DeleteProcessedChatBatchItemsBefore(ctx, s.clock.Now().Add(-s.chatBatchRetention()))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete processed chat batch items", "error", err)
		return 0, goerror.NewServer(err)
	}

	return deleted, nil
}
