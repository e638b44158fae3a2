package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/shandysiswandi/notifyd/internal/pkg/locker"
)

const cronLockTTL = 10 * time.Minute

type DigestJobOutput struct {
	FlushDigestOutput
	Reaped int64
}

// RunDigestJob flushes the digest queue and reaps old items. Only one
// instance runs it at a time; a concurrent call gets a conflict.
func (s *Usecase) RunDigestJob(ctx context.Context) (_ *DigestJobOutput, err error) {
	ctx, span := s.startSpan(ctx, "RunDigestJob")
	defer span.End()

	release, err := s.acquireJob(ctx, "notification:cron:digest")
	if err != nil {
		return nil, err
	}
	defer release()

	flushed, err := s.FlushDigest(ctx)
	if err != nil {
		return nil, err
	}

	reaped, err := s.ReapDigest(ctx)
	if err != nil {
		return nil, err
	}

	return &DigestJobOutput{FlushDigestOutput: *flushed, Reaped: reaped}, nil
}

type ChatBatchJobOutput struct {
	FlushChatBatchesOutput
	Cleaned int64
}

// RunChatBatchJob flushes ready chat batches and deletes old processed items.
func (s *Usecase) RunChatBatchJob(ctx context.Context) (_ *ChatBatchJobOutput, err error) {
	ctx, span := s.startSpan(ctx, "RunChatBatchJob")
	defer span.End()

	release, err := s.acquireJob(ctx, "notification:cron:chat-batches")
	if err != nil {
		return nil, err
	}
	defer release()

	flushed, err := s.FlushChatBatches(ctx)
	if err != nil {
		return nil, err
	}

	cleaned, err := s.CleanupChatBatches(ctx)
	if err != nil {
		return nil, err
	}

	return &ChatBatchJobOutput{FlushChatBatchesOutput: *flushed, Cleaned: cleaned}, nil
}

func (s *Usecase) acquireJob(ctx context.Context, key string) (func(), error) {
	lk, err := s.locker.TryLock(ctx, key, cronLockTTL)
	if errors.Is(err, locker.ErrNotObtained) {
		return nil, goerror.NewBusiness("job is already running", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire job lock", "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return func() {
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "failed to release job lock", "key", key, "error", err)
		}
	}, nil
}
