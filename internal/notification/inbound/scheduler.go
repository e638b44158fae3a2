package inbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/notifyd/internal/pkg/config"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/shandysiswandi/notifyd/internal/pkg/goroutine"
)

const (
	defaultDigestInterval    = 24 * time.Hour
	defaultChatBatchInterval = time.Minute
)

type scheduledJob struct {
	name  string
	every time.Duration
	run   func(ctx context.Context) error
}

// RegisterScheduler drives the digest and chat batch jobs from in-process
// tickers. It complements the cron endpoints; both share the same job lock.
func RegisterScheduler(ctx context.Context, cfg config.Config, routine *goroutine.Manager, uc ucJob) {
	if !cfg.GetBool("modules.notification.scheduler.enabled") {
		return
	}

	jobs := []scheduledJob{
		{
			name:  "digest",
			every: cfg.GetHour("modules.notification.scheduler.digest_interval_hours"),
			run: func(ctx context.Context) error {
				out, err := uc.RunDigestJob(ctx)
				if err == nil {
					slog.InfoContext(ctx, "digest job finished", "recipients", out.RecipientsProcessed, "sent", out.Sent,
						"skipped", out.Skipped, "errors", out.Errors, "reaped", out.Reaped)
				}
				return err
			},
		},
		{
			name:  "chat_batches",
			every: cfg.GetMinute("modules.notification.scheduler.chat_batch_interval_minutes"),
			run: func(ctx context.Context) error {
				out, err := uc.RunChatBatchJob(ctx)
				if err == nil && (out.Sent > 0 || out.Errors > 0) {
					slog.InfoContext(ctx, "chat batch job finished", "sent", out.Sent, "skipped", out.Skipped,
						"errors", out.Errors, "cleaned", out.Cleaned)
				}
				return err
			},
		},
	}
	if jobs[0].every <= 0 {
		jobs[0].every = defaultDigestInterval
	}
	if jobs[1].every <= 0 {
		jobs[1].every = defaultChatBatchInterval
	}

	for _, job := range jobs {
		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "Running scheduled job", "job", job.name, "every", job.every.String())
			runEvery(pCtx, job)
			return nil
		})
	}
}

func runEvery(ctx context.Context, job scheduledJob) {
	ticker := time.NewTicker(job.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := job.run(ctx)
			switch {
			case err == nil:
			case goerror.HasCode(err, goerror.CodeConflict):
				slog.InfoContext(ctx, "scheduled job already running elsewhere", "job", job.name)
			default:
				slog.ErrorContext(ctx, "failed to run scheduled job", "job", job.name, "error", err)
			}
		}
	}
}
