package usecase

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
)

const (
	bundleLockTTL  = 5 * time.Second
	bundleLockWait = 2 * time.Second
)

var bundleCountSuffix = regexp.MustCompile(`\s\(\d+\)$`)

// bundleTitle replaces a trailing " (N)" of title with the new count.
func bundleTitle(title string, count int32) string {
	return bundleCountSuffix.ReplaceAllString(title, "") + " (" + strconv.FormatInt(int64(count), 10) + ")"
}

// createOrMerge stores evt as an in-app record. An event with a bundle key
// merges into the newest unread record of that key bumped within the bundle
// window; anything else starts a new record with a count of one.
func (s *Usecase) createOrMerge(ctx context.Context, evt entity.Event) (*entity.Record, error) {
	if evt.BundleKey == "" {
		return s.createRecord(ctx, evt)
	}

	key := entity.BundleKey{RecipientID: evt.RecipientID, Key: evt.BundleKey}

	if s.locker != nil {
		lk, err := s.locker.Lock(ctx, "notification:bundle:"+key.String(), bundleLockTTL, bundleLockWait)
		if err != nil {
			slog.WarnContext(ctx, "failed to acquire bundle lock, merging unlocked", "user_id", evt.RecipientID, "bundle_key", evt.BundleKey, "error", err)
		}
		defer func() {
			if err := lk.Release(context.WithoutCancel(ctx)); err != nil {
				slog.WarnContext(ctx, "failed to release bundle lock", "user_id", evt.RecipientID, "bundle_key", evt.BundleKey, "error", err)
			}
		}()
	}

	now := s.clock.Now()
	candidate, err := s.repoDB.FindLatestUnreadByBundleKey(ctx, key, now.Add(-s.bundleWindow()))
	if errors.Is(err, goerror.ErrNotFound) {
		return s.createRecord(ctx, evt)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find latest unread by bundle key", "user_id", evt.RecipientID, "bundle_key", evt.BundleKey, "error", err)
		return nil, err
	}

	next := candidate.BundleCount + 1
	rec, err := s.repoDB.BumpBundle(ctx, candidate.ID, candidate.BundleCount, bundleTitle(candidate.Title, next), now)
	if errors.Is(err, goerror.ErrNotFound) {
		// read or bumped by someone else since the lookup
		return s.createRecord(ctx, evt)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo bump bundle", "record_id", candidate.ID, "error", err)
		return nil, err
	}

	return rec, nil
}

func (s *Usecase) createRecord(ctx context.Context, evt entity.Event) (*entity.Record, error) {
	now := s.clock.Now()
	rec := entity.Record{
		ID:          s.uid.Generate(),
		UserID:      evt.RecipientID,
		Type:        evt.Type,
		Title:       evt.Title,
		Message:     evt.Message,
		Entity:      evt.Entity,
		BundleKey:   evt.BundleKey,
		BundleCount: 1,
		Priority:    evt.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repoDB.CreateRecord(ctx, rec); err != nil {
		slog.ErrorContext(ctx, "failed to repo create record", "user_id", evt.RecipientID, "type", evt.Type.String(), "error", err)
		return nil, err
	}

	return &rec, nil
}
