package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleTitle(t *testing.T) {
	assert.Equal(t, "New comments (2)", bundleTitle("New comments", 2))
	assert.Equal(t, "New comments (3)", bundleTitle("New comments (2)", 3))
	assert.Equal(t, "Sprint (Q3) (2)", bundleTitle("Sprint (Q3)", 2))
	assert.Equal(t, "Build (12)(4) (4)", bundleTitle("Build (12)(4)", 4))
}

func bundledEvent(title string) entity.Event {
	return entity.Event{
		RecipientID: 7,
		Type:        entity.EventTypeCommentAdded,
		Title:       title,
		Entity:      entity.EntityRef{Type: entity.EntityTypeTask, ID: "42"},
		BundleKey:   "comments:task:42",
		Priority:    entity.PriorityNormal,
	}
}

func TestUsecase_createOrMerge(t *testing.T) {
	t.Run("events within the window merge into one record", func(t *testing.T) {
		d := newTestUsecase(t)
		ctx := context.Background()

		first, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)
		assert.Equal(t, int32(1), first.BundleCount)

		d.clock.Advance(10 * time.Minute)
		second, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int32(2), second.BundleCount)
		assert.Equal(t, "New comment (2)", second.Title)

		d.clock.Advance(10 * time.Minute)
		third, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)
		assert.Equal(t, int32(3), third.BundleCount)
		assert.Equal(t, "New comment (3)", third.Title)
		assert.Equal(t, testNow.Add(20*time.Minute), third.UpdatedAt)

		assert.Len(t, d.repo.recordsOf(7), 1)
	})

	t.Run("a read record is never merged into", func(t *testing.T) {
		d := newTestUsecase(t)
		ctx := context.Background()

		first, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)
		_, err = d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)

		require.NoError(t, d.uc.MarkInboxRead(authed(7), MarkInboxReadInput{ID: first.ID}))

		next, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, next.ID)
		assert.Equal(t, int32(1), next.BundleCount)
		assert.Equal(t, "New comment", next.Title)
	})

	t.Run("window is measured from the last bump", func(t *testing.T) {
		d := newTestUsecase(t)
		ctx := context.Background()

		first, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)

		d.clock.Advance(25 * time.Minute)
		_, err = d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)

		d.clock.Advance(25 * time.Minute)
		merged, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)
		assert.Equal(t, first.ID, merged.ID)
		assert.Equal(t, int32(3), merged.BundleCount)

		d.clock.Advance(31 * time.Minute)
		fresh, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, fresh.ID)
		assert.Equal(t, int32(1), fresh.BundleCount)
	})

	t.Run("different keys never merge", func(t *testing.T) {
		d := newTestUsecase(t)
		ctx := context.Background()

		a, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)

		other := bundledEvent("New comment")
		other.BundleKey = "comments:task:43"
		b, err := d.uc.createOrMerge(ctx, other)
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
		assert.Equal(t, int32(1), b.BundleCount)
	})

	t.Run("events without a key always create", func(t *testing.T) {
		d := newTestUsecase(t)
		ctx := context.Background()

		evt := bundledEvent("Assigned")
		evt.BundleKey = ""
		a, err := d.uc.createOrMerge(ctx, evt)
		require.NoError(t, err)
		b, err := d.uc.createOrMerge(ctx, evt)
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
		assert.Len(t, d.repo.recordsOf(7), 2)
	})

	t.Run("merges without redis", func(t *testing.T) {
		d := newTestUsecase(t)
		d.redis.Close()
		ctx := context.Background()

		first, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)
		second, err := d.uc.createOrMerge(ctx, bundledEvent("New comment"))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int32(2), second.BundleCount)
	})
}
