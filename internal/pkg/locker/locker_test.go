package locker

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterTokens struct{ n atomic.Int64 }

func (c *counterTokens) Generate() string { return strconv.FormatInt(c.n.Add(1), 10) }

func newLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, &counterTokens{}), mr
}

func TestLocker_TryLock(t *testing.T) {
	ctx := context.Background()
	l, mr := newLocker(t)

	first, err := l.TryLock(ctx, "bundle:7:task-9", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:bundle:7:task-9"))

	_, err = l.TryLock(ctx, "bundle:7:task-9", time.Minute)
	assert.ErrorIs(t, err, ErrNotObtained)

	require.NoError(t, first.Release(ctx))
	assert.False(t, mr.Exists("lock:bundle:7:task-9"))

	second, err := l.TryLock(ctx, "bundle:7:task-9", time.Minute)
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}

func TestLocker_ReleaseDoesNotStealForeignLock(t *testing.T) {
	ctx := context.Background()
	l, mr := newLocker(t)

	stale, err := l.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale.Release(ctx))
	assert.True(t, mr.Exists("lock:k"), "stale owner must not release the new holder")

	require.NoError(t, fresh.Release(ctx))
	assert.False(t, mr.Exists("lock:k"))
}

func TestLocker_LockGivesUp(t *testing.T) {
	ctx := context.Background()
	l, _ := newLocker(t)

	held, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = held.Release(ctx) })

	_, err = l.Lock(ctx, "k", time.Minute, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotObtained)
}

func TestLock_NilRelease(t *testing.T) {
	var lk *Lock
	assert.NoError(t, lk.Release(context.Background()))
}
