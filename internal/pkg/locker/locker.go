// Package locker provides short lived distributed mutexes on redis. They
// guard read-then-write sections such as merging into a bundle and keep
// scheduled flushes from overlapping across instances.
package locker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// ErrNotObtained is returned when the key is held by someone else.
var ErrNotObtained = errors.New("locker: lock not obtained")

const keyPrefix = "lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type tokenGenerator interface {
	Generate() string
}

// Cmdable is the subset of go-redis used by Locker.
type Cmdable interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

type Lock struct {
	client Cmdable
	key    string
	token  string
}

// Locker hands out Locks backed by SET NX PX.
type Locker struct {
	client Cmdable
	tokens tokenGenerator
}

func New(client Cmdable, tokens tokenGenerator) *Locker {
	return &Locker{client: client, tokens: tokens}
}

// TryLock makes a single attempt.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	token := l.tokens.Generate()

	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotObtained
	}

	return &Lock{client: l.client, key: keyPrefix + key, token: token}, nil
}

// Lock retries TryLock with a capped backoff until wait elapses.
func (l *Locker) Lock(ctx context.Context, key string, ttl, wait time.Duration) (*Lock, error) {
	backoff := retry.NewExponential(20 * time.Millisecond)
	backoff = retry.WithCappedDuration(200*time.Millisecond, backoff)
	backoff = retry.WithMaxDuration(wait, backoff)

	var lock *Lock
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		lock, err = l.TryLock(ctx, key, ttl)
		if errors.Is(err, ErrNotObtained) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// Release deletes the key only if this lock still owns it. Releasing an
// expired or stolen lock is not an error.
func (lk *Lock) Release(ctx context.Context) error {
	if lk == nil {
		return nil
	}
	return releaseScript.Run(ctx, lk.client, []string{lk.key}, lk.token).Err()
}
