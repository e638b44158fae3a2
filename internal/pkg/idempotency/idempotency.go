// Package idempotency records the outcome of keyed operations in redis so
// that redelivered work (webhook retries, replayed events) runs at most once.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrAlreadyFailed     = errors.New("idempotency: operation already failed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateError      State = "error"
)

func (s State) String() string { return string(s) }

const (
	keyPrefix           = "idempotency:"
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Hour
)

type StateTracker struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *StateTracker {
	return &StateTracker{client: client}
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration    time.Duration
	stateTTL        time.Duration
	forgetOnFailure bool
}

// WithLockDuration bounds how long an unfinished run blocks others.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long the final state is remembered.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// WithForgetOnFailure deletes the key when fn fails so a redelivery can try
// again, instead of remembering the failure.
func WithForgetOnFailure() Option {
	return func(o *execOptions) { o.forgetOnFailure = true }
}

// Acquire claims key. StateNone means the caller owns the run.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := keyPrefix + key

	for range 2 {
		ok, err := s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
		if err != nil {
			return StateError, err
		}
		if ok {
			return StateNone, nil
		}

		current, err := s.client.Get(ctx, fk).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SetNX and Get
			continue
		}
		if err != nil {
			return StateError, err
		}

		switch State(current) {
		case StateInProgress, StateCompleted, StateFailed:
			return State(current), nil
		default:
			return StateError, ErrInvalidState
		}
	}

	return StateError, ErrInvalidState
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+key, StateCompleted.String(), ttl).Err()
}

func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+key, StateFailed.String(), ttl).Err()
}

func (s *StateTracker) Forget(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

// Exec runs fn once per key. A second caller receives one of the
// ErrAlready* errors depending on the recorded state.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := s.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		var markErr error
		if o.forgetOnFailure {
			markErr = s.Forget(ctx, key)
		} else {
			markErr = s.MarkFailed(ctx, key, o.stateTTL)
		}
		return errors.Join(err, markErr)
	}

	return s.MarkCompleted(ctx, key, o.stateTTL)
}
