package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_CollectsErrors(t *testing.T) {
	m := NewManager(4)
	boom := errors.New("boom")

	var ran atomic.Int32
	assert.True(t, m.Go(context.Background(), func(context.Context) error {
		ran.Add(1)
		return boom
	}))
	assert.True(t, m.Go(context.Background(), func(context.Context) error {
		ran.Add(1)
		return context.Canceled
	}))

	err := m.Wait()
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(2), ran.Load())
}

func TestManager_RecoversPanic(t *testing.T) {
	m := NewManager(1)
	m.Go(context.Background(), func(context.Context) error {
		panic("flush exploded")
	})

	assert.NoError(t, m.Wait())
}

func TestManager_RejectsAfterWait(t *testing.T) {
	m := NewManager(1)
	assert.NoError(t, m.Wait())

	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
}

func TestManager_CapReached(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})
	started := make(chan struct{})

	assert.True(t, m.Go(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started

	assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))

	close(release)
	assert.NoError(t, m.Wait())
}
