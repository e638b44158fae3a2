// Package goroutine runs background work under a concurrency cap, recovering
// panics and collecting returned errors until Wait.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/notifyd/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is multiplied by NumCPU when no cap is configured.
const DefaultMaxGoroutine int = 100

// Manager owns the lifetime of background goroutines.
type Manager struct {
	wg   sync.WaitGroup
	sema chan struct{}

	mu     sync.Mutex
	errs   []error
	closed bool
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}
	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go runs f in a new goroutine. It returns false, without running f, when the
// manager is closed or the cap is reached.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		slog.WarnContext(ctx, "goroutine manager is closed, skipping new goroutine")
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		g.mu.Unlock()
		slog.WarnContext(ctx, "maximum goroutine limit reached, failed to start new goroutine")
		return false
	}
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		defer func() { <-g.sema }()
		defer g.recover(ctx)

		if ctx.Err() != nil {
			slog.WarnContext(ctx, "goroutine canceled before start", "because", ctx.Err())
			return
		}
		if err := f(ctx); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	}()

	return true
}

func (g *Manager) recover(ctx context.Context) {
	rvr := recover()
	if rvr == nil {
		return
	}

	stack := debug.Stack()
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", paths)
		return
	}
	slog.ErrorContext(ctx, "panic occurred in goroutine", "because", rvr, "stack", string(stack))
}

// Wait stops accepting work, blocks until running goroutines return and
// joins their errors. Context cancellation errors are not reported.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()

	var out []error
	for _, err := range g.errs {
		if errors.Is(err, context.Canceled) {
			continue
		}
		out = append(out, err)
	}
	return errors.Join(out...)
}
