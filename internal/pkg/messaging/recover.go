package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/notifyd/internal/pkg/stacktrace"
)

// deliver runs the handler, turns a panic into an error and settles the
// message when auto ack is on and the handler did not settle it itself.
func deliver(ctx context.Context, driver string, handler Handler, msg settledMessage, autoAck bool) error {
	herr := safeHandle(ctx, driver, handler, msg)
	if !autoAck || msg.settled() {
		return nil
	}
	if herr != nil {
		return msg.Nack(ctx)
	}
	return msg.Ack(ctx)
}

type settledMessage interface {
	Message
	settled() bool
}

func safeHandle(ctx context.Context, driver string, handler Handler, msg Message) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic in message handler", "driver", driver, "topic", msg.Topic(), "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic in message handler", "driver", driver, "topic", msg.Topic(), "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: %s handler panic: %v", driver, rvr)
	}()

	return handler(ctx, msg)
}
