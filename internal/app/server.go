package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

type namedServer struct {
	name string
	srv  *http.Server
}

// servers lists the listeners in shutdown order. Streams go first so open
// SSE connections stop before the API drains.
func (a *App) servers() []namedServer {
	return []namedServer{
		{name: "sse", srv: a.sseServer},
		{name: "http", srv: a.httpServer},
	}
}

// Start launches every server and returns a channel closed once a
// termination signal arrives.
func (a *App) Start() <-chan struct{} {
	terminateChan := make(chan struct{})

	for _, s := range a.servers() {
		go func() {
			slog.Info(s.name+" server listening", "address", s.srv.Addr)

			if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				slog.Error("failed to listen and serve "+s.name+" server", "error", err)
				os.Exit(1)
			}
		}()
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigint)

		<-sigint

		if a.cancel != nil {
			a.cancel()
		}

		close(terminateChan)

		slog.Info("application gracefully shutdown")
	}()

	return terminateChan
}

// Stop cancels background work, drains the servers, waits for consumers and
// schedulers, then closes resources.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	for _, s := range a.servers() {
		if err := s.srv.Shutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", s.name+" server", "error", err)
		}
	}

	slog.InfoContext(ctx, "waiting for consumers and scheduled jobs to finish")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}
