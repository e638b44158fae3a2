package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/notifyd/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			CacheConn:   a.cacheConn,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Router:      a.router,
			Mail:        a.mail,
			Chat:        a.chat,
			Idempotency: a.idemp,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
