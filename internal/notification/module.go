package notification

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/notifyd/internal/notification/inbound"
	"github.com/shandysiswandi/notifyd/internal/notification/outbound/chat"
	"github.com/shandysiswandi/notifyd/internal/notification/outbound/db"
	"github.com/shandysiswandi/notifyd/internal/notification/outbound/email"
	"github.com/shandysiswandi/notifyd/internal/notification/outbound/mq"
	"github.com/shandysiswandi/notifyd/internal/notification/usecase"
	chatpkg "github.com/shandysiswandi/notifyd/internal/pkg/chat"
	"github.com/shandysiswandi/notifyd/internal/pkg/clock"
	"github.com/shandysiswandi/notifyd/internal/pkg/config"
	"github.com/shandysiswandi/notifyd/internal/pkg/goroutine"
	"github.com/shandysiswandi/notifyd/internal/pkg/idempotency"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/locker"
	"github.com/shandysiswandi/notifyd/internal/pkg/mail"
	"github.com/shandysiswandi/notifyd/internal/pkg/messaging"
	"github.com/shandysiswandi/notifyd/internal/pkg/router"
	"github.com/shandysiswandi/notifyd/internal/pkg/uid"
	"github.com/shandysiswandi/notifyd/internal/pkg/validator"
)

type Dependency struct {
	Ctx         context.Context
	DBConn      *pgxpool.Pool
	CacheConn   redis.Cmdable
	Messaging   messaging.Messaging
	Config      config.Config
	Instrument  instrument.Instrumentation
	UID         uid.NumberID
	UUID        uid.StringID
	Clock       clock.Clocker
	Goroutine   *goroutine.Manager
	Validator   *validator.V10Validator
	Router      *router.Router
	Mail        mail.Mail
	Chat        *chatpkg.Slack
	Idempotency *idempotency.StateTracker
}

func New(dep Dependency) error {
	if err := usecase.RegisterValidations(dep.Validator); err != nil {
		return err
	}

	dbNotif := db.NewDB(dep.DBConn, dep.Instrument)
	mailNotif := email.New(dep.Mail, dep.Instrument)
	chatNotif := chat.New(dep.Chat, dep.Instrument)
	mqNotif := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		RepoDB:      dbNotif,
		Email:       mailNotif,
		Chat:        chatNotif,
		Publisher:   mqNotif,
		Locker:      locker.New(dep.CacheConn, dep.UUID),
		Idempotency: dep.Idempotency,
		Config:      dep.Config,
		UID:         dep.UID,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		Instrument:  dep.Instrument,
	})

	ctx := dep.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if err := uc.ReconfigureChannels(ctx); err != nil {
		slog.WarnContext(ctx, "failed to configure channels at start, senders stay disabled", "error", err)
	}
	dep.Config.OnChange(func() {
		if err := uc.ReconfigureChannels(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to reconfigure channels after config reload", "error", err)
		}
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
		inbound.RegisterScheduler(dep.Ctx, dep.Config, dep.Goroutine, uc)
	}

	return nil
}
