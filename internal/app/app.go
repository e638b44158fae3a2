package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/notifyd/internal/pkg/chat"
	"github.com/shandysiswandi/notifyd/internal/pkg/clock"
	"github.com/shandysiswandi/notifyd/internal/pkg/config"
	"github.com/shandysiswandi/notifyd/internal/pkg/goroutine"
	"github.com/shandysiswandi/notifyd/internal/pkg/idempotency"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/jwt"
	"github.com/shandysiswandi/notifyd/internal/pkg/mail"
	"github.com/shandysiswandi/notifyd/internal/pkg/messaging"
	"github.com/shandysiswandi/notifyd/internal/pkg/router"
	"github.com/shandysiswandi/notifyd/internal/pkg/uid"
	"github.com/shandysiswandi/notifyd/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator *validator.V10Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     *idempotency.StateTracker
	mail      mail.Mail
	chat      *chat.Slack
	messaging messaging.Messaging
	casbin    *casbin.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server
	sseServer  *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initChat()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
