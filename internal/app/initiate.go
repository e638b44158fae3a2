package app

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
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
	"github.com/shandysiswandi/notifyd/migrations"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool

	if a.config.GetBool("database.auto_migrate") {
		a.migrate()
	}
}

// migrate applies the embedded schema. Every statement is idempotent so it
// runs on each boot.
func (a *App) migrate() {
	stmts, err := migrations.Up()
	if err != nil {
		slog.Error("failed to read migrations", "error", err)
		os.Exit(1)
	}

	for _, stmt := range stmts {
		if _, err := a.dbConn.Exec(a.ctx, stmt); err != nil {
			slog.Error("failed to apply migration", "error", err)
			os.Exit(1)
		}
	}
	slog.Info("migrations applied", "count", len(stmts))
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn)
}

// initMail leaves a.mail nil when the transport cannot be built; email
// delivery is then skipped instead of failing the service.
func (a *App) initMail() {
	driver := strings.TrimSpace(a.config.GetString("mail.driver"))
	from := a.config.GetString("mail.from")

	client, err := mail.NewFromDriver(driver, mail.FactoryOptions{
		SMTP: mail.SMTPConfig{
			Host:     a.config.GetString("mail.smtp.host"),
			Port:     a.config.GetInt("mail.smtp.port"),
			Username: a.config.GetString("mail.smtp.username"),
			Password: a.config.GetString("mail.smtp.password"),
			From:     from,
		},
		Resend: mail.ResendConfig{
			APIKey: a.config.GetString("mail.resend.api_key"),
			From:   from,
		},
	})
	if err != nil {
		slog.Warn("mail transport not configured, email delivery disabled", "driver", driver, "error", err)
		return
	}

	a.mail = client
}

func (a *App) initChat() {
	a.chat = chat.NewSlack(chat.SlackConfig{
		BotToken:    a.config.GetString("chat.slack.bot_token"),
		APIURL:      a.config.GetString("chat.slack.api_url"),
		RetryBase:   a.config.GetSecond("chat.slack.retry_base_seconds"),
		MaxAttempts: uint64(max(a.config.GetInt64("chat.slack.max_attempts"), 0)),
	})
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

// initCasbin builds an in-memory enforcer. The only role is admin and its
// members come from authz.admins.
func (a *App) initCasbin() {
	const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		slog.Error("failed to create model casbin", "error", err)
		os.Exit(1)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		slog.Error("failed to init casbin", "error", err)
		os.Exit(1)
	}

	if _, err := e.AddPolicy("admin", "*", "*"); err != nil {
		slog.Error("failed to add admin policy casbin", "error", err)
		os.Exit(1)
	}
	for _, id := range a.config.GetArray("authz.admins") {
		if _, err := e.AddGroupingPolicy(id, "admin"); err != nil {
			slog.Error("failed to add admin grouping casbin", "error", err, "user_id", id)
			os.Exit(1)
		}
	}

	a.casbin = e
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
		Enforcer:   a.casbin,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}

	// Streams stay open, so this server has no read or write deadline and its
	// requests end when the app context is cancelled.
	a.sseServer = &http.Server{
		Addr:              a.config.GetString("app.server.sse.address"),
		Handler:           routerWithCORS,
		ReadHeaderTimeout: a.config.GetSecond("app.server.sse.read_header_timeout_seconds"),
		BaseContext:       func(net.Listener) context.Context { return a.ctx },
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				if a.mail == nil {
					return nil
				}

				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
