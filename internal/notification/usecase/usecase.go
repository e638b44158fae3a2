package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/clock"
	"github.com/shandysiswandi/notifyd/internal/pkg/config"
	"github.com/shandysiswandi/notifyd/internal/pkg/idempotency"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/locker"
	"github.com/shandysiswandi/notifyd/internal/pkg/uid"
	"github.com/shandysiswandi/notifyd/internal/pkg/validator"
	"github.com/shandysiswandi/notifyd/internal/shared/event"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

const (
	defaultBundleWindow       = 30 * time.Minute
	defaultChatBatchWindow    = 5 * time.Minute
	defaultDigestRetention    = 30 * 24 * time.Hour
	defaultChatBatchRetention = 7 * 24 * time.Hour
)

type repoDB interface {
	GetPreference(ctx context.Context, userID int64, typ entity.EventType) (*entity.Preference, error)
	ListPreferences(ctx context.Context, userID int64) ([]entity.Preference, error)
	UpsertPreference(ctx context.Context, p entity.Preference, force bool, now time.Time) (bool, error)
	UnlockPreference(ctx context.Context, userID int64, typ entity.EventType, now time.Time) (bool, error)
	InsertDefaultPreferences(ctx context.Context, prefs []entity.Preference, now time.Time) (int64, error)

	CreateRecord(ctx context.Context, r entity.Record) error
	FindLatestUnreadByBundleKey(ctx context.Context, key entity.BundleKey, since time.Time) (*entity.Record, error)
	BumpBundle(ctx context.Context, id int64, prevCount int32, title string, now time.Time) (*entity.Record, error)
	MarkEmailDelivered(ctx context.Context, id int64, at time.Time) error
	MarkChatDelivered(ctx context.Context, id int64, at time.Time) error
	ListRecords(ctx context.Context, userID int64, unreadOnly bool, limit, offset int32) ([]entity.Record, error)
	CountRecords(ctx context.Context, userID int64, unreadOnly bool) (int64, error)
	MarkRecordRead(ctx context.Context, userID, id int64, now time.Time) (bool, error)
	MarkAllRecordsRead(ctx context.Context, userID int64, now time.Time) (int64, error)
	SoftDeleteRecord(ctx context.Context, userID, id int64, now time.Time) (bool, error)

	CreateDigestItem(ctx context.Context, item entity.DigestItem) error
	ListPendingDigestItems(ctx context.Context) ([]entity.DigestItem, error)
	MarkDigestItemsProcessed(ctx context.Context, ids []int64, now time.Time) error
	DeleteProcessedDigestItemsBefore(ctx context.Context, before time.Time) (int64, error)

	FindOpenBatchReadyAt(ctx context.Context, key entity.BatchKey) (time.Time, error)
	CreateChatBatchItem(ctx context.Context, item entity.ChatBatchItem) error
	ListReadyChatBatchItems(ctx context.Context, now time.Time) ([]entity.ChatBatchItem, error)
	MarkChatBatchItemsProcessed(ctx context.Context, ids []int64, now time.Time) error
	DeleteProcessedChatBatchItemsBefore(ctx context.Context, before time.Time) (int64, error)

	UpsertThreadLink(ctx context.Context, link entity.ThreadLink, now time.Time) error
	FindThreadLink(ctx context.Context, channelID, messageTs string) (*entity.ThreadLink, error)

	GetRecipient(ctx context.Context, userID int64) (*entity.Recipient, error)
	GetRecipientByChatUserID(ctx context.Context, chatUserID string) (*entity.Recipient, error)
	UpsertRecipient(ctx context.Context, r entity.Recipient, now time.Time) error
	SetRecipientChatUserID(ctx context.Context, userID int64, chatUserID string, now time.Time) error

	GetIntegration(ctx context.Context, provider entity.IntegrationProvider) (*entity.Integration, error)
	UpsertIntegration(ctx context.Context, in entity.Integration) error
}

type emailSender interface {
	Configure(settings entity.EmailSettings)
	Enabled() bool
	SendImmediate(ctx context.Context, to entity.Recipient, evt entity.Event) error
	SendDigest(ctx context.Context, to entity.Recipient, items []entity.DigestItem) error
}

type chatSender interface {
	Configure(settings entity.ChatSettings)
	Enabled() bool
	SendDirect(ctx context.Context, chatUserID string, evt entity.Event) (entity.ChatLocator, error)
	SendBatch(ctx context.Context, chatUserID string, items []entity.ChatBatchItem) error
	LookupUserByEmail(ctx context.Context, email string) (string, error)
	TestConnection(ctx context.Context) (entity.ChatConnection, error)
}

type publisher interface {
	PublishChatReply(ctx context.Context, msg event.NotificationChatReplyMessage) error
}

type distLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (*locker.Lock, error)
	Lock(ctx context.Context, key string, ttl, wait time.Duration) (*locker.Lock, error)
}

type idempotencyTracker interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...idempotency.Option) error
}

type Usecase struct {
	repoDB      repoDB
	email       emailSender
	chat        chatSender
	publisher   publisher
	locker      distLocker
	idempotency idempotencyTracker
	cfg         config.Config
	uid         uid.NumberID
	clock       clock.Clocker
	validator   validator.Validator
	ins         instrument.Instrumentation

	channelCounter metric.Int64Counter
	signingSecret  *atomic.String

	streamMu sync.RWMutex
	streams  map[int64]map[*subscriber]struct{}
}

type Dependency struct {
	RepoDB      repoDB
	Email       emailSender
	Chat        chatSender
	Publisher   publisher
	Locker      distLocker
	Idempotency idempotencyTracker
	Config      config.Config
	UID         uid.NumberID
	Clock       clock.Clocker
	Validator   validator.Validator
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	counter, err := dep.Instrument.Meter("notification.usecase").Int64Counter(
		"notification.dispatch.channel",
		metric.WithDescription("Channel delivery outcomes of dispatched notifications"),
	)
	if err != nil {
		slog.Error("failed to create dispatch channel counter", "error", err)
		counter = noop.Int64Counter{}
	}

	return &Usecase{
		repoDB:         dep.RepoDB,
		email:          dep.Email,
		chat:           dep.Chat,
		publisher:      dep.Publisher,
		locker:         dep.Locker,
		idempotency:    dep.Idempotency,
		cfg:            dep.Config,
		uid:            dep.UID,
		clock:          dep.Clock,
		validator:      dep.Validator,
		ins:            dep.Instrument,
		channelCounter: counter,
		signingSecret:  atomic.NewString(""),
		streams:        make(map[int64]map[*subscriber]struct{}),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

func (s *Usecase) bundleWindow() time.Duration {
	if s.cfg == nil {
		return defaultBundleWindow
	}
	return orDefault(s.cfg.GetMinute("modules.notification.bundle_window_minutes"), defaultBundleWindow)
}

func (s *Usecase) chatBatchWindow() time.Duration {
	if s.cfg == nil {
		return defaultChatBatchWindow
	}
	return orDefault(s.cfg.GetMinute("modules.notification.chat_batch_window_minutes"), defaultChatBatchWindow)
}

func (s *Usecase) digestRetention() time.Duration {
	if s.cfg == nil {
		return defaultDigestRetention
	}
	return orDefault(s.cfg.GetDay("modules.notification.digest_retention_days"), defaultDigestRetention)
}

func (s *Usecase) chatBatchRetention() time.Duration {
	if s.cfg == nil {
		return defaultChatBatchRetention
	}
	return orDefault(s.cfg.GetDay("modules.notification.chat_batch_retention_days"), defaultChatBatchRetention)
}
