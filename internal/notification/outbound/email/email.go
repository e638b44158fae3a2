package email

import (
	"context"
	"sync"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Mail renders notification emails and hands them to the mail transport.
// Settings are swapped at runtime by Configure.
type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation

	mu       sync.RWMutex
	settings entity.EmailSettings
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ins: ins}
}

func (m *Mail) Configure(settings entity.EmailSettings) {
	m.mu.Lock()
	m.settings = settings
	m.mu.Unlock()
}

func (m *Mail) Enabled() bool {
	return m.client != nil && m.current().Enabled
}

func (m *Mail) current() entity.EmailSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// SendImmediate sends a single alert for evt.
func (m *Mail) SendImmediate(ctx context.Context, to entity.Recipient, evt entity.Event) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "SendImmediate")
	defer span.End()

	settings := m.current()
	if !settings.Enabled || m.client == nil {
		return entity.ErrChannelDisabled
	}
	if to.Email == "" {
		return entity.ErrNoEmailAddress
	}

	msg, err := renderImmediate(settings.AppURL, to, evt)
	if err != nil {
		return m.fail(span, err)
	}
	msg.From = settings.From
	span.SetAttributes(attribute.String("notification.type", evt.Type.String()))

	if err := m.client.Send(ctx, msg); err != nil {
		return m.fail(span, err)
	}

	return nil
}

// SendDigest sends one summary of items, grouped by event type.
func (m *Mail) SendDigest(ctx context.Context, to entity.Recipient, items []entity.DigestItem) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "SendDigest")
	defer span.End()

	settings := m.current()
	if !settings.Enabled || m.client == nil {
		return entity.ErrChannelDisabled
	}
	if to.Email == "" {
		return entity.ErrNoEmailAddress
	}

	msg, err := renderDigest(settings.AppURL, to, items)
	if err != nil {
		return m.fail(span, err)
	}
	msg.From = settings.From
	span.SetAttributes(attribute.Int("notification.items", len(items)))

	if err := m.client.Send(ctx, msg); err != nil {
		return m.fail(span, err)
	}

	return nil
}

func (m *Mail) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
