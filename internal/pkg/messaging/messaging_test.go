package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessage struct {
	headers []Header
	acked   int
	nacked  int
}

func (m *fakeMessage) Body() []byte                     { return []byte(`{}`) }
func (m *fakeMessage) Headers() []Header                { return m.headers }
func (m *fakeMessage) Header(key string) (string, bool) { return findHeader(m.headers, key) }
func (m *fakeMessage) Topic() string                    { return "notification.dispatch" }
func (m *fakeMessage) ReceivedAt() time.Time            { return time.Time{} }
func (m *fakeMessage) settled() bool                    { return m.acked+m.nacked > 0 }

func (m *fakeMessage) Ack(context.Context) error  { m.acked++; return nil }
func (m *fakeMessage) Nack(context.Context) error { m.nacked++; return nil }

func TestDeliver(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		handler    Handler
		autoAck    bool
		wantAcked  int
		wantNacked int
	}{
		{
			name:      "success acks",
			handler:   func(context.Context, Message) error { return nil },
			autoAck:   true,
			wantAcked: 1,
		},
		{
			name:       "error nacks",
			handler:    func(context.Context, Message) error { return errors.New("boom") },
			autoAck:    true,
			wantNacked: 1,
		},
		{
			name:       "panic nacks",
			handler:    func(context.Context, Message) error { panic("handler exploded") },
			autoAck:    true,
			wantNacked: 1,
		},
		{
			name:    "manual ack mode leaves message alone",
			handler: func(context.Context, Message) error { return errors.New("boom") },
		},
		{
			name: "handler settled itself",
			handler: func(ctx context.Context, m Message) error {
				return m.Nack(ctx)
			},
			autoAck:    true,
			wantNacked: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &fakeMessage{}
			require.NoError(t, deliver(ctx, "test", tt.handler, msg, tt.autoAck))
			assert.Equal(t, tt.wantAcked, msg.acked)
			assert.Equal(t, tt.wantNacked, msg.nacked)
		})
	}
}

func TestFindHeader(t *testing.T) {
	headers := []Header{{Key: "cID", Value: []byte("abc")}, {Key: "cID", Value: []byte("ignored")}}

	v, ok := findHeader(headers, "cID")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = findHeader(headers, "missing")
	assert.False(t, ok)
}

func TestNewConsumeOptions(t *testing.T) {
	co := newConsumeOptions(nil, WithConcurrency(-3), WithGroup("notifyd"), WithQueueGroup("notifyd-q"), WithAutoAck(true))

	assert.Equal(t, 1, co.concurrency)
	assert.Equal(t, "notifyd", co.group)
	assert.Equal(t, "notifyd-q", co.queueGroup)
	assert.True(t, co.autoAck)
}

func TestNewFromDriver(t *testing.T) {
	_, err := NewFromDriver("sqs", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = NewFromDriver(" NATS ", FactoryOptions{})
	assert.ErrorIs(t, err, ErrNATSURLRequired)

	_, err = NewFromDriver(DriverKafka, FactoryOptions{})
	assert.ErrorIs(t, err, ErrKafkaBrokersRequired)

	m, err := NewFromDriver(DriverKafka, FactoryOptions{Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
}

func TestKafka_Validation(t *testing.T) {
	k, err := NewKafka(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)

	ctx := context.Background()
	noop := func(context.Context, Message) error { return nil }

	assert.ErrorIs(t, k.Consume(ctx, "notification.dispatch", noop), ErrKafkaGroupRequired)
	assert.ErrorIs(t, k.Consume(ctx, "", noop, WithGroup("g")), ErrDestinationRequired)
	assert.ErrorIs(t, k.Consume(ctx, "t", nil, WithGroup("g")), ErrHandlerRequired)

	_, err = k.Publish(ctx, "t", OutgoingMessage{Delay: time.Second})
	assert.ErrorIs(t, err, ErrUnsupported)

	require.NoError(t, k.Close())
	require.NoError(t, k.Close())

	_, err = k.Publish(ctx, "t", OutgoingMessage{Body: []byte("x")})
	assert.Error(t, err)
}
