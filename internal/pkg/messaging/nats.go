package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

var ErrNATSURLRequired = errors.New("messaging: nats url is required")

type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS publishes and consumes on core NATS subjects.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   map[*nats.Subscription]struct{}
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn, subs: map[*nats.Subscription]struct{}{}}, nil
}

func (n *NATS) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	subs := make([]*nats.Subscription, 0, len(n.subs))
	for sub := range n.subs {
		subs = append(subs, sub)
	}
	n.mu.Unlock()

	var errs error
	for _, sub := range subs {
		errs = errors.Join(errs, sub.Drain())
	}
	errs = errors.Join(errs, n.conn.Drain())
	n.conn.Close()
	return errs
}

func (n *NATS) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	out := nats.NewMsg(destination)
	out.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key != "" {
			out.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := n.conn.PublishMsg(out); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats flush: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

func (n *NATS) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	inbox := make(chan *nats.Msg, co.concurrency)

	sub, err := n.conn.QueueSubscribe(source, co.queueGroup, func(m *nats.Msg) {
		select {
		case inbox <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range inbox {
				//nolint:errcheck // core nats has no redelivery to report to
				_ = deliver(ctx, DriverNATS, handler, &natsMessage{msg: m, receivedAt: time.Now()}, co.autoAck)
			}
		})
	}

	stop := func(cause error) error {
		derr := sub.Drain()
		close(inbox)
		wg.Wait()
		n.untrack(sub)
		return errors.Join(cause, derr)
	}

	if err := n.track(sub); err != nil {
		return stop(err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return stop(fmt.Errorf("messaging: nats flush: %w", err))
	}

	<-ctx.Done()
	return stop(ctx.Err())
}

func (n *NATS) track(sub *nats.Subscription) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return io.ErrClosedPipe
	}
	n.subs[sub] = struct{}{}
	return nil
}

func (n *NATS) untrack(sub *nats.Subscription) {
	n.mu.Lock()
	delete(n.subs, sub)
	n.mu.Unlock()
}

type natsMessage struct {
	msg        *nats.Msg
	receivedAt time.Time
	done       atomic.Bool
}

func (m *natsMessage) Body() []byte { return m.msg.Data }

func (m *natsMessage) Headers() []Header {
	var out []Header
	for k, values := range m.msg.Header {
		for _, v := range values {
			out = append(out, Header{Key: k, Value: []byte(v)})
		}
	}
	return out
}

func (m *natsMessage) Header(key string) (string, bool) {
	if m.msg.Header == nil {
		return "", false
	}
	values, ok := m.msg.Header[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (m *natsMessage) Topic() string         { return m.msg.Subject }
func (m *natsMessage) ReceivedAt() time.Time { return m.receivedAt }
func (m *natsMessage) settled() bool         { return m.done.Load() }

func (m *natsMessage) Ack(ctx context.Context) error {
	return m.settle(ctx, m.msg.Ack)
}

func (m *natsMessage) Nack(ctx context.Context) error {
	return m.settle(ctx, m.msg.Nak)
}

func (m *natsMessage) settle(ctx context.Context, fn func(...nats.AckOpt) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.done.Swap(true) {
		return nil
	}
	err := fn()
	if errors.Is(err, nats.ErrMsgNoReply) || errors.Is(err, nats.ErrMsgNotBound) {
		return nil
	}
	return err
}
