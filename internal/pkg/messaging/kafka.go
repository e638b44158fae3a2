package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
	ErrKafkaGroupRequired   = errors.New("messaging: kafka consumer group is required")
)

type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka keeps one writer per topic and opens a group reader per Consume call.
type Kafka struct {
	brokers []string
	dialer  *kafka.Dialer

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers map[*kafka.Reader]struct{}
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		brokers: append([]string(nil), cfg.Brokers...),
		dialer:  cfg.Dialer,
		writers: map[string]*kafka.Writer{},
		readers: map[*kafka.Reader]struct{}{},
	}, nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers, readers := k.writers, k.readers
	k.writers, k.readers = nil, nil
	k.mu.Unlock()

	var errs error
	for r := range readers {
		errs = errors.Join(errs, r.Close())
	}
	for _, w := range writers {
		errs = errors.Join(errs, w.Close())
	}
	return errs
}

func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	w, err := k.writer(destination)
	if err != nil {
		return PublishResult{}, err
	}

	out := kafka.Message{Key: msg.Key, Value: msg.Body, Time: time.Now()}
	for _, h := range msg.Headers {
		if h.Key != "" {
			out.Headers = append(out.Headers, kafka.Header{Key: h.Key, Value: h.Value})
		}
	}

	if err := w.WriteMessages(ctx, out); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: out.Time}, nil
}

// Consume fetches with one goroutine and fans out to the configured number of
// workers. A failed commit stops the consumer so the group can rebalance.
func (k *Kafka) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
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
	if co.group == "" {
		return ErrKafkaGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  co.group,
		Topic:    source,
		MaxBytes: 10e6,
		Dialer:   k.dialer,
	})
	if err := k.trackReader(reader); err != nil {
		return errors.Join(err, reader.Close())
	}
	defer k.untrackReader(reader)

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	fetched := make(chan kafka.Message)
	go func() {
		defer close(fetched)
		for {
			m, err := reader.FetchMessage(runCtx)
			if err != nil {
				cancel(err)
				return
			}
			select {
			case fetched <- m:
			case <-runCtx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range fetched {
				wrapped := &kafkaMessage{reader: reader, msg: m, receivedAt: time.Now()}
				if err := deliver(runCtx, DriverKafka, handler, wrapped, co.autoAck); err != nil {
					cancel(fmt.Errorf("messaging: kafka commit: %w", err))
					return
				}
			}
		})
	}

	<-runCtx.Done()
	wg.Wait()

	cause := context.Cause(runCtx)
	if ctx.Err() != nil {
		cause = ctx.Err()
	}
	return errors.Join(cause, reader.Close())
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, io.ErrClosedPipe
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(k.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	if k.dialer != nil {
		w.Transport = &kafka.Transport{TLS: k.dialer.TLS, SASL: k.dialer.SASLMechanism}
	}
	k.writers[topic] = w
	return w, nil
}

func (k *Kafka) trackReader(r *kafka.Reader) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return io.ErrClosedPipe
	}
	k.readers[r] = struct{}{}
	return nil
}

func (k *Kafka) untrackReader(r *kafka.Reader) {
	k.mu.Lock()
	delete(k.readers, r)
	k.mu.Unlock()
}

type kafkaMessage struct {
	reader     *kafka.Reader
	msg        kafka.Message
	receivedAt time.Time
	done       atomic.Bool
}

func (m *kafkaMessage) Body() []byte { return m.msg.Value }

func (m *kafkaMessage) Headers() []Header {
	out := make([]Header, 0, len(m.msg.Headers))
	for _, h := range m.msg.Headers {
		out = append(out, Header{Key: h.Key, Value: h.Value})
	}
	return out
}

func (m *kafkaMessage) Header(key string) (string, bool) {
	return findHeader(m.Headers(), key)
}

func (m *kafkaMessage) Topic() string         { return m.msg.Topic }
func (m *kafkaMessage) ReceivedAt() time.Time { return m.receivedAt }
func (m *kafkaMessage) settled() bool         { return m.done.Load() }

func (m *kafkaMessage) Ack(ctx context.Context) error {
	if m.done.Swap(true) {
		return nil
	}
	return m.reader.CommitMessages(ctx, m.msg)
}

// Nack leaves the offset uncommitted; the message is redelivered after a
// rebalance or restart.
func (m *kafkaMessage) Nack(context.Context) error {
	m.done.Store(true)
	return nil
}
