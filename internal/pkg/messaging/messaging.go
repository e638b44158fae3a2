// Package messaging hides the event broker behind a publish/consume pair.
// Producers of notification requests and the dispatcher only see Messaging;
// NATS and Kafka are interchangeable through configuration.
package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrUnsupported is returned for features the selected broker lacks.
	ErrUnsupported = errors.New("messaging: unsupported operation")

	ErrDestinationRequired = errors.New("messaging: destination is required")
	ErrHandlerRequired     = errors.New("messaging: handler is required")
)

type Messaging interface {
	io.Closer

	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)

	// Consume blocks until ctx is done or the broker fails.
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one delivery. With auto ack enabled a nil error acks the
// message and a non-nil error nacks it.
type Handler func(ctx context.Context, msg Message) error

type OutgoingMessage struct {
	// Key is used as the partition key on Kafka and ignored on NATS.
	Key     []byte
	Body    []byte
	Headers []Header

	// Delay requests deferred delivery; neither bundled driver supports it.
	Delay time.Duration
}

type Header struct {
	Key   string
	Value []byte
}

type PublishResult struct {
	Topic     string
	Timestamp time.Time
}

// Message is a received delivery.
type Message interface {
	Body() []byte
	Headers() []Header
	// Header returns the first value stored under key.
	Header(key string) (string, bool)
	Topic() string
	ReceivedAt() time.Time

	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

func findHeader(headers []Header, key string) (string, bool) {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}
