package messaging

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DriverNATS  = "nats"
	DriverKafka = "kafka"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries the settings of every driver.
type FactoryOptions struct {
	NATS  NATSConfig
	Kafka KafkaConfig
}

func NewFromDriver(driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
