package messaging

type consumeOptions struct {
	concurrency int
	autoAck     bool
	// group is the Kafka consumer group.
	group string
	// queueGroup is the NATS queue group.
	queueGroup string
}

type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	return co
}

// WithConcurrency sets how many handlers run in parallel for one consumer.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

func WithAutoAck(autoAck bool) ConsumeOption {
	return func(o *consumeOptions) { o.autoAck = autoAck }
}

// WithGroup sets the Kafka consumer group. Kafka consumers require one.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithQueueGroup load balances a NATS subject across instances.
func WithQueueGroup(queueGroup string) ConsumeOption {
	return func(o *consumeOptions) { o.queueGroup = queueGroup }
}
