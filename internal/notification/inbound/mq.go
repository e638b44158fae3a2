package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/notifyd/internal/pkg/config"
	"github.com/shandysiswandi/notifyd/internal/pkg/goroutine"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/messaging"
	"github.com/shandysiswandi/notifyd/internal/pkg/uid"
	"github.com/shandysiswandi/notifyd/internal/shared/event"
)

const consumerConcurrency = 10

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name              string
		topic             string // destination where publisher sent message
		natsConsumerName  string // for nats
		kafkaConsumerName string // for kafka
		handler           messaging.Handler
	}{
		{
			name:              event.NotificationDispatchConsumer,
			topic:             event.NotificationDispatchDestination,
			natsConsumerName:  event.NotificationDispatchConsumer,
			kafkaConsumerName: event.NotificationDispatchConsumer,
			handler:           mqHandler.NotificationDispatch,
		},
		{
			name:              event.RecipientSyncConsumer,
			topic:             event.RecipientSyncDestination,
			natsConsumerName:  event.RecipientSyncConsumer,
			kafkaConsumerName: event.RecipientSyncConsumer,
			handler:           mqHandler.RecipientSync,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithQueueGroup(consumer.natsConsumerName),
				messaging.WithGroup(consumer.kafkaConsumerName),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(consumerConcurrency),
			)
		})
	}
}
