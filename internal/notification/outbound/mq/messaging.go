package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/messaging"
	"github.com/shandysiswandi/notifyd/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishChatReply announces a chat reply to the owner of the entity. The
// entity id is the message key so replies of one entity stay ordered.
func (m *Messaging) PublishChatReply(ctx context.Context, msg event.NotificationChatReplyMessage) error {
	ctx, span := m.ins.Tracer("notification.outbound.mq").Start(ctx, "PublishChatReply")
	defer span.End()

	body, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.NotificationChatReplyDestination, messaging.OutgoingMessage{
		Key:     []byte(msg.EntityType + ":" + msg.EntityID),
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
