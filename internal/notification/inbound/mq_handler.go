package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/notifyd/internal/notification/usecase"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/messaging"
	"github.com/shandysiswandi/notifyd/internal/pkg/uid"
	"github.com/shandysiswandi/notifyd/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cid, ok := msg.Header(keyOfCorrelationID); ok && cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// NotificationDispatch delivers an event published by another module.
func (h *MQHandler) NotificationDispatch(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "NotificationDispatch")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: notification dispatch", "msg_body", string(body))

	var payload event.NotificationDispatchMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of notification dispatch", "msg_body", string(body), "error", err)
		return nil
	}

	err := h.uc.ConsumeDispatch(ctx, usecase.DispatchManyInput{
		RecipientIDs: payload.RecipientIDs,
		EventInput: usecase.EventInput{
			Type:       payload.Type,
			Title:      payload.Title,
			Message:    payload.Message,
			EntityType: payload.EntityType,
			EntityID:   payload.EntityID,
			BundleKey:  payload.BundleKey,
			Priority:   payload.Priority,
			Metadata:   payload.Metadata,
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume notification dispatch", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) RecipientSync(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "RecipientSync")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: recipient sync", "topic", msg.Topic())

	var payload event.RecipientSyncMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of recipient sync", "error", err)
		return nil
	}

	err := h.uc.ConsumeRecipientSync(ctx, usecase.RecipientSyncInput{
		UserID:     payload.UserID,
		Email:      payload.Email,
		FullName:   payload.FullName,
		ChatUserID: payload.ChatUserID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume recipient sync", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
