package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/messaging"
	"github.com/shandysiswandi/notifyd/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	dest string
	msg  messaging.OutgoingMessage
	err  error
}

func (f *fakeBroker) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	f.dest = destination
	f.msg = msg
	return messaging.PublishResult{Topic: destination}, f.err
}

func (f *fakeBroker) Consume(context.Context, string, messaging.Handler, ...messaging.ConsumeOption) error {
	return nil
}

func (f *fakeBroker) Close() error { return nil }

func TestMessaging_PublishChatReply(t *testing.T) {
	broker := &fakeBroker{}
	m := NewMessaging(broker, instrument.NewNoop())
	ctx := instrument.SetCorrelationID(context.Background(), "corr-1")

	reply := event.NotificationChatReplyMessage{EntityType: "task", EntityID: "42", RecipientID: 7, Text: "on it", Ts: "1.2"}
	require.NoError(t, m.PublishChatReply(ctx, reply))

	assert.Equal(t, event.NotificationChatReplyDestination, broker.dest)
	assert.Equal(t, []byte("task:42"), broker.msg.Key)
	assert.Equal(t, []messaging.Header{{Key: "cID", Value: []byte("corr-1")}}, broker.msg.Headers)

	var got event.NotificationChatReplyMessage
	require.NoError(t, json.Unmarshal(broker.msg.Body, &got))
	assert.Equal(t, reply, got)

	broker.err = errors.New("no responders")
	assert.Error(t, m.PublishChatReply(ctx, reply))
}
