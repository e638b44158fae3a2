package mail

import (
	"context"
	"mime"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTP_Send(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "notify@example.com"})
	require.NoError(t, err)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody string
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, string(msg)
		return nil
	}

	err = s.Send(context.Background(), Message{
		To:       []string{"ana@example.com"},
		Bcc:      []string{"audit@example.com"},
		Subject:  "Task Overdue: Invoice #12",
		TextBody: "plain",
		HTMLBody: "<p>html</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "localhost:1025", gotAddr)
	assert.Equal(t, "notify@example.com", gotFrom)
	assert.Equal(t, []string{"ana@example.com", "audit@example.com"}, gotTo)
	assert.Contains(t, gotBody, "Subject: Task Overdue: Invoice #12\r\n")
	assert.Contains(t, gotBody, "multipart/alternative")
	assert.NotContains(t, gotBody, "audit@example.com", "bcc must not leak into headers")
	assert.Equal(t, 2, strings.Count(gotBody, "charset=UTF-8"))
}

func TestSMTP_SendEncodesSubject(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "notify@example.com"})
	require.NoError(t, err)

	var gotBody string
	s.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotBody = string(msg)
		return nil
	}

	subject := "🚨 Task Overdue: Fix\r\nReply-To: evil@attacker.io"
	require.NoError(t, s.Send(context.Background(), Message{
		To:       []string{"ana@example.com"},
		Subject:  subject,
		TextBody: "plain",
	}))

	head, _, found := strings.Cut(gotBody, "\r\n\r\n")
	require.True(t, found)

	var encoded string
	for _, line := range strings.Split(head, "\r\n") {
		assert.False(t, strings.HasPrefix(line, "Reply-To:"), "subject must not inject headers")
		if v, ok := strings.CutPrefix(line, "Subject: "); ok {
			encoded = v
		}
	}
	require.True(t, strings.HasPrefix(encoded, "=?utf-8?q?"), encoded)

	decoded, err := new(mime.WordDecoder).DecodeHeader(encoded)
	require.NoError(t, err)
	assert.Equal(t, subject, decoded)
}

func TestSMTP_SendValidation(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 25})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipients)
	assert.ErrorIs(t, s.Send(context.Background(), Message{To: []string{"a@example.com"}}), ErrNoSender)
}

func TestNewFromDriver(t *testing.T) {
	m, err := NewFromDriver(DriverResend, FactoryOptions{Resend: ResendConfig{APIKey: "re_test"}})
	require.NoError(t, err)
	assert.IsType(t, &Resend{}, m)

	_, err = NewFromDriver(DriverResend, FactoryOptions{})
	assert.ErrorIs(t, err, ErrResendAPIKeyRequired)

	_, err = NewFromDriver("carrier-pigeon", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
