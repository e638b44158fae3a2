package mail

import (
	"context"
	"errors"

	"github.com/resend/resend-go/v3"
)

// ErrResendAPIKeyRequired is returned by NewResend without a key.
var ErrResendAPIKeyRequired = errors.New("mail: resend api key is required")

type ResendConfig struct {
	APIKey string
	// From is used when Message.From is empty.
	From string
}

// Resend sends through the Resend HTTP API.
type Resend struct {
	client *resend.Client
	from   string
}

func NewResend(cfg ResendConfig) (*Resend, error) {
	if cfg.APIKey == "" {
		return nil, ErrResendAPIKeyRequired
	}
	return &Resend{client: resend.NewClient(cfg.APIKey), from: cfg.From}, nil
}

func (r *Resend) Send(ctx context.Context, msg Message) error {
	if len(msg.recipients()) == 0 {
		return ErrNoRecipients
	}

	from := msg.From
	if from == "" {
		from = r.from
	}
	if from == "" {
		return ErrNoSender
	}

	_, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
	})
	return err
}

func (r *Resend) Close() error { return nil }
