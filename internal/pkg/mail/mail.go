// Package mail sends email through a pluggable transport. The notification
// email sender renders content and hands a Message to whichever driver the
// configuration selects.
package mail

import (
	"context"
	"errors"
	"io"
)

// Supported drivers for NewFromDriver.
const (
	DriverSMTP   = "smtp"
	DriverResend = "resend"
)

var (
	ErrNoRecipients      = errors.New("mail: no recipients provided")
	ErrNoSender          = errors.New("mail: no sender provided")
	ErrUnsupportedDriver = errors.New("mail: unsupported driver")
)

// Message is a transport neutral email.
type Message struct {
	// From overrides the transport default sender.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

func (m Message) recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

// Mail delivers a Message.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// FactoryOptions carries the settings of every driver; only the selected one
// is read.
type FactoryOptions struct {
	SMTP   SMTPConfig
	Resend ResendConfig
}

// NewFromDriver builds the transport named by driver.
func NewFromDriver(driver string, opts FactoryOptions) (Mail, error) {
	switch driver {
	case DriverSMTP, "":
		return NewSMTP(opts.SMTP)
	case DriverResend:
		return NewResend(opts.Resend)
	default:
		return nil, ErrUnsupportedDriver
	}
}
