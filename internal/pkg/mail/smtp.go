package mail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// ErrSMTPHostPortRequired is returned by NewSMTP without an address.
var ErrSMTPHostPortRequired = errors.New("mail: smtp host and port are required")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is used when Message.From is empty.
	From string
}

// SMTP sends through net/smtp with optional PLAIN auth.
type SMTP struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTP{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		auth: auth,
		send: smtp.SendMail,
	}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rcpt := msg.recipients()
	if len(rcpt) == 0 {
		return ErrNoRecipients
	}

	from := msg.From
	if from == "" {
		from = s.from
	}
	if from == "" {
		return ErrNoSender
	}

	return s.send(s.addr, s.auth, from, rcpt, buildMIME(from, msg))
}

func (s *SMTP) Close() error { return nil }

func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.Cc, ", "))
	}
	// RFC 2047 keeps non-ASCII and line breaks out of the raw header.
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := newBoundary()
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)
		writePart(&b, boundary, "text/plain", msg.TextBody)
		writePart(&b, boundary, "text/html", msg.HTMLBody)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case msg.HTMLBody != "":
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTMLBody)
	default:
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.TextBody)
	}

	return []byte(b.String())
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	fmt.Fprintf(b, "--%s\r\nContent-Type: %s; charset=UTF-8\r\n\r\n%s\r\n", boundary, contentType, body)
}

func newBoundary() string {
	var raw [12]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "notifyd-boundary"
	}
	return "notifyd-" + hex.EncodeToString(raw[:])
}
