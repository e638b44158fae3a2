package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const (
	HeaderRequestTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature        = "X-Slack-Signature"
)

var (
	ErrInvalidSignature = errors.New("chat: invalid request signature")
	ErrMalformedEvent   = errors.New("chat: malformed event payload")
)

// VerifyRequest checks the v0 signature Slack puts on every Events API
// request. The timestamp must be within five minutes of the local clock.
func VerifyRequest(timestamp, signature string, body []byte, secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: no signing secret", ErrInvalidSignature)
	}

	header := http.Header{}
	header.Set(HeaderRequestTimestamp, timestamp)
	header.Set(HeaderSignature, signature)

	sv, err := slack.NewSecretsVerifier(header, secret)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if _, err := sv.Write(body); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if err := sv.Ensure(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	return nil
}

// MessageEvent is a message posted in a conversation the bot can read.
type MessageEvent struct {
	ChannelID   string
	ChannelType string
	UserID      string
	BotID       string
	Subtype     string
	Text        string
	Ts          string
	ThreadTs    string
}

// Event is the part of an Events API request the service acts on. Challenge
// is set for URL verification, Message for message callbacks; both are
// empty for every other event.
type Event struct {
	Challenge string
	Message   *MessageEvent
}

// ParseEvent decodes an Events API body. Payloads that are valid JSON but of
// a type the library does not map are returned as an empty Event.
func ParseEvent(body []byte) (Event, error) {
	if !json.Valid(body) {
		return Event{}, ErrMalformedEvent
	}

	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return Event{}, nil //nolint:nilerr // unmapped events are acknowledged and dropped
	}

	switch ev.Type {
	case slackevents.URLVerification:
		if v, ok := ev.Data.(*slackevents.EventsAPIURLVerificationEvent); ok {
			return Event{Challenge: v.Challenge}, nil
		}
	case slackevents.CallbackEvent:
		if m, ok := ev.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			return Event{Message: &MessageEvent{
				ChannelID:   m.Channel,
				ChannelType: m.ChannelType,
				UserID:      m.User,
				BotID:       m.BotID,
				Subtype:     m.SubType,
				Text:        m.Text,
				Ts:          m.TimeStamp,
				ThreadTs:    m.ThreadTimeStamp,
			}}, nil
		}
	}

	return Event{}, nil
}
