package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/slack-go/slack"
)

type SlackConfig struct {
	BotToken string
	// APIURL overrides the Slack endpoint, mostly for tests.
	APIURL string
	// RetryBase is the first backoff on rate limiting; defaults to one second.
	RetryBase time.Duration
	// MaxAttempts bounds PostMessage attempts; defaults to three.
	MaxAttempts uint64
}

// Slack talks to the Slack Web API. It is safe for concurrent use.
type Slack struct {
	apiURL      string
	retryBase   time.Duration
	maxAttempts uint64

	mu  sync.RWMutex
	api *slack.Client
}

func NewSlack(cfg SlackConfig) *Slack {
	s := &Slack{
		apiURL:      cfg.APIURL,
		retryBase:   cfg.RetryBase,
		maxAttempts: cfg.MaxAttempts,
	}
	if s.retryBase <= 0 {
		s.retryBase = time.Second
	}
	if s.maxAttempts == 0 {
		s.maxAttempts = 3
	}
	s.Reconfigure(cfg.BotToken)
	return s
}

// Reconfigure replaces the bot token. An empty token disables the client.
func (s *Slack) Reconfigure(token string) {
	var api *slack.Client
	if token != "" {
		var opts []slack.Option
		if s.apiURL != "" {
			opts = append(opts, slack.OptionAPIURL(s.apiURL))
		}
		api = slack.New(token, opts...)
	}

	s.mu.Lock()
	s.api = api
	s.mu.Unlock()
}

func (s *Slack) Configured() bool {
	return s.client() != nil
}

func (s *Slack) client() *slack.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api
}

// SendDirect opens (or reuses) the DM conversation with userID and posts msg.
func (s *Slack) SendDirect(ctx context.Context, userID string, msg Message) (Locator, error) {
	api := s.client()
	if api == nil {
		return Locator{}, ErrNotConfigured
	}

	conv, _, _, err := api.OpenConversationContext(ctx, &slack.OpenConversationParameters{Users: []string{userID}})
	if err != nil {
		return Locator{}, fmt.Errorf("chat: open conversation: %w", err)
	}

	opts := []slack.MsgOption{slack.MsgOptionText(msg.Text, false)}
	if blocks := buildBlocks(msg); len(blocks) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}

	var loc Locator
	err = s.withRateLimitRetry(ctx, func(ctx context.Context) error {
		channel, ts, err := api.PostMessageContext(ctx, conv.ID, opts...)
		if err != nil {
			return err
		}
		loc = Locator{ChannelID: channel, Timestamp: ts}
		return nil
	})
	if err != nil {
		return Locator{}, fmt.Errorf("chat: post message: %w", err)
	}

	return loc, nil
}

// LookupUserByEmail returns the Slack user id registered with email.
func (s *Slack) LookupUserByEmail(ctx context.Context, email string) (string, error) {
	api := s.client()
	if api == nil {
		return "", ErrNotConfigured
	}

	user, err := api.GetUserByEmailContext(ctx, email)
	if err != nil {
		var se slack.SlackErrorResponse
		if errors.As(err, &se) && se.Err == "users_not_found" {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("chat: lookup user: %w", err)
	}
	return user.ID, nil
}

func (s *Slack) TestConnection(ctx context.Context) (ConnectionInfo, error) {
	api := s.client()
	if api == nil {
		return ConnectionInfo{}, ErrNotConfigured
	}

	resp, err := api.AuthTestContext(ctx)
	if err != nil {
		return ConnectionInfo{}, fmt.Errorf("chat: auth test: %w", err)
	}
	return ConnectionInfo{Team: resp.Team, Bot: resp.User}, nil
}

// withRateLimitRetry retries fn while Slack answers 429. Each wait is the
// exponential step or the Retry-After Slack sent, whichever is longer.
func (s *Slack) withRateLimitRetry(ctx context.Context, fn func(context.Context) error) error {
	var retryAfter time.Duration
	next := retry.WithMaxRetries(s.maxAttempts-1, retry.NewExponential(s.retryBase))
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		d, stop := next.Next()
		if stop {
			return 0, true
		}
		return max(d, retryAfter), false
	})

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		var rl *slack.RateLimitedError
		if errors.As(err, &rl) {
			retryAfter = rl.RetryAfter
			return retry.RetryableError(err)
		}
		return err
	})
}

func buildBlocks(msg Message) []slack.Block {
	var blocks []slack.Block

	for _, sec := range msg.Sections {
		blocks = append(blocks, slack.NewSectionBlock(markdown(sec), nil, nil))
	}

	if len(msg.Context) > 0 {
		elems := make([]slack.MixedElement, 0, len(msg.Context))
		for _, c := range msg.Context {
			elems = append(elems, markdown(c))
		}
		blocks = append(blocks, slack.NewContextBlock("", elems...))
	}

	if len(msg.Buttons) > 0 {
		elems := make([]slack.BlockElement, 0, len(msg.Buttons))
		for i, b := range msg.Buttons {
			btn := slack.NewButtonBlockElement(fmt.Sprintf("open_%d", i), "open", slack.NewTextBlockObject(slack.PlainTextType, b.Text, false, false))
			btn.URL = b.URL
			elems = append(elems, btn)
		}
		blocks = append(blocks, slack.NewActionBlock("", elems...))
	}

	return blocks
}

func markdown(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}
