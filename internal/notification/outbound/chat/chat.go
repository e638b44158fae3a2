package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	chatpkg "github.com/shandysiswandi/notifyd/internal/pkg/chat"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxBatchLines = 10
	// Slack rejects section blocks longer than this with invalid_blocks.
	maxSectionRunes = 3000
)

type client interface {
	Reconfigure(token string)
	Configured() bool
	SendDirect(ctx context.Context, userID string, msg chatpkg.Message) (chatpkg.Locator, error)
	LookupUserByEmail(ctx context.Context, email string) (string, error)
	TestConnection(ctx context.Context) (chatpkg.ConnectionInfo, error)
}

var priorityLabels = map[entity.Priority]string{
	entity.PriorityCritical: "Critical 🔴",
	entity.PriorityHigh:     "High 🟠",
	entity.PriorityNormal:   "Normal 🟡",
	entity.PriorityLow:      "Low 🟢",
}

// Chat builds notification messages for the chat platform.
type Chat struct {
	client client
	ins    instrument.Instrumentation

	mu     sync.RWMutex
	appURL string
}

func New(c client, ins instrument.Instrumentation) *Chat {
	return &Chat{client: c, ins: ins}
}

func (c *Chat) Configure(settings entity.ChatSettings) {
	c.mu.Lock()
	c.appURL = settings.AppURL
	c.mu.Unlock()

	c.client.Reconfigure(settings.BotToken)
}

func (c *Chat) Enabled() bool {
	return c.client.Configured()
}

func (c *Chat) url() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appURL
}

// SendDirect posts evt to the recipient's direct messages and returns where
// it landed.
func (c *Chat) SendDirect(ctx context.Context, chatUserID string, evt entity.Event) (entity.ChatLocator, error) {
	ctx, span := c.ins.Tracer("notification.outbound.chat").Start(ctx, "SendDirect")
	defer span.End()
	span.SetAttributes(attribute.String("notification.type", evt.Type.String()))

	loc, err := c.client.SendDirect(ctx, chatUserID, directMessage(c.url(), evt))
	if err != nil {
		return entity.ChatLocator{}, c.fail(span, err)
	}

	return entity.ChatLocator{ChannelID: loc.ChannelID, Ts: loc.Timestamp}, nil
}

// SendBatch posts one summary of items, which all belong to one project.
func (c *Chat) SendBatch(ctx context.Context, chatUserID string, items []entity.ChatBatchItem) error {
	ctx, span := c.ins.Tracer("notification.outbound.chat").Start(ctx, "SendBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("notification.items", len(items)))

	if len(items) == 0 {
		return nil
	}

	if _, err := c.client.SendDirect(ctx, chatUserID, batchMessage(c.url(), items)); err != nil {
		return c.fail(span, err)
	}

	return nil
}

func (c *Chat) LookupUserByEmail(ctx context.Context, email string) (string, error) {
	ctx, span := c.ins.Tracer("notification.outbound.chat").Start(ctx, "LookupUserByEmail")
	defer span.End()

	id, err := c.client.LookupUserByEmail(ctx, email)
	if errors.Is(err, chatpkg.ErrUserNotFound) {
		return "", entity.ErrNoChatIdentity
	}
	if err != nil {
		return "", c.fail(span, err)
	}

	return id, nil
}

func (c *Chat) TestConnection(ctx context.Context) (entity.ChatConnection, error) {
	ctx, span := c.ins.Tracer("notification.outbound.chat").Start(ctx, "TestConnection")
	defer span.End()

	info, err := c.client.TestConnection(ctx)
	if err != nil {
		return entity.ChatConnection{}, c.fail(span, err)
	}

	return entity.ChatConnection{Team: info.Team, Bot: info.Bot}, nil
}

func (c *Chat) fail(span trace.Span, err error) error {
	if errors.Is(err, chatpkg.ErrNotConfigured) {
		return entity.ErrChannelDisabled
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func directMessage(appURL string, evt entity.Event) chatpkg.Message {
	header := evt.Type.Icon() + " *" + evt.Title + "*"

	msg := chatpkg.Message{
		Text:     evt.Type.Icon() + " " + evt.Title,
		Sections: []string{clip(header)},
	}
	if evt.Message != "" {
		msg.Sections = append(msg.Sections, clip(evt.Message))
	}

	var ctxParts []string
	if name := evt.Metadata.GetString(entity.MetaProjectName); name != "" {
		ctxParts = append(ctxParts, "*Project:* "+name)
	}
	if label, ok := priorityLabels[evt.Priority]; ok {
		ctxParts = append(ctxParts, "*Priority:* "+label)
	}
	if len(ctxParts) > 0 {
		msg.Context = []string{strings.Join(ctxParts, " | ")}
	}

	if link := evt.Entity.Link(appURL); link != "" {
		msg.Buttons = []chatpkg.Button{{Text: "View Details →", URL: link}}
	}

	return msg
}

func batchMessage(appURL string, items []entity.ChatBatchItem) chatpkg.Message {
	first := items[0]
	noun := "notifications"
	if len(items) == 1 {
		noun = "notification"
	}
	header := "📋 *" + strconv.Itoa(len(items)) + " new " + noun + "* in project: " + first.ProjectName

	// One section per item keeps every block under the size limit.
	sections := make([]string, 0, 1+min(len(items), maxBatchLines))
	sections = append(sections, clip(header))
	for _, item := range items[:min(len(items), maxBatchLines)] {
		line := "• " + item.Title
		if link := (entity.EntityRef{Type: entity.EntityTypeTask, ID: item.EntityID}).Link(appURL); link != "" {
			line = "• <" + link + "|" + item.Title + ">"
		}
		sections = append(sections, clip(line))
	}

	msg := chatpkg.Message{
		Text:     "📋 " + strconv.Itoa(len(items)) + " new " + noun + " in project: " + first.ProjectName,
		Sections: sections,
	}
	if rest := len(items) - maxBatchLines; rest > 0 {
		msg.Context = []string{"_...and " + strconv.Itoa(rest) + " more_"}
	}

	if link := (entity.EntityRef{Type: entity.EntityTypeProject, ID: first.Key.ProjectID}).Link(appURL); link != "" {
		msg.Buttons = []chatpkg.Button{{Text: "View Project →", URL: link}}
	}

	return msg
}

// clip cuts s to the section limit, counted in runes.
func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxSectionRunes {
		return s
	}
	r := []rune(s)
	return string(r[:maxSectionRunes-1]) + "…"
}
