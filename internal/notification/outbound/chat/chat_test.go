package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	chatpkg "github.com/shandysiswandi/notifyd/internal/pkg/chat"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	token  string
	sent   []chatpkg.Message
	users  map[string]string
	err    error
	lookup error
}

func (f *fakeClient) Reconfigure(token string) { f.token = token }

func (f *fakeClient) Configured() bool { return f.token != "" }

func (f *fakeClient) SendDirect(_ context.Context, _ string, msg chatpkg.Message) (chatpkg.Locator, error) {
	if f.token == "" {
		return chatpkg.Locator{}, chatpkg.ErrNotConfigured
	}
	if f.err != nil {
		return chatpkg.Locator{}, f.err
	}
	f.sent = append(f.sent, msg)
	return chatpkg.Locator{ChannelID: "D1", Timestamp: "1700000000.000100"}, nil
}

func (f *fakeClient) LookupUserByEmail(_ context.Context, email string) (string, error) {
	if f.lookup != nil {
		return "", f.lookup
	}
	id, ok := f.users[email]
	if !ok {
		return "", chatpkg.ErrUserNotFound
	}
	return id, nil
}

func (f *fakeClient) TestConnection(context.Context) (chatpkg.ConnectionInfo, error) {
	return chatpkg.ConnectionInfo{Team: "Acme", Bot: "notifier"}, nil
}

func newConfigured() (*Chat, *fakeClient) {
	fc := &fakeClient{users: map[string]string{"ana@example.com": "U1"}}
	c := New(fc, instrument.NewNoop())
	c.Configure(entity.ChatSettings{BotToken: "xoxb-1", AppURL: "https://app.example.com"})
	return c, fc
}

func TestChat_SendDirect(t *testing.T) {
	c, fc := newConfigured()
	require.True(t, c.Enabled())

	loc, err := c.SendDirect(context.Background(), "U1", entity.Event{
		Type:     entity.EventTypeTaskAssigned,
		Title:    "Write copy",
		Message:  "Due Friday",
		Entity:   entity.EntityRef{Type: entity.EntityTypeTask, ID: "42"},
		Priority: entity.PriorityHigh,
		Metadata: valueobject.JSONMap{"projectName": "Apollo"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ChatLocator{ChannelID: "D1", Ts: "1700000000.000100"}, loc)

	require.Len(t, fc.sent, 1)
	msg := fc.sent[0]
	assert.Equal(t, "📋 Write copy", msg.Text)
	assert.Equal(t, []string{"📋 *Write copy*", "Due Friday"}, msg.Sections)
	assert.Equal(t, []string{"*Project:* Apollo | *Priority:* High 🟠"}, msg.Context)
	assert.Equal(t, []chatpkg.Button{{Text: "View Details →", URL: "https://app.example.com/tasks/42"}}, msg.Buttons)
}

func TestChat_SendBatch(t *testing.T) {
	c, fc := newConfigured()

	items := make([]entity.ChatBatchItem, 0, 12)
	for i := range 12 {
		id := strconv.Itoa(i + 1)
		items = append(items, entity.ChatBatchItem{
			ID:          int64(i + 1),
			Key:         entity.BatchKey{RecipientID: 7, ProjectID: "p1"},
			ProjectName: "Apollo",
			EntityID:    id,
			Type:        entity.EventTypeTaskAssigned,
			Title:       "Task " + id,
		})
	}

	require.NoError(t, c.SendBatch(context.Background(), "U1", items))
	require.Len(t, fc.sent, 1)

	msg := fc.sent[0]
	assert.Equal(t, "📋 *12 new notifications* in project: Apollo", msg.Sections[0])
	assert.Len(t, msg.Sections, 11)
	assert.Equal(t, "• <https://app.example.com/tasks/1|Task 1>", msg.Sections[1])
	assert.Equal(t, "• <https://app.example.com/tasks/10|Task 10>", msg.Sections[10])
	assert.Equal(t, []string{"_...and 2 more_"}, msg.Context)
	assert.Equal(t, "https://app.example.com/projects/p1", msg.Buttons[0].URL)

	require.NoError(t, c.SendBatch(context.Background(), "U1", items[:1]))
	assert.Equal(t, "📋 *1 new notification* in project: Apollo", fc.sent[1].Sections[0])
	assert.Empty(t, fc.sent[1].Context)
}

func TestChat_sectionLimit(t *testing.T) {
	c, fc := newConfigured()

	_, err := c.SendDirect(context.Background(), "U1", entity.Event{
		Type:     entity.EventTypeTaskAssigned,
		Title:    "Write copy",
		Message:  strings.Repeat("é", 4000),
		Priority: entity.PriorityNormal,
	})
	require.NoError(t, err)
	direct := fc.sent[0].Sections[1]
	assert.Equal(t, maxSectionRunes, utf8.RuneCountInString(direct))
	assert.True(t, strings.HasSuffix(direct, "…"))

	items := make([]entity.ChatBatchItem, 0, 10)
	for i := range 10 {
		items = append(items, entity.ChatBatchItem{
			Key:         entity.BatchKey{RecipientID: 7, ProjectID: "p1"},
			ProjectName: "Apollo",
			EntityID:    strconv.Itoa(i + 1),
			Title:       strings.Repeat("x", 255),
		})
	}
	require.NoError(t, c.SendBatch(context.Background(), "U1", items))

	for _, section := range fc.sent[1].Sections {
		assert.LessOrEqual(t, utf8.RuneCountInString(section), maxSectionRunes)
	}
}

func TestChat_notConfigured(t *testing.T) {
	c, _ := newConfigured()
	c.Configure(entity.ChatSettings{})
	assert.False(t, c.Enabled())

	_, err := c.SendDirect(context.Background(), "U1", entity.Event{Type: entity.EventTypeSystemAlert, Title: "x"})
	assert.ErrorIs(t, err, entity.ErrChannelDisabled)

	err = c.SendBatch(context.Background(), "U1", []entity.ChatBatchItem{{ProjectName: "Apollo", Title: "x"}})
	assert.ErrorIs(t, err, entity.ErrChannelDisabled)
}

func TestChat_LookupUserByEmail(t *testing.T) {
	c, fc := newConfigured()

	id, err := c.LookupUserByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "U1", id)

	_, err = c.LookupUserByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, entity.ErrNoChatIdentity)

	fc.lookup = errors.New("ratelimited")
	_, err = c.LookupUserByEmail(context.Background(), "ana@example.com")
	assert.EqualError(t, err, "ratelimited")
}

func TestChat_TestConnection(t *testing.T) {
	c, _ := newConfigured()

	conn, err := c.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.ChatConnection{Team: "Acme", Bot: "notifier"}, conn)
}
