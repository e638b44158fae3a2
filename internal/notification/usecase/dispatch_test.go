package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var alice = entity.Recipient{UserID: 7, Email: "alice@example.com", FullName: "Alice", ChatUserID: "U07"}

func ofType(typ entity.EventType) any {
	return mock.MatchedBy(func(e entity.Event) bool { return e.Type == typ })
}

func TestUsecase_Dispatch(t *testing.T) {
	t.Run("critical overdue task reaches every channel at once", func(t *testing.T) {
		d := newTestUsecase(t)
		d.repo.recipients[7] = alice
		d.email.On("SendImmediate", mock.Anything, alice, ofType(entity.EventTypeTaskOverdue)).Return(nil).Once()
		d.chat.On("SendDirect", mock.Anything, "U07", ofType(entity.EventTypeTaskOverdue)).
			Return(entity.ChatLocator{ChannelID: "D07", Ts: "1700000000.000100"}, nil).Once()

		res, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput: EventInput{
				Type:       "task_overdue",
				Title:      "Homepage copy is overdue",
				EntityType: "task",
				EntityID:   "42",
				Priority:   "critical",
			},
		})
		require.NoError(t, err)

		assert.True(t, res.InApp.Sent)
		assert.True(t, res.Email.Sent)
		assert.True(t, res.Chat.Sent)

		recs := d.repo.recordsOf(7)
		require.Len(t, recs, 1)
		assert.Equal(t, res.InApp.RecordID, recs[0].ID)
		assert.True(t, recs[0].EmailDelivered)
		assert.True(t, recs[0].ChatDelivered)
		assert.Equal(t, entity.PriorityCritical, recs[0].Priority)
		assert.Empty(t, d.repo.digest)

		link, err := d.repo.FindThreadLink(context.Background(), "D07", "1700000000.000100")
		require.NoError(t, err)
		assert.Equal(t, entity.EntityRef{Type: entity.EntityTypeTask, ID: "42"}, link.Entity)
		assert.Equal(t, "U07", link.ChatUserID)
	})

	t.Run("normal status change with defaults stays in app", func(t *testing.T) {
		d := newTestUsecase(t)
		d.repo.recipients[7] = alice

		res, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput:  EventInput{Type: "task_status_changed", Title: "Moved to review"},
		})
		require.NoError(t, err)

		assert.True(t, res.InApp.Sent)
		assert.Equal(t, entity.EmailResult{}, res.Email)
		assert.Equal(t, entity.ChatResult{}, res.Chat)
		assert.Len(t, d.repo.recordsOf(7), 1)
		assert.Empty(t, d.repo.digest)
	})

	t.Run("normal priority queues email for the digest", func(t *testing.T) {
		d := newTestUsecase(t)
		d.repo.recipients[7] = alice
		d.chat.On("SendDirect", mock.Anything, "U07", ofType(entity.EventTypeTaskDueSoon)).
			Return(entity.ChatLocator{}, nil).Once()

		res, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput:  EventInput{Type: "task_due_soon", Title: "Due tomorrow", Message: "Landing page"},
		})
		require.NoError(t, err)

		assert.True(t, res.Email.Queued)
		assert.False(t, res.Email.Sent)
		assert.True(t, res.Chat.Sent)
		require.Len(t, d.repo.digest, 1)
		assert.Equal(t, "Due tomorrow", d.repo.digest[0].Title)
		assert.Equal(t, "Landing page", d.repo.digest[0].Message)
		assert.False(t, d.repo.digest[0].Processed)
	})

	t.Run("low priority never goes to chat", func(t *testing.T) {
		d := newTestUsecase(t)
		d.repo.recipients[7] = alice

		res, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput:  EventInput{Type: "system_alert", Title: "Maintenance", Priority: "low"},
		})
		require.NoError(t, err)

		assert.True(t, res.InApp.Sent)
		assert.True(t, res.Email.Queued)
		assert.False(t, res.Chat.Sent)
	})

	t.Run("email failure does not affect other channels", func(t *testing.T) {
		d := newTestUsecase(t)
		d.repo.recipients[7] = alice
		d.email.On("SendImmediate", mock.Anything, alice, mock.Anything).Return(errors.New("smtp down")).Once()
		d.chat.On("SendDirect", mock.Anything, "U07", mock.Anything).Return(entity.ChatLocator{}, nil).Once()

		res, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput:  EventInput{Type: "retainer_alert", Title: "Hours at 90%", Priority: "high"},
		})
		require.NoError(t, err)

		assert.True(t, res.InApp.Sent)
		assert.False(t, res.Email.Sent)
		assert.True(t, res.Chat.Sent)
		assert.False(t, d.repo.recordsOf(7)[0].EmailDelivered)
	})

	t.Run("unconfigured channels are skipped", func(t *testing.T) {
		d := newTestUsecase(t)
		d.repo.recipients[7] = alice
		d.email.On("SendImmediate", mock.Anything, alice, mock.Anything).Return(entity.ErrChannelDisabled).Once()
		d.chat.On("SendDirect", mock.Anything, "U07", mock.Anything).Return(entity.ChatLocator{}, entity.ErrChannelDisabled).Once()

		res, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput:  EventInput{Type: "system_alert", Title: "Disk full", Priority: "critical"},
		})
		require.NoError(t, err)

		assert.True(t, res.InApp.Sent)
		assert.False(t, res.Email.Sent)
		assert.False(t, res.Chat.Sent)
	})

	t.Run("recipient outside the directory only gets in app", func(t *testing.T) {
		d := newTestUsecase(t)

		res, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput:  EventInput{Type: "system_alert", Title: "Disk full", Priority: "critical"},
		})
		require.NoError(t, err)

		assert.True(t, res.InApp.Sent)
		assert.False(t, res.Email.Sent)
		assert.False(t, res.Chat.Sent)
	})

	t.Run("digest queue failure is reported", func(t *testing.T) {
		d := newTestUsecase(t)
		d.repo.fail["CreateDigestItem"] = errors.New("disk full")

		res, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput:  EventInput{Type: "task_overdue", Title: "Late", Priority: "low"},
		})
		require.NoError(t, err)

		assert.True(t, res.InApp.Sent)
		assert.Equal(t, entity.EmailResult{Error: "Failed to queue"}, res.Email)
	})

	t.Run("in app failure does not stop external channels", func(t *testing.T) {
		d := newTestUsecase(t)
		d.repo.recipients[7] = alice
		d.repo.fail["CreateRecord"] = errors.New("insert failed")
		d.email.On("SendImmediate", mock.Anything, alice, mock.Anything).Return(nil).Once()
		d.chat.On("SendDirect", mock.Anything, "U07", mock.Anything).Return(entity.ChatLocator{ChannelID: "D07", Ts: "1.2"}, nil).Once()

		res, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput:  EventInput{Type: "task_overdue", Title: "Late", Priority: "critical"},
		})
		require.NoError(t, err)

		assert.False(t, res.InApp.Sent)
		assert.True(t, res.Email.Sent)
		assert.True(t, res.Chat.Sent)
	})

	t.Run("project work is batched for chat", func(t *testing.T) {
		d := newTestUsecase(t)
		d.repo.recipients[7] = alice

		res, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput: EventInput{
				Type:       "task_assigned",
				Title:      "Write copy",
				EntityType: "task",
				EntityID:   "42",
				Metadata:   map[string]any{"projectId": "p1", "projectName": "Apollo", "isAdHocOrSupport": false},
			},
		})
		require.NoError(t, err)

		assert.True(t, res.Chat.Sent)
		require.Len(t, d.repo.batches, 1)
		item := d.repo.batches[0]
		assert.Equal(t, entity.BatchKey{RecipientID: 7, ProjectID: "p1"}, item.Key)
		assert.Equal(t, "Apollo", item.ProjectName)
		assert.Equal(t, "42", item.EntityID)
		assert.Equal(t, testNow.Add(5*time.Minute), item.BatchReadyAt)
	})

	t.Run("preference store failure fails the dispatch", func(t *testing.T) {
		d := newTestUsecase(t)
		d.repo.fail["GetPreference"] = errors.New("connection refused")

		_, err := d.uc.Dispatch(context.Background(), DispatchInput{
			RecipientID: 7,
			EventInput:  EventInput{Type: "task_overdue", Title: "Late"},
		})

		assert.True(t, goerror.HasCode(err, goerror.CodeInternal))
		assert.Empty(t, d.repo.recordsOf(7))
	})

	t.Run("invalid event is rejected", func(t *testing.T) {
		d := newTestUsecase(t)

		tests := []EventInput{
			{Type: "birthday", Title: "x"},
			{Type: "task_overdue"},
			{Type: "task_overdue", Title: "x", Priority: "urgent"},
			{Type: "task_overdue", Title: "x", EntityType: "invoice", EntityID: "1"},
			{Type: "task_overdue", Title: "x", EntityType: "task"},
		}
		for _, in := range tests {
			_, err := d.uc.Dispatch(context.Background(), DispatchInput{RecipientID: 7, EventInput: in})
			assert.True(t, goerror.HasCode(err, goerror.CodeInvalidInput), "%+v", in)
		}
		assert.Empty(t, d.repo.recordsOf(7))
	})
}

func TestUsecase_DispatchMany(t *testing.T) {
	d := newTestUsecase(t)
	d.repo.failPrefFor[8] = errors.New("connection reset")

	out, err := d.uc.DispatchMany(context.Background(), DispatchManyInput{
		RecipientIDs: []int64{7, 8, 7, 9},
		EventInput:   EventInput{Type: "task_status_changed", Title: "Moved"},
	})
	require.NoError(t, err)

	assert.Len(t, out.Results, 2)
	assert.True(t, out.Results[7].InApp.Sent)
	assert.True(t, out.Results[9].InApp.Sent)
	assert.Contains(t, out.Failed, int64(8))
	assert.Len(t, d.repo.recordsOf(7), 1)
	assert.Len(t, d.repo.recordsOf(9), 1)
	assert.Empty(t, d.repo.recordsOf(8))
}
