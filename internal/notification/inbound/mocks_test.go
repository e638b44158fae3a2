package inbound

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/notification/usecase"
)

type mockUC struct {
	mock.Mock
}

func ret[T any](args mock.Arguments, i int) T {
	v, _ := args.Get(i).(T)
	return v
}

func (m *mockUC) ConsumeDispatch(ctx context.Context, in usecase.DispatchManyInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) ConsumeRecipientSync(ctx context.Context, in usecase.RecipientSyncInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) StreamNotifications(ctx context.Context, userID int64) <-chan usecase.StreamEvent {
	args := m.Called(ctx, userID)
	return ret[chan usecase.StreamEvent](args, 0)
}

func (m *mockUC) RunDigestJob(ctx context.Context) (*usecase.DigestJobOutput, error) {
	args := m.Called(ctx)
	return ret[*usecase.DigestJobOutput](args, 0), args.Error(1)
}

func (m *mockUC) RunChatBatchJob(ctx context.Context) (*usecase.ChatBatchJobOutput, error) {
	args := m.Called(ctx)
	return ret[*usecase.ChatBatchJobOutput](args, 0), args.Error(1)
}

func (m *mockUC) ListInbox(ctx context.Context, in usecase.ListInboxInput) (*usecase.ListInboxOutput, error) {
	args := m.Called(ctx, in)
	return ret[*usecase.ListInboxOutput](args, 0), args.Error(1)
}

func (m *mockUC) CountUnread(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return ret[int64](args, 0), args.Error(1)
}

func (m *mockUC) MarkInboxRead(ctx context.Context, in usecase.MarkInboxReadInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) MarkAllInboxRead(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return ret[int64](args, 0), args.Error(1)
}

func (m *mockUC) DeleteInbox(ctx context.Context, in usecase.DeleteInboxInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) ListPreferences(ctx context.Context) ([]entity.PreferenceRow, error) {
	args := m.Called(ctx)
	return ret[[]entity.PreferenceRow](args, 0), args.Error(1)
}

func (m *mockUC) SetPreferences(ctx context.Context, in usecase.SetPreferencesInput) (*usecase.SetPreferencesOutput, error) {
	args := m.Called(ctx, in)
	return ret[*usecase.SetPreferencesOutput](args, 0), args.Error(1)
}

func (m *mockUC) InitializeDefaultPreferences(ctx context.Context) (*usecase.InitializeDefaultPreferencesOutput, error) {
	args := m.Called(ctx)
	return ret[*usecase.InitializeDefaultPreferencesOutput](args, 0), args.Error(1)
}

func (m *mockUC) AdminListPreferences(ctx context.Context, in usecase.AdminListPreferencesInput) ([]entity.PreferenceRow, error) {
	args := m.Called(ctx, in)
	return ret[[]entity.PreferenceRow](args, 0), args.Error(1)
}

func (m *mockUC) AdminSetPreference(ctx context.Context, in usecase.AdminSetPreferenceInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) AdminUnlockPreference(ctx context.Context, in usecase.AdminUnlockPreferenceInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) Dispatch(ctx context.Context, in usecase.DispatchInput) (*entity.DispatchResult, error) {
	args := m.Called(ctx, in)
	return ret[*entity.DispatchResult](args, 0), args.Error(1)
}

func (m *mockUC) DispatchMany(ctx context.Context, in usecase.DispatchManyInput) (*usecase.DispatchManyOutput, error) {
	args := m.Called(ctx, in)
	return ret[*usecase.DispatchManyOutput](args, 0), args.Error(1)
}

func (m *mockUC) UpsertIntegration(ctx context.Context, in usecase.UpsertIntegrationInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockUC) ReconfigureChannels(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUC) TestChatConnection(ctx context.Context) (*entity.ChatConnection, error) {
	args := m.Called(ctx)
	return ret[*entity.ChatConnection](args, 0), args.Error(1)
}

func (m *mockUC) HandleChatEvent(ctx context.Context, in usecase.ChatEventInput) (*usecase.ChatEventOutput, error) {
	args := m.Called(ctx, in)
	return ret[*usecase.ChatEventOutput](args, 0), args.Error(1)
}
