package inbound

import (
	"context"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/notification/usecase"
)

type ucConsumer interface {
	ConsumeDispatch(ctx context.Context, in usecase.DispatchManyInput) error
	ConsumeRecipientSync(ctx context.Context, in usecase.RecipientSyncInput) error
}

type ucStream interface {
	StreamNotifications(ctx context.Context, userID int64) <-chan usecase.StreamEvent
}

type ucJob interface {
	RunDigestJob(ctx context.Context) (*usecase.DigestJobOutput, error)
	RunChatBatchJob(ctx context.Context) (*usecase.ChatBatchJobOutput, error)
}

type uc interface {
	ucConsumer
	ucStream
	ucJob

	ListInbox(ctx context.Context, in usecase.ListInboxInput) (*usecase.ListInboxOutput, error)
	CountUnread(ctx context.Context) (int64, error)
	MarkInboxRead(ctx context.Context, in usecase.MarkInboxReadInput) error
	MarkAllInboxRead(ctx context.Context) (int64, error)
	DeleteInbox(ctx context.Context, in usecase.DeleteInboxInput) error

	ListPreferences(ctx context.Context) ([]entity.PreferenceRow, error)
	SetPreferences(ctx context.Context, in usecase.SetPreferencesInput) (*usecase.SetPreferencesOutput, error)
	InitializeDefaultPreferences(ctx context.Context) (*usecase.InitializeDefaultPreferencesOutput, error)
	AdminListPreferences(ctx context.Context, in usecase.AdminListPreferencesInput) ([]entity.PreferenceRow, error)
	AdminSetPreference(ctx context.Context, in usecase.AdminSetPreferenceInput) error
	AdminUnlockPreference(ctx context.Context, in usecase.AdminUnlockPreferenceInput) error

	Dispatch(ctx context.Context, in usecase.DispatchInput) (*entity.DispatchResult, error)
	DispatchMany(ctx context.Context, in usecase.DispatchManyInput) (*usecase.DispatchManyOutput, error)

	UpsertIntegration(ctx context.Context, in usecase.UpsertIntegrationInput) error
	ReconfigureChannels(ctx context.Context) error
	TestChatConnection(ctx context.Context) (*entity.ChatConnection, error)

	HandleChatEvent(ctx context.Context, in usecase.ChatEventInput) (*usecase.ChatEventOutput, error)
}
