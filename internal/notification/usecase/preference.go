package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
)

// ResolvePreference returns the stored flags of (userID, typ), or the type
// defaults when nothing is stored. Store failures are returned, never
// mistaken for "all disabled".
func (s *Usecase) ResolvePreference(ctx context.Context, userID int64, typ entity.EventType) (_ entity.ResolvedPreference, err error) {
	ctx, span := s.startSpan(ctx, "ResolvePreference")
	defer span.End()

	p, err := s.repoDB.GetPreference(ctx, userID, typ)
	if errors.Is(err, goerror.ErrNotFound) {
		return entity.ResolvedPreference{Type: typ, Flags: typ.Defaults()}, nil
	}
	if err != nil {
		return entity.ResolvedPreference{}, err
	}

	return entity.ResolvedPreference{Type: typ, Flags: p.Flags, Locked: p.IsLocked, Stored: true}, nil
}

type lockStamp struct {
	adminID int64
}

// setChannel switches one channel of a preference. A locked preference is
// only writable with force, and the lock itself is kept unless stamp sets a
// new one.
func (s *Usecase) setChannel(ctx context.Context, userID int64, change entity.ChannelChange, force bool, stamp *lockStamp) error {
	existing, err := s.repoDB.GetPreference(ctx, userID, change.Type)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get preference", "user_id", userID, "type", change.Type.String(), "error", err)
		return err
	}

	if existing != nil && existing.IsLocked && !force {
		return entity.ErrPreferenceLocked
	}

	now := s.clock.Now()
	p := entity.Preference{
		UserID: userID,
		Type:   change.Type,
		Flags:  change.Type.Defaults(),
	}
	if existing != nil {
		p.Flags = existing.Flags
		p.IsLocked = existing.IsLocked
		p.LockedBy = existing.LockedBy
		p.LockedAt = existing.LockedAt
	}
	p.Flags = p.Flags.With(change.Channel, change.Enabled)

	if stamp != nil {
		p.IsLocked = true
		p.LockedBy = &stamp.adminID
		p.LockedAt = &now
	}

	written, err := s.repoDB.UpsertPreference(ctx, p, force, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert preference", "user_id", userID, "type", change.Type.String(), "error", err)
		return err
	}
	if !written {
		// locked by an administrator between the read and the write
		return entity.ErrPreferenceLocked
	}

	return nil
}

type PreferenceChangeInput struct {
	Type    string `json:"type" validate:"required,event_type"`
	Channel string `json:"channel" validate:"required,oneof=in_app email chat"`
	Enabled bool   `json:"enabled"`
}

type SetPreferencesInput struct {
	Changes []PreferenceChangeInput `validate:"required,min=1,dive"`
}

type SetPreferencesOutput struct {
	Updated int
	Errors  []string
}

// SetPreferences applies every change on behalf of the caller and reports
// the rejected ones instead of stopping at the first.
func (s *Usecase) SetPreferences(ctx context.Context, in SetPreferencesInput) (_ *SetPreferencesOutput, err error) {
	ctx, span := s.startSpan(ctx, "SetPreferences")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	out := &SetPreferencesOutput{Errors: []string{}}
	for _, c := range in.Changes {
		change := entity.ChannelChange{
			Type:    entity.EventType(c.Type),
			Channel: entity.ChannelFromString(c.Channel),
			Enabled: c.Enabled,
		}

		err := s.setChannel(ctx, clm.UserID, change, false, nil)
		switch {
		case err == nil:
			out.Updated++
		case errors.Is(err, entity.ErrPreferenceLocked):
			out.Errors = append(out.Errors, c.Type+"."+c.Channel+": "+entity.LockReason)
		default:
			out.Errors = append(out.Errors, c.Type+"."+c.Channel+": failed to update preference")
		}
	}

	return out, nil
}

type AdminSetPreferenceInput struct {
	UserID  int64  `validate:"required,gt=0"`
	Type    string `validate:"required,event_type"`
	Channel string `validate:"required,oneof=in_app email chat"`
	Enabled bool
}

// AdminSetPreference forces the channel and locks the preference in the
// name of the calling administrator.
func (s *Usecase) AdminSetPreference(ctx context.Context, in AdminSetPreferenceInput) error {
	ctx, span := s.startSpan(ctx, "AdminSetPreference")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	change := entity.ChannelChange{
		Type:    entity.EventType(in.Type),
		Channel: entity.ChannelFromString(in.Channel),
		Enabled: in.Enabled,
	}
	if err := s.setChannel(ctx, in.UserID, change, true, &lockStamp{adminID: clm.UserID}); err != nil {
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "preference locked by admin", "user_id", in.UserID, "type", in.Type, "channel", in.Channel, "admin_id", clm.UserID)

	return nil
}

type AdminUnlockPreferenceInput struct {
	UserID int64  `validate:"required,gt=0"`
	Type   string `validate:"required,event_type"`
}

func (s *Usecase) AdminUnlockPreference(ctx context.Context, in AdminUnlockPreferenceInput) error {
	ctx, span := s.startSpan(ctx, "AdminUnlockPreference")
	defer span.End()

	if _, err := s.requireAuth(ctx); err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	updated, err := s.repoDB.UnlockPreference(ctx, in.UserID, entity.EventType(in.Type), s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo unlock preference", "user_id", in.UserID, "type", in.Type, "error", err)
		return goerror.NewServer(err)
	}
	if !updated {
		return goerror.NewBusiness("preference not found", goerror.CodeNotFound)
	}

	return nil
}

type InitializeDefaultPreferencesOutput struct {
	Created int64
}

// InitializeDefaultPreferences stores the default triple for every type the
// caller has no row for yet.
func (s *Usecase) InitializeDefaultPreferences(ctx context.Context) (_ *InitializeDefaultPreferencesOutput, err error) {
	ctx, span := s.startSpan(ctx, "InitializeDefaultPreferences")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	prefs := lo.Map(entity.EventTypes(), func(t entity.EventType, _ int) entity.Preference {
		return entity.Preference{UserID: clm.UserID, Type: t, Flags: t.Defaults()}
	})

	created, err := s.repoDB.InsertDefaultPreferences(ctx, prefs, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo insert default preferences", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &InitializeDefaultPreferencesOutput{Created: created}, nil
}

// ListPreferences returns one resolved row per event type for the caller.
func (s *Usecase) ListPreferences(ctx context.Context) (_ []entity.PreferenceRow, err error) {
	ctx, span := s.startSpan(ctx, "ListPreferences")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	return s.listPreferences(ctx, clm.UserID)
}

type AdminListPreferencesInput struct {
	UserID int64 `validate:"required,gt=0"`
}

// AdminListPreferences returns the preference matrix of any user, locks
// included, for the administrator screens.
func (s *Usecase) AdminListPreferences(ctx context.Context, in AdminListPreferencesInput) (_ []entity.PreferenceRow, err error) {
	ctx, span := s.startSpan(ctx, "AdminListPreferences")
	defer span.End()

	if _, err := s.requireAuth(ctx); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.listPreferences(ctx, in.UserID)
}

func (s *Usecase) listPreferences(ctx context.Context, userID int64) ([]entity.PreferenceRow, error) {
	stored, err := s.repoDB.ListPreferences(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list preferences", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	byType := lo.KeyBy(stored, func(p entity.Preference) entity.EventType { return p.Type })

	chatConnected := false
	rcpt, err := s.repoDB.GetRecipient(ctx, userID)
	switch {
	case err == nil:
		chatConnected = rcpt.ChatUserID != ""
	case !errors.Is(err, goerror.ErrNotFound):
		slog.WarnContext(ctx, "failed to repo get recipient", "user_id", userID, "error", err)
	}

	rows := make([]entity.PreferenceRow, 0, len(entity.EventTypes()))
	for _, t := range entity.EventTypes() {
		row := entity.PreferenceRow{
			Type:          t,
			Label:         t.Label(),
			Flags:         t.Defaults(),
			ChatConnected: chatConnected,
		}
		if p, ok := byType[t]; ok {
			row.Flags = p.Flags
			row.Locked = p.IsLocked
			row.LockedBy = p.LockedBy
			row.LockedAt = p.LockedAt
		}
		rows = append(rows, row)
	}

	return rows, nil
}
