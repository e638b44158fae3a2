package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
)

// InsertDefaultPreferences stores prefs in one transaction, skipping the
// types that already have a row. It returns how many rows were written.
func (s *DB) InsertDefaultPreferences(ctx context.Context, prefs []entity.Preference, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "InsertDefaultPreferences")
	defer func() { s.endSpan(span, err) }()

	if len(prefs) == 0 {
		return 0, nil
	}

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, s.mapError(err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rbErr)
		}
	}()

	var inserted int64
	for _, p := range prefs {
		tag, execErr := tx.Exec(ctx, `
			INSERT INTO notification_preferences (user_id, type, in_app, email, chat, is_locked, updated_at)
			VALUES ($1, $2, $3, $4, $5, false, $6)
			ON CONFLICT (user_id, type) DO NOTHING`,
			p.UserID, p.Type.String(), p.Flags.InApp, p.Flags.Email, p.Flags.Chat, now,
		)
		if execErr != nil {
			return 0, s.mapError(execErr)
		}
		inserted += tag.RowsAffected()
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, s.mapError(err)
	}

	return inserted, nil
}
