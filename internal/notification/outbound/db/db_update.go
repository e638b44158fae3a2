package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
)

// BumpBundle merges one more event into record id. The update only applies
// while the record is unread and still holds prevCount, otherwise
// goerror.ErrNotFound is returned and the caller starts a new record.
func (s *DB) BumpBundle(ctx context.Context, id int64, prevCount int32, title string, now time.Time) (_ *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "BumpBundle")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		UPDATE notification_records
		SET bundle_count = bundle_count + 1, title = $3, updated_at = $4
		WHERE id = $1 AND bundle_count = $2 AND is_read = false AND deleted_at IS NULL
		RETURNING `+recordColumns,
		id, prevCount, title, now,
	)

	r, err := scanRecord(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return r, nil
}

func (s *DB) MarkEmailDelivered(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkEmailDelivered")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE notification_records SET email_delivered = true, email_delivered_at = $2 WHERE id = $1`,
		id, at,
	)
	return s.mapError(err)
}

func (s *DB) MarkChatDelivered(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkChatDelivered")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE notification_records SET chat_delivered = true, chat_delivered_at = $2 WHERE id = $1`,
		id, at,
	)
	return s.mapError(err)
}

func (s *DB) MarkRecordRead(ctx context.Context, userID, id int64, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkRecordRead")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_records
		SET is_read = true, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		id, userID, now,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) MarkAllRecordsRead(ctx context.Context, userID int64, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "MarkAllRecordsRead")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_records
		SET is_read = true, read_at = $2
		WHERE user_id = $1 AND is_read = false AND deleted_at IS NULL`,
		userID, now,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

// UpsertPreference writes p. Unless force is set, an existing locked row is
// left untouched and false is returned.
func (s *DB) UpsertPreference(ctx context.Context, p entity.Preference, force bool, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UpsertPreference")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		INSERT INTO notification_preferences (user_id, type, in_app, email, chat, is_locked, locked_by, locked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, type) DO UPDATE SET
			in_app = EXCLUDED.in_app,
			email = EXCLUDED.email,
			chat = EXCLUDED.chat,
			is_locked = EXCLUDED.is_locked,
			locked_by = EXCLUDED.locked_by,
			locked_at = EXCLUDED.locked_at,
			updated_at = EXCLUDED.updated_at
		WHERE $10::boolean OR NOT notification_preferences.is_locked`,
		p.UserID, p.Type.String(), p.Flags.InApp, p.Flags.Email, p.Flags.Chat,
		p.IsLocked, p.LockedBy, pgTimestamptz(p.LockedAt), now, force,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

// UnlockPreference clears the lock fields and keeps the channel flags.
func (s *DB) UnlockPreference(ctx context.Context, userID int64, typ entity.EventType, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UnlockPreference")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_preferences
		SET is_locked = false, locked_by = NULL, locked_at = NULL, updated_at = $3
		WHERE user_id = $1 AND type = $2`,
		userID, typ.String(), now,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) MarkDigestItemsProcessed(ctx context.Context, ids []int64, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkDigestItemsProcessed")
	defer func() { s.endSpan(span, err) }()

	if len(ids) == 0 {
		return nil
	}

	_, err = s.conn.Exec(ctx, `
		UPDATE notification_digest_queue SET processed = true, processed_at = $2
		WHERE id = ANY($1) AND processed = false`,
		ids, now,
	)
	return s.mapError(err)
}

func (s *DB) MarkChatBatchItemsProcessed(ctx context.Context, ids []int64, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "MarkChatBatchItemsProcessed")
	defer func() { s.endSpan(span, err) }()

	if len(ids) == 0 {
		return nil
	}

	_, err = s.conn.Exec(ctx, `
		UPDATE notification_chat_batches SET processed = true, processed_at = $2
		WHERE id = ANY($1) AND processed = false`,
		ids, now,
	)
	return s.mapError(err)
}

// UpsertThreadLink keeps the last locator sent for the triple.
func (s *DB) UpsertThreadLink(ctx context.Context, link entity.ThreadLink, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertThreadLink")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_chat_threads (entity_type, entity_id, chat_user_id, channel_id, message_ts, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_type, entity_id, chat_user_id) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			message_ts = EXCLUDED.message_ts,
			updated_at = EXCLUDED.updated_at`,
		link.Entity.Type.String(), link.Entity.ID, link.ChatUserID, link.ChannelID, link.MessageTs, now,
	)
	return s.mapError(err)
}

// UpsertRecipient replaces the directory entry. An empty ChatUserID keeps
// the stored chat identity.
func (s *DB) UpsertRecipient(ctx context.Context, r entity.Recipient, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertRecipient")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_recipients (user_id, email, full_name, chat_user_id, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			chat_user_id = COALESCE(EXCLUDED.chat_user_id, notification_recipients.chat_user_id),
			updated_at = EXCLUDED.updated_at`,
		r.UserID, r.Email, r.FullName, r.ChatUserID, now,
	)
	return s.mapError(err)
}

func (s *DB) SetRecipientChatUserID(ctx context.Context, userID int64, chatUserID string, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "SetRecipientChatUserID")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE notification_recipients SET chat_user_id = NULLIF($2, ''), updated_at = $3 WHERE user_id = $1`,
		userID, chatUserID, now,
	)
	return s.mapError(err)
}

func (s *DB) UpsertIntegration(ctx context.Context, in entity.Integration) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertIntegration")
	defer func() { s.endSpan(span, err) }()

	cfg := map[string]any(in.Config)
	if cfg == nil {
		cfg = map[string]any{}
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_integrations (provider, is_active, config, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			config = EXCLUDED.config,
			updated_at = EXCLUDED.updated_at`,
		in.Provider.String(), in.IsActive, cfg, in.UpdatedAt,
	)
	return s.mapError(err)
}
