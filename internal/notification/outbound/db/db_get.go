package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
)

func (s *DB) GetPreference(ctx context.Context, userID int64, typ entity.EventType) (_ *entity.Preference, err error) {
	ctx, span := s.startSpan(ctx, "GetPreference")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT user_id, type, in_app, email, chat, is_locked, locked_by, locked_at
		FROM notification_preferences
		WHERE user_id = $1 AND type = $2`,
		userID, typ.String(),
	)

	p, err := scanPreference(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return p, nil
}

func (s *DB) ListPreferences(ctx context.Context, userID int64) (_ []entity.Preference, err error) {
	ctx, span := s.startSpan(ctx, "ListPreferences")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT user_id, type, in_app, email, chat, is_locked, locked_by, locked_at
		FROM notification_preferences
		WHERE user_id = $1
		ORDER BY type`,
		userID,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.Preference, 0)
	for rows.Next() {
		p, scanErr := scanPreference(rows)
		if scanErr != nil {
			return nil, s.mapError(scanErr)
		}
		items = append(items, *p)
	}

	return items, s.mapError(rows.Err())
}

func scanPreference(row pgx.Row) (*entity.Preference, error) {
	var (
		p        entity.Preference
		typ      string
		lockedAt pgtype.Timestamptz
	)
	err := row.Scan(&p.UserID, &typ, &p.Flags.InApp, &p.Flags.Email, &p.Flags.Chat, &p.IsLocked, &p.LockedBy, &lockedAt)
	if err != nil {
		return nil, err
	}

	p.Type = entity.EventType(typ)
	p.LockedAt = timePtrFromPgTimestamptz(lockedAt)

	return &p, nil
}

// FindLatestUnreadByBundleKey returns the newest unread record of the bundle
// that was created or bumped at or after since.
func (s *DB) FindLatestUnreadByBundleKey(ctx context.Context, key entity.BundleKey, since time.Time) (_ *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "FindLatestUnreadByBundleKey")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT `+recordColumns+`
		FROM notification_records
		WHERE user_id = $1 AND bundle_key = $2 AND is_read = false AND deleted_at IS NULL AND updated_at >= $3
		ORDER BY updated_at DESC
		LIMIT 1`,
		key.RecipientID, key.Key, since,
	)

	r, err := scanRecord(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return r, nil
}

func (s *DB) ListRecords(ctx context.Context, userID int64, unreadOnly bool, limit, offset int32) (_ []entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "ListRecords")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT `+recordColumns+`
		FROM notification_records
		WHERE user_id = $1 AND deleted_at IS NULL AND (NOT $2::boolean OR is_read = false)
		ORDER BY updated_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		userID, unreadOnly, limit, offset,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.Record, 0, limit)
	for rows.Next() {
		r, scanErr := scanRecord(rows)
		if scanErr != nil {
			return nil, s.mapError(scanErr)
		}
		items = append(items, *r)
	}

	return items, s.mapError(rows.Err())
}

func (s *DB) CountRecords(ctx context.Context, userID int64, unreadOnly bool) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountRecords")
	defer func() { s.endSpan(span, err) }()

	var count int64
	err = s.conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM notification_records
		WHERE user_id = $1 AND deleted_at IS NULL AND (NOT $2::boolean OR is_read = false)`,
		userID, unreadOnly,
	).Scan(&count)

	return count, s.mapError(err)
}

func (s *DB) ListPendingDigestItems(ctx context.Context) (_ []entity.DigestItem, err error) {
	ctx, span := s.startSpan(ctx, "ListPendingDigestItems")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT id, user_id, type, title, message, entity_type, entity_id, created_at
		FROM notification_digest_queue
		WHERE processed = false
		ORDER BY user_id, created_at`,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.DigestItem, 0)
	for rows.Next() {
		var (
			item            entity.DigestItem
			typ, entityType string
			createdAt       pgtype.Timestamptz
		)
		if err = rows.Scan(&item.ID, &item.UserID, &typ, &item.Title, &item.Message, &entityType, &item.Entity.ID, &createdAt); err != nil {
			return nil, s.mapError(err)
		}
		item.Type = entity.EventType(typ)
		item.Entity.Type = entity.EntityType(entityType)
		item.CreatedAt = timeFromPgTimestamptz(createdAt)
		items = append(items, item)
	}

	return items, s.mapError(rows.Err())
}

// FindOpenBatchReadyAt returns the ready time shared by the unprocessed items
// of key, or goerror.ErrNotFound when no batch is open.
func (s *DB) FindOpenBatchReadyAt(ctx context.Context, key entity.BatchKey) (_ time.Time, err error) {
	ctx, span := s.startSpan(ctx, "FindOpenBatchReadyAt")
	defer func() { s.endSpan(span, err) }()

	var readyAt pgtype.Timestamptz
	err = s.conn.QueryRow(ctx, `
		SELECT batch_ready_at
		FROM notification_chat_batches
		WHERE user_id = $1 AND project_id = $2 AND processed = false
		ORDER BY created_at ASC
		LIMIT 1`,
		key.RecipientID, key.ProjectID,
	).Scan(&readyAt)
	if err != nil {
		return time.Time{}, s.mapError(err)
	}

	return timeFromPgTimestamptz(readyAt), nil
}

func (s *DB) ListReadyChatBatchItems(ctx context.Context, now time.Time) (_ []entity.ChatBatchItem, err error) {
	ctx, span := s.startSpan(ctx, "ListReadyChatBatchItems")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT id, user_id, project_id, project_name, entity_id, type, title, message, batch_ready_at, created_at
		FROM notification_chat_batches
		WHERE processed = false AND batch_ready_at <= $1
		ORDER BY user_id, project_id, created_at`,
		now,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.ChatBatchItem, 0)
	for rows.Next() {
		var (
			item               entity.ChatBatchItem
			typ                string
			readyAt, createdAt pgtype.Timestamptz
		)
		err = rows.Scan(
			&item.ID, &item.Key.RecipientID, &item.Key.ProjectID, &item.ProjectName, &item.EntityID,
			&typ, &item.Title, &item.Message, &readyAt, &createdAt,
		)
		if err != nil {
			return nil, s.mapError(err)
		}
		item.Type = entity.EventType(typ)
		item.BatchReadyAt = timeFromPgTimestamptz(readyAt)
		item.CreatedAt = timeFromPgTimestamptz(createdAt)
		items = append(items, item)
	}

	return items, s.mapError(rows.Err())
}

func (s *DB) FindThreadLink(ctx context.Context, channelID, messageTs string) (_ *entity.ThreadLink, err error) {
	ctx, span := s.startSpan(ctx, "FindThreadLink")
	defer func() { s.endSpan(span, err) }()

	var (
		link       entity.ThreadLink
		entityType string
	)
	err = s.conn.QueryRow(ctx, `
		SELECT entity_type, entity_id, chat_user_id, channel_id, message_ts
		FROM notification_chat_threads
		WHERE channel_id = $1 AND message_ts = $2
		ORDER BY updated_at DESC
		LIMIT 1`,
		channelID, messageTs,
	).Scan(&entityType, &link.Entity.ID, &link.ChatUserID, &link.ChannelID, &link.MessageTs)
	if err != nil {
		return nil, s.mapError(err)
	}
	link.Entity.Type = entity.EntityType(entityType)

	return &link, nil
}

func (s *DB) GetRecipient(ctx context.Context, userID int64) (_ *entity.Recipient, err error) {
	ctx, span := s.startSpan(ctx, "GetRecipient")
	defer func() { s.endSpan(span, err) }()

	var r entity.Recipient
	err = s.conn.QueryRow(ctx, `
		SELECT user_id, email, full_name, COALESCE(chat_user_id, '')
		FROM notification_recipients
		WHERE user_id = $1`,
		userID,
	).Scan(&r.UserID, &r.Email, &r.FullName, &r.ChatUserID)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &r, nil
}

func (s *DB) GetRecipientByChatUserID(ctx context.Context, chatUserID string) (_ *entity.Recipient, err error) {
	ctx, span := s.startSpan(ctx, "GetRecipientByChatUserID")
	defer func() { s.endSpan(span, err) }()

	var r entity.Recipient
	err = s.conn.QueryRow(ctx, `
		SELECT user_id, email, full_name, COALESCE(chat_user_id, '')
		FROM notification_recipients
		WHERE chat_user_id = $1`,
		chatUserID,
	).Scan(&r.UserID, &r.Email, &r.FullName, &r.ChatUserID)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &r, nil
}

func (s *DB) GetIntegration(ctx context.Context, provider entity.IntegrationProvider) (_ *entity.Integration, err error) {
	ctx, span := s.startSpan(ctx, "GetIntegration")
	defer func() { s.endSpan(span, err) }()

	var (
		in        entity.Integration
		name      string
		cfg       map[string]any
		updatedAt pgtype.Timestamptz
	)
	err = s.conn.QueryRow(ctx, `
		SELECT provider, is_active, config, updated_at
		FROM notification_integrations
		WHERE provider = $1`,
		provider.String(),
	).Scan(&name, &in.IsActive, &cfg, &updatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	in.Provider = entity.IntegrationProvider(name)
	in.Config = cfg
	in.UpdatedAt = timeFromPgTimestamptz(updatedAt)

	return &in, nil
}
