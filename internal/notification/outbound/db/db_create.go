package db

import (
	"context"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
)

func (s *DB) CreateRecord(ctx context.Context, r entity.Record) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRecord")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_records (
			id, user_id, type, title, message, entity_type, entity_id, bundle_key, bundle_count, priority,
			is_read, email_delivered, chat_delivered, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false, false, false, $11, $11)`,
		r.ID, r.UserID, r.Type.String(), r.Title, r.Message, r.Entity.Type.String(), r.Entity.ID,
		r.BundleKey, r.BundleCount, r.Priority.String(), r.CreatedAt,
	)
	return s.mapError(err)
}

func (s *DB) CreateDigestItem(ctx context.Context, item entity.DigestItem) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDigestItem")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_digest_queue (
			id, user_id, type, title, message, entity_type, entity_id, created_at, processed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)`,
		item.ID, item.UserID, item.Type.String(), item.Title, item.Message,
		item.Entity.Type.String(), item.Entity.ID, item.CreatedAt,
	)
	return s.mapError(err)
}

func (s *DB) CreateChatBatchItem(ctx context.Context, item entity.ChatBatchItem) (err error) {
	ctx, span := s.startSpan(ctx, "CreateChatBatchItem")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_chat_batches (
			id, user_id, project_id, project_name, entity_id, type, title, message, batch_ready_at, processed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10)`,
		item.ID, item.Key.RecipientID, item.Key.ProjectID, item.ProjectName, item.EntityID,
		item.Type.String(), item.Title, item.Message, item.BatchReadyAt, item.CreatedAt,
	)
	return s.mapError(err)
}
