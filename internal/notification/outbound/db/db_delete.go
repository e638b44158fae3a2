package db

import (
	"context"
	"time"
)

func (s *DB) SoftDeleteRecord(ctx context.Context, userID, id int64, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "SoftDeleteRecord")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_records SET deleted_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`,
		id, userID, now,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}

func (s *DB) DeleteProcessedDigestItemsBefore(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteProcessedDigestItemsBefore")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		DELETE FROM notification_digest_queue WHERE processed = true AND processed_at < $1`,
		before,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

func (s *DB) DeleteProcessedChatBatchItemsBefore(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteProcessedChatBatchItemsBefore")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		DELETE FROM notification_chat_batches WHERE processed = true AND processed_at < $1`,
		before,
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
