package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		ins:  ins,
	}
}

// - 23505 unique violation → goerror.ErrConflict
// - no rows → goerror.ErrNotFound
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const recordColumns = `id, user_id, type, title, message, entity_type, entity_id, bundle_key, bundle_count, priority,
	is_read, read_at, email_delivered, email_delivered_at, chat_delivered, chat_delivered_at, created_at, updated_at`

func scanRecord(row pgx.Row) (*entity.Record, error) {
	var (
		r                         entity.Record
		typ, entityType, priority string
		readAt, emailAt, chatAt   pgtype.Timestamptz
		createdAt, updatedAt      pgtype.Timestamptz
	)
	err := row.Scan(
		&r.ID, &r.UserID, &typ, &r.Title, &r.Message, &entityType, &r.Entity.ID, &r.BundleKey, &r.BundleCount, &priority,
		&r.IsRead, &readAt, &r.EmailDelivered, &emailAt, &r.ChatDelivered, &chatAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Type = entity.EventType(typ)
	r.Entity.Type = entity.EntityType(entityType)
	r.Priority = entity.Priority(priority)
	r.ReadAt = timePtrFromPgTimestamptz(readAt)
	r.EmailDeliveredAt = timePtrFromPgTimestamptz(emailAt)
	r.ChatDeliveredAt = timePtrFromPgTimestamptz(chatAt)
	r.CreatedAt = timeFromPgTimestamptz(createdAt)
	r.UpdatedAt = timeFromPgTimestamptz(updatedAt)

	return &r, nil
}

func timePtrFromPgTimestamptz(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}

	tt := t.Time
	return &tt
}

func timeFromPgTimestamptz(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}

	return t.Time
}

func pgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}
