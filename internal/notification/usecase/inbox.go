package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
)

const (
	defaultInboxLimit = 20
	maxInboxLimit     = 50
)

type ListInboxInput struct {
	Page       int32 `validate:"omitempty,gte=1"`
	Limit      int32 `validate:"omitempty,gte=1"`
	UnreadOnly bool
}

type ListInboxOutput struct {
	Items []entity.Record
	Page  int32
	Limit int32
	Total int64
}

func (s *Usecase) ListInbox(ctx context.Context, in ListInboxInput) (_ *ListInboxOutput, err error) {
	ctx, span := s.startSpan(ctx, "ListInbox")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = defaultInboxLimit
	}
	if in.Limit > maxInboxLimit {
		in.Limit = maxInboxLimit
	}

	items, err := s.repoDB.ListRecords(ctx, clm.UserID, in.UnreadOnly, in.Limit, (in.Page-1)*in.Limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list records", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	total, err := s.repoDB.CountRecords(ctx, clm.UserID, in.UnreadOnly)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count records", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListInboxOutput{Items: items, Page: in.Page, Limit: in.Limit, Total: total}, nil
}

func (s *Usecase) CountUnread(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountUnread")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return 0, err
	}

	count, err := s.repoDB.CountRecords(ctx, clm.UserID, true)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count unread records", "user_id", clm.UserID, "error", err)
		return 0, goerror.NewServer(err)
	}

	return count, nil
}

type MarkInboxReadInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) MarkInboxRead(ctx context.Context, in MarkInboxReadInput) error {
	ctx, span := s.startSpan(ctx, "MarkInboxRead")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	updated, err := s.repoDB.MarkRecordRead(ctx, clm.UserID, in.ID, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark inbox read", "user_id", clm.UserID, "notification_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !updated {
		return goerror.NewBusiness("inbox notification not found", goerror.CodeNotFound)
	}

	return nil
}

func (s *Usecase) MarkAllInboxRead(ctx context.Context) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "MarkAllInboxRead")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return 0, err
	}

	updated, err := s.repoDB.MarkAllRecordsRead(ctx, clm.UserID, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark all inbox read", "user_id", clm.UserID, "error", err)
		return 0, goerror.NewServer(err)
	}

	return updated, nil
}

type DeleteInboxInput struct {
	ID int64 `validate:"required,gt=0"`
}

func (s *Usecase) DeleteInbox(ctx context.Context, in DeleteInboxInput) error {
	ctx, span := s.startSpan(ctx, "DeleteInbox")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	deleted, err := s.repoDB.SoftDeleteRecord(ctx, clm.UserID, in.ID, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete inbox notification", "user_id", clm.UserID, "notification_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}
	if !deleted {
		return goerror.NewBusiness("inbox notification not found", goerror.CodeNotFound)
	}

	return nil
}
