package usecase

import (
	"context"

	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/shandysiswandi/notifyd/internal/pkg/jwt"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// requireAuth returns the caller's claims and tags the current span with the
// recipient id.
func (s *Usecase) requireAuth(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("notification.recipient_id", clm.UserID))

	return clm, nil
}
