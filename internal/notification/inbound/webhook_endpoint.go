package inbound

import (
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/notifyd/internal/notification/usecase"
	"github.com/shandysiswandi/notifyd/internal/pkg/chat"
	"github.com/shandysiswandi/notifyd/internal/pkg/router"
)

// ChatEvents receives the event subscription of the chat platform. The body
// is read raw because the signature covers its exact bytes, and a URL
// verification challenge is echoed back as plain text.
// @Summary Chat events webhook
// @Description Receives chat platform events. Replies in notification threads are published as chat reply events.
// @Tags Webhook
// @Accept json
// @Produce plain
// @Param X-Slack-Request-Timestamp header string true "Request timestamp"
// @Param X-Slack-Signature header string true "Request signature"
// @Success 200 {string} string "Challenge or empty body"
// @Failure 401 {object} router.errorResponse "Invalid request signature"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/webhooks/chat/events [post]
func (h *HTTPEndpoint) ChatEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := router.ReadBody(r)
	if err != nil {
		router.WriteError(w, err)
		return
	}

	out, err := h.uc.HandleChatEvent(ctx, usecase.ChatEventInput{
		Body:      body,
		Timestamp: r.Header.Get(chat.HeaderRequestTimestamp),
		Signature: r.Header.Get(chat.HeaderSignature),
	})
	if err != nil {
		if rec, ok := w.(interface{ SetError(error) }); ok {
			rec.SetError(err)
		}
		router.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if out.Challenge == "" {
		return
	}
	if _, err := w.Write([]byte(out.Challenge)); err != nil {
		slog.ErrorContext(ctx, "failed to send challenge", "error", err)
	}
}
