package inbound

import (
	"strconv"

	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/notification/usecase"
	"github.com/shandysiswandi/notifyd/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// ListInbox returns the in-app notifications of the caller.
// @Summary List inbox
// @Description Returns in-app notifications of the authenticated user, newest activity first.
// @Tags Inbox
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Param limit query int false "Page size, at most 50"
// @Param unread query bool false "Only unread notifications"
// @Success 200 {object} router.successResponse{data=NotificationsResponse} "Notification list"
// @Failure 400 {object} router.errorResponse "Invalid query parameters"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox [get]
func (h *HTTPEndpoint) ListInbox(r *router.Request) (any, error) {
	page, err := r.GetQueryInt32("page")
	if err != nil {
		return nil, err
	}
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}
	unread, err := r.GetQueryBool("unread")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.ListInbox(r.Context(), usecase.ListInboxInput{
		Page:       page,
		Limit:      limit,
		UnreadOnly: unread,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]NotificationResponse, 0, len(out.Items))
	for _, item := range out.Items {
		resp = append(resp, toNotificationResponse(item))
	}

	return NotificationsResponse{
		Notifications: resp,
		page:          out.Page,
		limit:         out.Limit,
		total:         out.Total,
	}, nil
}

// CountUnread returns how many notifications the caller has not read.
// @Summary Count unread
// @Tags Inbox
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=UnreadCountResponse} "Unread count"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox/unread-count [get]
func (h *HTTPEndpoint) CountUnread(r *router.Request) (any, error) {
	count, err := h.uc.CountUnread(r.Context())
	if err != nil {
		return nil, err
	}

	return UnreadCountResponse{Count: count}, nil
}

// MarkInboxRead marks a notification as read.
// @Summary Mark inbox read
// @Description Marks an inbox notification as read. A read notification no longer absorbs bundled events.
// @Tags Inbox
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid notification id"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox/{id}/read [patch]
func (h *HTTPEndpoint) MarkInboxRead(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.MarkInboxRead(r.Context(), usecase.MarkInboxReadInput{ID: id})
}

// MarkAllInboxRead marks all notifications as read.
// @Summary Mark all inbox read
// @Tags Inbox
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=MarkAllReadResponse} "Number of updated notifications"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox/read-all [post]
func (h *HTTPEndpoint) MarkAllInboxRead(r *router.Request) (any, error) {
	n, err := h.uc.MarkAllInboxRead(r.Context())
	if err != nil {
		return nil, err
	}

	return MarkAllReadResponse{Updated: n}, nil
}

// DeleteInbox removes a notification.
// @Summary Delete inbox
// @Description Soft deletes an inbox notification for the authenticated user.
// @Tags Inbox
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid notification id"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 404 {object} router.errorResponse "Notification not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/inbox/{id} [delete]
func (h *HTTPEndpoint) DeleteInbox(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.DeleteInbox(r.Context(), usecase.DeleteInboxInput{ID: id})
}

// ListPreferences returns the preference matrix of the caller.
// @Summary List preferences
// @Description Returns one row per notification type with the effective channel switches and lock state.
// @Tags Preference
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=PreferencesResponse} "Preference matrix"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/preferences [get]
func (h *HTTPEndpoint) ListPreferences(r *router.Request) (any, error) {
	rows, err := h.uc.ListPreferences(r.Context())
	if err != nil {
		return nil, err
	}

	return toPreferencesResponse(rows), nil
}

// AdminListPreferences returns the preference matrix of any user.
// @Summary List user preferences
// @Description Returns the preference matrix of user_id with lock owners, as the user would see it.
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {object} router.successResponse{data=PreferencesResponse} "Preference matrix"
// @Failure 400 {object} router.errorResponse "Invalid request"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/admin/preferences/{user_id} [get]
func (h *HTTPEndpoint) AdminListPreferences(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("user_id")
	if err != nil {
		return nil, err
	}

	rows, err := h.uc.AdminListPreferences(r.Context(), usecase.AdminListPreferencesInput{UserID: userID})
	if err != nil {
		return nil, err
	}

	return toPreferencesResponse(rows), nil
}

func toPreferencesResponse(rows []entity.PreferenceRow) PreferencesResponse {
	resp := make([]PreferenceResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, PreferenceResponse{
			Type:          row.Type.String(),
			Label:         row.Label,
			InApp:         row.Flags.InApp,
			Email:         row.Flags.Email,
			Chat:          row.Flags.Chat,
			IsLocked:      row.Locked,
			LockedBy:      row.LockedBy,
			LockedAt:      row.LockedAt,
			ChatConnected: row.ChatConnected,
		})
	}

	return PreferencesResponse{Preferences: resp}
}

// SetPreferences applies a list of channel switches.
// @Summary Update preferences
// @Description Applies every change it can and lists the rejected ones, e.g. changes to locked preferences.
// @Tags Preference
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body SetPreferencesRequest true "Preference changes"
// @Success 200 {object} router.successResponse{data=SetPreferencesResponse} "Update report"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/preferences [put]
func (h *HTTPEndpoint) SetPreferences(r *router.Request) (any, error) {
	var req SetPreferencesRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	changes := make([]usecase.PreferenceChangeInput, 0, len(req.Changes))
	for _, c := range req.Changes {
		changes = append(changes, usecase.PreferenceChangeInput{
			Type:    c.Type,
			Channel: c.Channel,
			Enabled: c.Enabled,
		})
	}

	out, err := h.uc.SetPreferences(r.Context(), usecase.SetPreferencesInput{Changes: changes})
	if err != nil {
		return nil, err
	}

	errs := out.Errors
	if errs == nil {
		errs = []string{}
	}

	return SetPreferencesResponse{Updated: out.Updated, Errors: errs}, nil
}

// InitializeDefaultPreferences stores the default switches for every type
// the caller has not configured yet.
// @Summary Initialize preferences
// @Tags Preference
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=InitializePreferencesResponse} "Number of created rows"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/preferences/initialize [post]
func (h *HTTPEndpoint) InitializeDefaultPreferences(r *router.Request) (any, error) {
	out, err := h.uc.InitializeDefaultPreferences(r.Context())
	if err != nil {
		return nil, err
	}

	return InitializePreferencesResponse{Created: out.Created}, nil
}

// AdminSetPreference forces and locks a channel of another user.
// @Summary Lock preference
// @Description Sets a channel of a user's preference and locks it against changes by that user.
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Param user_id path int true "User ID"
// @Param request body AdminSetPreferenceRequest true "Preference change"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/admin/preferences/{user_id} [put]
func (h *HTTPEndpoint) AdminSetPreference(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("user_id")
	if err != nil {
		return nil, err
	}

	var req AdminSetPreferenceRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.AdminSetPreference(r.Context(), usecase.AdminSetPreferenceInput{
		UserID:  userID,
		Type:    req.Type,
		Channel: req.Channel,
		Enabled: req.Enabled,
	})
}

// AdminUnlockPreference removes the lock and keeps the channel switches.
// @Summary Unlock preference
// @Tags Admin
// @Security BearerAuth
// @Param user_id path int true "User ID"
// @Param type path string true "Notification type"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "Preference not found"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/admin/preferences/{user_id}/{type}/lock [delete]
func (h *HTTPEndpoint) AdminUnlockPreference(r *router.Request) (any, error) {
	userID, err := r.GetParamInt64("user_id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.AdminUnlockPreference(r.Context(), usecase.AdminUnlockPreferenceInput{
		UserID: userID,
		Type:   r.GetParam("type"),
	})
}

// AdminDispatch delivers an event on behalf of another module.
// @Summary Dispatch notification
// @Description Delivers one event to recipient_id, or to every id in recipient_ids, and reports the outcome per channel.
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body DispatchRequest true "Event"
// @Success 200 {object} router.successResponse{data=DispatchResultResponse} "Single recipient result"
// @Success 200 {object} router.successResponse{data=DispatchManyResponse} "Results keyed by recipient"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/admin/dispatch [post]
func (h *HTTPEndpoint) AdminDispatch(r *router.Request) (any, error) {
	var req DispatchRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	evt := usecase.EventInput{
		Type:       req.Type,
		Title:      req.Title,
		Message:    req.Message,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		BundleKey:  req.BundleKey,
		Priority:   req.Priority,
		Metadata:   req.Metadata,
	}

	if len(req.RecipientIDs) > 0 {
		out, err := h.uc.DispatchMany(r.Context(), usecase.DispatchManyInput{
			RecipientIDs: req.RecipientIDs,
			EventInput:   evt,
		})
		if err != nil {
			return nil, err
		}

		resp := DispatchManyResponse{
			Results: make(map[string]DispatchResultResponse, len(out.Results)),
			Failed:  make(map[string]string, len(out.Failed)),
		}
		for id, res := range out.Results {
			resp.Results[strconv.FormatInt(id, 10)] = toDispatchResultResponse(res)
		}
		for id, reason := range out.Failed {
			resp.Failed[strconv.FormatInt(id, 10)] = reason
		}
		return resp, nil
	}

	res, err := h.uc.Dispatch(r.Context(), usecase.DispatchInput{
		RecipientID: req.RecipientID,
		EventInput:  evt,
	})
	if err != nil {
		return nil, err
	}

	return toDispatchResultResponse(*res), nil
}

// UpsertIntegration stores the settings of a delivery provider.
// @Summary Save integration
// @Description Stores the email or slack settings and applies them to the running senders.
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Param provider path string true "Provider (email|slack)"
// @Param request body UpsertIntegrationRequest true "Integration settings"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/admin/integrations/{provider} [put]
func (h *HTTPEndpoint) UpsertIntegration(r *router.Request) (any, error) {
	var req UpsertIntegrationRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.UpsertIntegration(r.Context(), usecase.UpsertIntegrationInput{
		Provider: r.GetParam("provider"),
		IsActive: req.IsActive,
		Config:   req.Config,
	})
}

// ReloadIntegrations re-reads the stored integrations.
// @Summary Reload integrations
// @Tags Admin
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/admin/integrations/reload [post]
func (h *HTTPEndpoint) ReloadIntegrations(r *router.Request) (any, error) {
	return nil, h.uc.ReconfigureChannels(r.Context())
}

// TestChatConnection checks the configured bot token.
// @Summary Test chat connection
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=ChatConnectionResponse} "Workspace and bot"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "Chat not configured"
// @Failure 422 {object} router.errorResponse "Connection failed"
// @Router /api/v1/notification/admin/integrations/chat/test [post]
func (h *HTTPEndpoint) TestChatConnection(r *router.Request) (any, error) {
	conn, err := h.uc.TestChatConnection(r.Context())
	if err != nil {
		return nil, err
	}

	return ChatConnectionResponse{Team: conn.Team, Bot: conn.Bot}, nil
}

// RunDigestJob sends the pending daily summaries.
// @Summary Run digest job
// @Tags Cron
// @Param X-Cron-Secret header string true "Scheduler secret"
// @Produce json
// @Success 200 {object} router.successResponse{data=DigestJobResponse} "Run summary"
// @Failure 401 {object} router.errorResponse "Invalid cron secret"
// @Failure 409 {object} router.errorResponse "Job already running"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/cron/digest [post]
func (h *HTTPEndpoint) RunDigestJob(r *router.Request) (any, error) {
	out, err := h.uc.RunDigestJob(r.Context())
	if err != nil {
		return nil, err
	}

	return DigestJobResponse{
		RecipientsProcessed: out.RecipientsProcessed,
		Sent:                out.Sent,
		Skipped:             out.Skipped,
		Errors:              out.Errors,
		Reaped:              out.Reaped,
	}, nil
}

// RunChatBatchJob sends the chat batches whose window has closed.
// @Summary Run chat batch job
// @Tags Cron
// @Param X-Cron-Secret header string true "Scheduler secret"
// @Produce json
// @Success 200 {object} router.successResponse{data=ChatBatchJobResponse} "Run summary"
// @Failure 401 {object} router.errorResponse "Invalid cron secret"
// @Failure 409 {object} router.errorResponse "Job already running"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/notification/cron/chat-batches [post]
func (h *HTTPEndpoint) RunChatBatchJob(r *router.Request) (any, error) {
	out, err := h.uc.RunChatBatchJob(r.Context())
	if err != nil {
		return nil, err
	}

	return ChatBatchJobResponse{
		Sent:    out.Sent,
		Skipped: out.Skipped,
		Errors:  out.Errors,
		Cleaned: out.Cleaned,
	}, nil
}

func toNotificationResponse(item entity.Record) NotificationResponse {
	return NotificationResponse{
		ID:               item.ID,
		Type:             item.Type.String(),
		Label:            item.Type.Label(),
		Icon:             item.Type.Icon(),
		Title:            item.Title,
		Message:          item.Message,
		EntityType:       item.Entity.Type.String(),
		EntityID:         item.Entity.ID,
		BundleKey:        item.BundleKey,
		BundleCount:      item.BundleCount,
		Priority:         item.Priority.String(),
		IsRead:           item.IsRead,
		ReadAt:           item.ReadAt,
		EmailDelivered:   item.EmailDelivered,
		EmailDeliveredAt: item.EmailDeliveredAt,
		ChatDelivered:    item.ChatDelivered,
		ChatDeliveredAt:  item.ChatDeliveredAt,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

func toDispatchResultResponse(res entity.DispatchResult) DispatchResultResponse {
	return DispatchResultResponse{
		InApp: InAppResultResponse{Sent: res.InApp.Sent, RecordID: res.InApp.RecordID},
		Email: EmailResultResponse{Sent: res.Email.Sent, Queued: res.Email.Queued, Error: res.Email.Error},
		Chat:  ChatResultResponse{Sent: res.Chat.Sent, Error: res.Chat.Error},
	}
}
