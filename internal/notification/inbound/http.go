package inbound

import (
	"net/http"

	"github.com/shandysiswandi/notifyd/internal/pkg/router"
)

const (
	adminObject   = "notification.admin"
	adminAction   = "write"
	cronSecretKey = "modules.notification.cron_secret"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}
	admin := r.Authorize(adminObject, adminAction)
	cron := r.CronSecret(cronSecretKey)

	r.GET("/api/v1/notification/inbox", end.ListInbox)
	r.GET("/api/v1/notification/inbox/unread-count", end.CountUnread)
	r.PATCH("/api/v1/notification/inbox/:id/read", end.MarkInboxRead)
	r.POST("/api/v1/notification/inbox/read-all", end.MarkAllInboxRead)
	r.DELETE("/api/v1/notification/inbox/:id", end.DeleteInbox)

	r.GETRaw("/api/v1/notification/stream", http.HandlerFunc(end.StreamNotifications))

	r.GET("/api/v1/notification/preferences", end.ListPreferences)
	r.PUT("/api/v1/notification/preferences", end.SetPreferences)
	r.POST("/api/v1/notification/preferences/initialize", end.InitializeDefaultPreferences)

	r.GET("/api/v1/notification/admin/preferences/:user_id", end.AdminListPreferences, admin)
	r.PUT("/api/v1/notification/admin/preferences/:user_id", end.AdminSetPreference, admin)
	r.DELETE("/api/v1/notification/admin/preferences/:user_id/:type/lock", end.AdminUnlockPreference, admin)
	r.POST("/api/v1/notification/admin/dispatch", end.AdminDispatch, admin)
	r.PUT("/api/v1/notification/admin/integrations/:provider", end.UpsertIntegration, admin)
	r.POST("/api/v1/notification/admin/integrations/reload", end.ReloadIntegrations, admin)
	r.POST("/api/v1/notification/admin/integrations/chat/test", end.TestChatConnection, admin)

	r.Public(http.MethodPost, "/api/v1/notification/cron/digest")
	r.POST("/api/v1/notification/cron/digest", end.RunDigestJob, cron)
	r.Public(http.MethodPost, "/api/v1/notification/cron/chat-batches")
	r.POST("/api/v1/notification/cron/chat-batches", end.RunChatBatchJob, cron)

	r.Public(http.MethodPost, "/api/v1/notification/webhooks/chat/events")
	r.POSTRaw("/api/v1/notification/webhooks/chat/events", http.HandlerFunc(end.ChatEvents))
}
