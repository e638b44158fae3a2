package router

import (
	"net/http"

	"github.com/shandysiswandi/notifyd/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed under
// app.maintenance.endpoints. The list is re-read on every request.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil {
				route := matchedRoutePath(r)
				for _, blocked := range cfg.GetArray("app.maintenance.endpoints") {
					if blocked == route {
						writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
