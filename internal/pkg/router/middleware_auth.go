package router

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/notifyd/internal/pkg/jwt"
)

// HeaderCronSecret carries the shared secret of scheduler calls.
const HeaderCronSecret = "X-Cron-Secret"

func middlewareAuthentication(verifier jwt.JWT, public map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.Method][matchedRoutePath(r)]; ok {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}

// Authorize allows the request only when the enforcer grants act on obj to
// the authenticated subject. It must run after authentication.
func (r *Router) Authorize(obj, act string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			clm := jwt.GetAuth(req.Context())
			if clm == nil {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}
			if r.enforcer == nil {
				writeJSON(w, errorResponse{Message: "Access denied"}, http.StatusForbidden)
				return
			}

			ok, err := r.enforcer.Enforce(clm.Subject, obj, act)
			if err != nil {
				slog.ErrorContext(req.Context(), "failed to enforce policy", "sub", clm.Subject, "obj", obj, "act", act, "error", err)
				writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
				return
			}
			if !ok {
				writeJSON(w, errorResponse{Message: "Access denied"}, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

// CronSecret guards scheduler endpoints with the secret stored under key. The
// secret is read per request so a config reload takes effect immediately; an
// empty secret disables the endpoints.
func (r *Router) CronSecret(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			var want string
			if r.cfg != nil {
				want = r.cfg.GetString(key)
			}
			got := req.Header.Get(HeaderCronSecret)

			if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
				writeJSON(w, errorResponse{Message: "Invalid cron secret"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}
