package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"github.com/shandysiswandi/notifyd/internal/pkg/uid"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted from proxies that do not forward the former.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

func cleanCorrelationID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) > maxCorrelationIDLen {
		v = v[:maxCorrelationIDLen]
	}
	return v
}

func middlewareCorrelationID(gen uid.StringID) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := cleanCorrelationID(r.Header.Get(HeaderCorrelationID))
			if cid == "" {
				cid = cleanCorrelationID(r.Header.Get(HeaderRequestID))
			}
			if cid == "" && gen != nil {
				cid = gen.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(instrument.SetCorrelationID(r.Context(), cid))
			}
			next.ServeHTTP(w, r)
		})
	}
}
