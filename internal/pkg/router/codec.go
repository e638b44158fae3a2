package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/notifyd/internal/pkg/goerror"
	"github.com/shandysiswandi/notifyd/internal/pkg/validator"
)

type errorResponse struct {
	Message string            `json:"message" example:"example string message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message" example:"example string message"`
	Data    any            `json:"data" swaggertype:"object"`
	Meta    map[string]any `json:"meta,omitempty" swaggertype:"object"`
}

func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg()}

	var verr validator.V10ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Error = verr.Values()
	case len(gerr.Fields()) > 0:
		resp.Error = gerr.Fields()
	}

	writeJSON(w, resp, gerr.StatusCode())
}

// writeOK honours optional StatusCode, Message and Meta methods on resp.
func writeOK(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}
	if resp == nil || code == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	out := successResponse{Message: "request has been successfully", Data: resp}
	if m, ok := resp.(interface{ Message() string }); ok {
		out.Message = m.Message()
	}
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		out.Meta = m.Meta()
	}

	writeJSON(w, out, code)
}

// WriteError lets raw handlers answer err in the same envelope as regular
// endpoints.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response body", "error", err)
	}
}
