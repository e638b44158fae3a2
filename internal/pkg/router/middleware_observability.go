package router

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/notifyd/internal/pkg/config"
	"github.com/shandysiswandi/notifyd/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBody = 32 * 1024

// sensitiveHeaders are always redacted from request logs.
var sensitiveHeaders = []string{"Authorization", "Cookie", HeaderCronSecret, "X-Slack-Signature"}

type statusRecorder struct {
	http.ResponseWriter
	status    int
	bytes     int
	body      bytes.Buffer
	truncated bool
	err       error
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if room := maxLoggedBody - w.body.Len(); room > 0 {
		chunk := p
		if len(chunk) > room {
			chunk, w.truncated = chunk[:room], true
		}
		w.body.Write(chunk)
	} else if len(p) > 0 {
		w.truncated = true
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) SetError(err error) { w.err = err }

// Flush keeps server-sent event streams working through the recorder.
func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("router: hijack not supported")
	}
	return h.Hijack()
}

func (w *statusRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if p := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); p != "" {
		return p
	}
	return r.URL.Path
}

// peekBody reads up to maxLoggedBody bytes and restores the body for the
// handler.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	//nolint:errcheck // logging only
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return head
}

// loggableBody decodes JSON so the log handler can mask nested keys.
func loggableBody(body []byte, truncated bool) any {
	if len(body) == 0 {
		return nil
	}

	var out any
	if !truncated && json.Unmarshal(body, &out) == nil {
		return out
	}
	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if truncated {
		return string(body) + "...(truncated)"
	}
	return string(body)
}

func redactHeaders(h http.Header, extra []string) http.Header {
	out := h.Clone()
	for _, key := range append(sensitiveHeaders, extra...) {
		if out.Get(key) != "" {
			out.Set(key, "***")
		}
	}
	return out
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	if ins == nil {
		ins = instrument.NewNoop()
	}
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests", metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration", metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	var maskHeaders []string
	if cfg != nil {
		maskHeaders = cfg.GetArray("instrument.log_mask_fields")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			streaming := strings.Contains(r.Header.Get("Accept"), "text/event-stream")

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"headers", redactHeaders(r.Header, maskHeaders),
				"body", loggableBody(peekBody(r), false),
			)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rec.bytes),
			)
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			switch {
			case status >= http.StatusInternalServerError && rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if duration != nil {
				duration.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(attrs...))
			}

			var respBody any
			if !streaming {
				respBody = loggableBody(rec.body.Bytes(), rec.truncated)
			}
			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", elapsed.Milliseconds(),
				"body", respBody,
			)
		})
	}
}
