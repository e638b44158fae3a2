package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const maskValue = "***"

func initLogging(serviceName string, lp *sdklog.LoggerProvider, maskFields []string) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})
	if lp != nil {
		handler = fanout{handler, otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(lp))}
	}

	slog.SetDefault(slog.New(newContextHandler(
		newMaskHandler(handler, maskFields),
		serviceName,
	)))
}

func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("internal/%s:%d", rel, src.Line))
	}
	return a
}

// contextHandler stamps the service name and correlation id on every record.
type contextHandler struct {
	slog.Handler
	service string
}

func newContextHandler(next slog.Handler, service string) *contextHandler {
	return &contextHandler{Handler: next, service: service}
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	if h.service != "" {
		r.AddAttrs(slog.String("service", h.service))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), service: h.service}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), service: h.service}
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// maskHandler replaces configured keys, including keys nested in JSON string
// or map values, before the record reaches the sink.
type maskHandler struct {
	next slog.Handler
	keys map[string]struct{}
}

func newMaskHandler(next slog.Handler, fields []string) slog.Handler {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	return &maskHandler{next: next, keys: keys}
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.keys) == 0 {
		return h.next.Handle(ctx, r)
	}

	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.mask(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.mask(a)
	}
	return &maskHandler{next: h.next.WithAttrs(masked), keys: h.keys}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{next: h.next.WithGroup(name), keys: h.keys}
}

func (h *maskHandler) hit(key string) bool {
	_, ok := h.keys[strings.ToLower(key)]
	return ok
}

func (h *maskHandler) mask(a slog.Attr) slog.Attr {
	if h.hit(a.Key) {
		return slog.String(a.Key, maskValue)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = h.mask(ga)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := h.maskJSON([]byte(a.Value.String())); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(h.walk(v))
		case map[string]string:
			m := make(map[string]any, len(v))
			for k, s := range v {
				m[k] = s
			}
			a.Value = slog.AnyValue(h.walk(m))
		case []byte:
			if s, ok := h.maskJSON(v); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}
	return a
}

func (h *maskHandler) maskJSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}
	out, err := json.Marshal(h.walk(body))
	if err != nil {
		return "", false
	}
	return string(out), true
}

func (h *maskHandler) walk(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if h.hit(k) {
				out[k] = maskValue
				continue
			}
			out[k] = h.walk(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = h.walk(item)
		}
		return out
	default:
		return v
	}
}
