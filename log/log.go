package log

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	ErrorMsgLogField        = "errorMsg"
	UserIDLogField          = "userID"
	ConversationKeyLogField = "conversationKey"
	FunctionLogField        = "function"

	traceHeader = "X-Cloud-Trace-Context"
	traceField  = "logging.googleapis.com/trace"
)

type (
	ctxKey   struct{}
	traceKey struct{}
)

// CloudLoggingHandler is a slog.Handler writing Google Cloud structured log lines.
type CloudLoggingHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Leveler
	attrs []slog.Attr
}

// NewCloudLoggingHandler creates a handler that writes one JSON entry per line to out.
func NewCloudLoggingHandler(out io.Writer, level slog.Leveler) *CloudLoggingHandler {
	if out == nil {
		out = os.Stdout
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &CloudLoggingHandler{mu: &sync.Mutex{}, out: out, level: level}
}

// Handle processes log records.
func (h *CloudLoggingHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := map[string]any{
		"severity": severity(r.Level),
		"time":     recordTime(r).Format(time.RFC3339Nano),
		"message":  r.Message,
	}
	if traceID := TraceID(ctx); traceID != "" {
		entry[traceField] = traceID
	}
	for _, attr := range h.attrs {
		entry[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		entry[attr.Key] = attr.Value.Any()
		return true
	})

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(append(jsonData, '\n'))
	return err
}

func (h *CloudLoggingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// WithAttrs returns a new handler with additional attributes.
func (h *CloudLoggingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CloudLoggingHandler{mu: h.mu, out: h.out, level: h.level, attrs: appendAttrs(h.attrs, attrs)}
}

// WithGroup returns the same handler, as grouping is not implemented.
func (h *CloudLoggingHandler) WithGroup(_ string) slog.Handler {
	return h
}

func appendAttrs(base, extra []slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, len(base)+len(extra))
	copy(attrs, base)
	copy(attrs[len(base):], extra)
	return attrs
}

func recordTime(r slog.Record) time.Time {
	if r.Time.IsZero() {
		return time.Now()
	}
	return r.Time
}

// severity maps slog levels onto Cloud Logging severity names.
func severity(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// WithTrace stores the Cloud Trace id from the request header in the context.
func WithTrace(ctx context.Context, r *http.Request, projectID string) context.Context {
	header := r.Header.Get(traceHeader)
	if header == "" || projectID == "" {
		return ctx
	}
	traceID, _, _ := strings.Cut(header, "/")
	return context.WithValue(ctx, traceKey{}, "projects/"+projectID+"/traces/"+traceID)
}

// TraceID extracts the Google Cloud Trace id from the context.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(traceKey{}).(string)
	return traceID
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.New(NewCloudLoggingHandler(os.Stdout, slog.LevelInfo))
}
