package log

import (
	"context"
	"log/slog"

	"cloud.google.com/go/logging"
)

// APIHandler ships records through the Cloud Logging API. It is used when the
// process runs outside Cloud Functions, where stdout is not collected.
type APIHandler struct {
	logger *logging.Logger
	level  slog.Leveler
	attrs  []slog.Attr
}

func NewAPIHandler(client *logging.Client, logID string, level slog.Leveler) *APIHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &APIHandler{logger: client.Logger(logID), level: level}
}

func (h *APIHandler) Handle(ctx context.Context, r slog.Record) error {
	payload := map[string]any{"message": r.Message}
	for _, attr := range h.attrs {
		payload[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		payload[attr.Key] = attr.Value.Any()
		return true
	})
	h.logger.Log(logging.Entry{
		Timestamp: recordTime(r),
		Severity:  apiSeverity(r.Level),
		Payload:   payload,
		Trace:     TraceID(ctx),
	})
	return nil
}

func (h *APIHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *APIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &APIHandler{logger: h.logger, level: h.level, attrs: appendAttrs(h.attrs, attrs)}
}

func (h *APIHandler) WithGroup(_ string) slog.Handler {
	return h
}

// Flush blocks until buffered entries are sent.
func (h *APIHandler) Flush() error {
	return h.logger.Flush()
}

func apiSeverity(level slog.Level) logging.Severity {
	return logging.ParseSeverity(severity(level))
}
