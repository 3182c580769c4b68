package audit

import (
	"context"
	"log/slog"
)

// LogSink writes each event as one structured log line tagged log_type=audit.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, e Event) error {
	attrs := []any{
		"log_type", "audit",
		"event", string(e.Action),
		"timestamp", e.Timestamp,
	}
	if e.RequestID != "" {
		attrs = append(attrs, "request_id", e.RequestID)
	}
	if e.Actor != "" {
		attrs = append(attrs, "actor", e.Actor)
	}
	if e.ClientIP != "" {
		attrs = append(attrs, "client_ip", e.ClientIP)
	}
	if e.Browser != "" {
		attrs = append(attrs, "browser", e.Browser, "os", e.OS)
	}
	if e.RegistrationID != 0 {
		attrs = append(attrs, "registration_id", e.RegistrationID)
	}
	if e.Count != 0 {
		attrs = append(attrs, "count", e.Count)
	}
	if e.Reason != "" {
		attrs = append(attrs, "reason", e.Reason)
	}
	s.logger.InfoContext(ctx, string(e.Action), attrs...)
	return nil
}
