package audit

import (
	"context"
	"log/slog"
)

// LogSink writes events to the structured log only.
type LogSink struct {
	Logger *slog.Logger
}

// Record logs the event.
func (s LogSink) Record(ctx context.Context, event Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []slog.Attr{
		slog.String("event_id", event.ID),
		slog.String("kind", string(event.Kind)),
		slog.String("username", event.Username),
		slog.String("remote_addr", event.Source.RemoteAddr),
		slog.String("request_id", event.Source.RequestID),
	}
	if event.UserID != nil {
		attrs = append(attrs, slog.Int64("user_id", *event.UserID))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "auth event", attrs...)
	return nil
}

var _ Sink = LogSink{}
