package notify

import (
	"context"
	"log/slog"

	"cardtrack/internal/bootstrap/logging"
	"cardtrack/internal/ports"
)

// LogSender writes notifications to the context logger. It is used when no
// push transport is configured.
type LogSender struct{}

func NewLogSender() LogSender {
	return LogSender{}
}

func (LogSender) SendToMany(ctx context.Context, tokens []string, n ports.Notification) error {
	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "infrastructure.notify")),
		"notification",
		slog.String("title", n.Title),
		slog.String("body", n.Body),
		slog.String("category", n.Category),
		slog.Int("recipients", len(tokens)),
	)
	return nil
}
