package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Notifier fans state-change events out to interested parties. Delivery is
// best-effort: callers log failures and move on, and nothing in the core
// waits on a delivery.
type Notifier interface {
	Notify(ctx context.Context, audienceID uuid.UUID, eventType string, payload map[string]any) error
}

// Log is the fallback notifier used when no delivery channel is configured.
type Log struct{}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Notify(_ context.Context, audienceID uuid.UUID, eventType string, payload map[string]any) error {
	slog.Info("notification", "audience", audienceID, "event", eventType, "payload", payload)
	return nil
}
