package workers

import (
	"context"
	"log/slog"
	"roast-battle/domain/event"
	"time"
)

type broadcaster interface {
	BroadcastAll(ctx context.Context, build func(battleID string) event.Event) int
}

// KeepAliveWorker sends a heartbeat to every open stream so idle connections stay up.
// A stream that cannot take the heartbeat is dropped by the registry.
type KeepAliveWorker struct {
	log         *slog.Logger
	subscribers broadcaster
	interval    time.Duration
}

func NewKeepAliveWorker(log *slog.Logger, subscribers broadcaster, interval time.Duration) *KeepAliveWorker {
	return &KeepAliveWorker{log: log, subscribers: subscribers, interval: interval}
}

func (w *KeepAliveWorker) Run(ctx context.Context) error {
	w.log.Info("Starting keep-alive worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			w.beat(ctx, now)
		}
	}
}

func (w *KeepAliveWorker) beat(ctx context.Context, now time.Time) int {
	delivered := w.subscribers.BroadcastAll(ctx, func(battleID string) event.Event {
		return event.NewHeartbeat(battleID, now.UTC())
	})
	w.log.Debug("Heartbeat sent", "subscribers", delivered)
	return delivered
}
