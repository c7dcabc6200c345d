package workers

import (
	"context"
	"log/slog"
	"time"
)

type battleSweeper interface {
	SweepBattles(now time.Time, maxAge time.Duration) []string
}

// BattleSweeper removes battles left without activity for longer than maxAge.
type BattleSweeper struct {
	log         *slog.Logger
	coordinator battleSweeper
	interval    time.Duration
	maxAge      time.Duration
}

func NewBattleSweeper(log *slog.Logger, coordinator battleSweeper, interval, maxAge time.Duration) *BattleSweeper {
	return &BattleSweeper{log: log, coordinator: coordinator, interval: interval, maxAge: maxAge}
}

func (w *BattleSweeper) Run(ctx context.Context) error {
	w.log.Info("Starting battle sweeper", "interval", w.interval, "max_age", w.maxAge)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			w.sweep(now)
		}
	}
}

func (w *BattleSweeper) sweep(now time.Time) {
	removed := w.coordinator.SweepBattles(now.UTC(), w.maxAge)
	if len(removed) > 0 {
		w.log.Info("Inactive battles removed", "count", len(removed), "battle_ids", removed)
	}
}

type subscriberReaper interface {
	ReapStale(now time.Time, staleAfter time.Duration) int
}

// SubscriberSweeper closes streams that received nothing for longer than staleAfter.
type SubscriberSweeper struct {
	log         *slog.Logger
	subscribers subscriberReaper
	interval    time.Duration
	staleAfter  time.Duration
}

func NewSubscriberSweeper(log *slog.Logger, subscribers subscriberReaper, interval, staleAfter time.Duration) *SubscriberSweeper {
	return &SubscriberSweeper{log: log, subscribers: subscribers, interval: interval, staleAfter: staleAfter}
}

func (w *SubscriberSweeper) Run(ctx context.Context) error {
	w.log.Info("Starting subscriber sweeper", "interval", w.interval, "stale_after", w.staleAfter)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			w.sweep(now)
		}
	}
}

func (w *SubscriberSweeper) sweep(now time.Time) {
	if reaped := w.subscribers.ReapStale(now, w.staleAfter); reaped > 0 {
		w.log.Debug("Stale subscribers removed", "count", reaped)
	}
}
