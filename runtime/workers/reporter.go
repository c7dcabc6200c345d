package workers

import (
	"context"
	"log/slog"
	"roast-battle/observability"
	"roast-battle/runtime"
	"time"
)

type statsSource interface {
	Stats() runtime.Stats
}

// ReporterWorker periodically samples the process and logs a one-line summary.
type ReporterWorker struct {
	log         *slog.Logger
	monitoring  *observability.MonitoringManager
	coordinator statsSource
	interval    time.Duration
}

func NewReporterWorker(
	log *slog.Logger,
	monitoring *observability.MonitoringManager,
	coordinator statsSource,
	interval time.Duration,
) *ReporterWorker {
	return &ReporterWorker{log: log, monitoring: monitoring, coordinator: coordinator, interval: interval}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *ReporterWorker) report() {
	stats, err := w.monitoring.Collect()
	if err != nil {
		w.log.Warn("Failed to collect self stats", "error", err)
	}
	battles := w.coordinator.Stats()
	w.log.Info("Server stats",
		"battles", battles.Battles,
		"live", battles.LiveBattles,
		"clocks", battles.RunningClocks,
		"subscribers", battles.Subscribers,
		"ram_bytes", stats.RamBytes,
		"cpu_percent", stats.CpuPercent,
		"votes_accepted", stats.VotesAccepted,
		"uptime", stats.Uptime,
	)
}
