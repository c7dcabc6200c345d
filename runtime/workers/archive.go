package workers

import (
	"context"
	"log/slog"
	"roast-battle/domain"
	"roast-battle/observability"
	"roast-battle/repositories"
)

// ArchiveWorker persists finished battles handed over by the archive sink.
type ArchiveWorker struct {
	log        *slog.Logger
	records    <-chan domain.BattleRecord
	repository repositories.IArchiveRepository
	monitoring *observability.MonitoringManager
}

func NewArchiveWorker(
	log *slog.Logger,
	records <-chan domain.BattleRecord,
	repository repositories.IArchiveRepository,
	monitoring *observability.MonitoringManager,
) *ArchiveWorker {
	return &ArchiveWorker{log: log, records: records, repository: repository, monitoring: monitoring}
}

// Run stores records until the context is canceled, then flushes what is still buffered.
func (w *ArchiveWorker) Run(ctx context.Context) error {
	w.log.Info("Starting archive worker")
	for {
		select {
		case <-ctx.Done():
			w.flush()
			return ctx.Err()
		case record := <-w.records:
			w.store(record)
		}
	}
}

func (w *ArchiveWorker) flush() {
	for {
		select {
		case record := <-w.records:
			w.store(record)
		default:
			return
		}
	}
}

func (w *ArchiveWorker) store(record domain.BattleRecord) {
	if err := w.repository.Store(record); err != nil {
		w.log.Error("Battle not archived", "battle_id", record.Battle.ID, "error", err)
		return
	}
	w.monitoring.IncrArchivedBattles()
	w.log.Info("Battle archived", "battle_id", record.Battle.ID, "roasts", len(record.Roasts), "votes", len(record.Votes))
}
