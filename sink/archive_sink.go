package sink

import (
	"context"
	"roast-battle/domain"
	"roast-battle/errors"
)

// ArchiveSink hands finished battles over to the archive worker.
// Archive is called under the coordinator lock, it must never block.
type ArchiveSink struct {
	records chan domain.BattleRecord
}

func NewArchiveSink(bufferSize int) *ArchiveSink {
	return &ArchiveSink{records: make(chan domain.BattleRecord, bufferSize)}
}

func (a *ArchiveSink) Archive(ctx context.Context, record domain.BattleRecord) error {
	select {
	case a.records <- record:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ErrArchiveFull
	}
}

func (a *ArchiveSink) Records() <-chan domain.BattleRecord {
	return a.records
}
