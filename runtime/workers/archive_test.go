package workers

import (
	"context"
	"log/slog"
	"roast-battle/domain"
	"roast-battle/mocks"
	"roast-battle/observability"
	"roast-battle/sink"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestArchiveWorker_FlushesOnShutdown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	repository := mocks.NewMockIArchiveRepository(ctrl)
	monitoring, err := observability.NewMonitoringManager(log)
	req.NoError(err)
	archive := sink.NewArchiveSink(4)

	var stored []string
	repository.EXPECT().
		Store(gomock.Any()).
		DoAndReturn(func(r domain.BattleRecord) error {
			stored = append(stored, r.Battle.ID)
			return nil
		}).
		Times(2)

	// Given two finished battles waiting in the buffer
	ctx, cancel := context.WithCancel(context.Background())
	req.NoError(archive.Archive(ctx, domain.BattleRecord{Battle: domain.Battle{ID: "b1"}}))
	req.NoError(archive.Archive(ctx, domain.BattleRecord{Battle: domain.Battle{ID: "b2"}}))

	// When the worker runs with an already canceled context
	cancel()
	err = NewArchiveWorker(log, archive.Records(), repository, monitoring).Run(ctx)

	// Then both are stored before it returns
	req.ErrorIs(err, context.Canceled)
	req.Equal([]string{"b1", "b2"}, stored)
	stats, _ := monitoring.Collect()
	req.Equal(uint64(2), stats.ArchivedBattles)
}

func TestArchiveWorker_StoreFailureIsLogged(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	repository := mocks.NewMockIArchiveRepository(ctrl)
	monitoring, err := observability.NewMonitoringManager(log)
	req.NoError(err)

	repository.EXPECT().Store(gomock.Any()).Return(context.DeadlineExceeded).Times(1)

	worker := NewArchiveWorker(log, nil, repository, monitoring)
	worker.store(domain.BattleRecord{Battle: domain.Battle{ID: "b1"}})

	stats, _ := monitoring.Collect()
	req.Zero(stats.ArchivedBattles)
}
