package workers

import (
	"log/slog"
	"roast-battle/runtime"
	"roast-battle/sink"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fakeBattleSweeper struct {
	calls  []time.Duration
	remove []string
}

func (f *fakeBattleSweeper) SweepBattles(_ time.Time, maxAge time.Duration) []string {
	f.calls = append(f.calls, maxAge)
	return f.remove
}

func TestBattleSweeper_Sweep(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	coordinator := &fakeBattleSweeper{remove: []string{"old"}}
	worker := NewBattleSweeper(log, coordinator, time.Minute, time.Hour)

	worker.sweep(time.Now())

	req.Equal([]time.Duration{time.Hour}, coordinator.calls)
}

func TestSubscriberSweeper_Sweep(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	registry := runtime.NewSubscriberRegistry(log, 50*time.Millisecond)
	start := time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC)
	idle := runtime.NewSubscriber("b1", sink.NewStreamSink(1), start)
	registry.Add(idle)
	worker := NewSubscriberSweeper(log, registry, time.Minute, 5*time.Minute)

	// When sweeping before the threshold nothing happens
	worker.sweep(start.Add(4 * time.Minute))
	req.Equal(1, registry.Count())

	// When sweeping after it the idle stream is closed
	worker.sweep(start.Add(6 * time.Minute))
	req.Zero(registry.Count())
	req.False(idle.IsAlive())
}
