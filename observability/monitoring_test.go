package observability

import (
	"log/slog"
	"os"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_Collect(t *testing.T) {
	req := require.New(t)
	mm, err := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelError))
	req.NoError(err)

	// Given some battle activity
	mm.IncrVotes(true)
	mm.IncrVotes(true)
	mm.IncrVotes(false)
	mm.IncrRoastsPublished()
	mm.IncrAIFallbacks()

	// When the process is sampled
	stats, _ := mm.Collect()

	// Then counters and process identity are reported
	req.Equal(int32(os.Getpid()), stats.Pid)
	req.Equal(uint64(2), stats.VotesAccepted)
	req.Equal(uint64(1), stats.VotesRejected)
	req.Equal(uint64(1), stats.RoastsPublished)
	req.Equal(uint64(1), stats.AIFallbacks)
	req.Positive(stats.Goroutines)
	req.Equal(stats, mm.GetLatest())
}
