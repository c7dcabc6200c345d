package observability

import (
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// MonitoringStats aggregates process and battle metrics for the health endpoint.
type MonitoringStats struct {
	// --- PROCESS METRICS ---
	Pid        int32   `json:"pid"`
	PidStatus  string  `json:"pid_status"`
	CpuPercent float64 `json:"cpu_percent"`
	RamBytes   uint64  `json:"ram_bytes"`
	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`
	Goroutines int     `json:"goroutines"`
	Uptime     string  `json:"uptime"`

	// --- BATTLE METRICS ---
	VotesAccepted   uint64 `json:"votes_accepted"`
	VotesRejected   uint64 `json:"votes_rejected"`
	RoastsPublished uint64 `json:"roasts_published"`
	AIFallbacks     uint64 `json:"ai_fallbacks"`
	ArchivedBattles uint64 `json:"archived_battles"`
}

// MonitoringManager counts battle activity and samples the process it runs in.
type MonitoringManager struct {
	log       *slog.Logger
	mu        sync.RWMutex
	latest    MonitoringStats
	proc      *process.Process
	startedAt time.Time

	votesAccepted   atomic.Uint64
	votesRejected   atomic.Uint64
	roastsPublished atomic.Uint64
	aiFallbacks     atomic.Uint64
	archivedBattles atomic.Uint64
}

func NewMonitoringManager(log *slog.Logger) (*MonitoringManager, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &MonitoringManager{log: log, proc: p, startedAt: time.Now()}, nil
}

func (mm *MonitoringManager) IncrVotes(accepted bool) {
	if accepted {
		mm.votesAccepted.Add(1)
		return
	}
	mm.votesRejected.Add(1)
}

func (mm *MonitoringManager) IncrRoastsPublished() {
	mm.roastsPublished.Add(1)
}

func (mm *MonitoringManager) IncrAIFallbacks() {
	mm.aiFallbacks.Add(1)
}

func (mm *MonitoringManager) IncrArchivedBattles() {
	mm.archivedBattles.Add(1)
}

// Collect samples the process and refreshes the latest snapshot.
// Counters are kept even when the process sampling fails.
func (mm *MonitoringManager) Collect() (MonitoringStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := MonitoringStats{
		Pid:             mm.proc.Pid,
		AllocMemMb:      m.Alloc / 1024 / 1024,
		NumGC:           m.NumGC,
		Goroutines:      runtime.NumGoroutine(),
		Uptime:          time.Since(mm.startedAt).Round(time.Second).String(),
		VotesAccepted:   mm.votesAccepted.Load(),
		VotesRejected:   mm.votesRejected.Load(),
		RoastsPublished: mm.roastsPublished.Load(),
		AIFallbacks:     mm.aiFallbacks.Load(),
		ArchivedBattles: mm.archivedBattles.Load(),
	}
	rss, cpu, status, err := selfStats(mm.proc)
	stats.RamBytes, stats.CpuPercent, stats.PidStatus = rss, cpu, status

	mm.mu.Lock()
	mm.latest = stats
	mm.mu.Unlock()

	mm.log.Debug("Stats updated",
		"ram_bytes", stats.RamBytes,
		"cpu_percent", stats.CpuPercent,
		"votes_accepted", stats.VotesAccepted,
		"roasts_published", stats.RoastsPublished,
	)
	return stats, err
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latest
}

// selfStats retrieves memory, CPU and OS status of the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
