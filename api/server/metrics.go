// metrics.go - host and ledger metrics for the health endpoints
package server

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
)

// NodeMetrics holds health metrics for the node.
type NodeMetrics struct {
	UptimeSeconds  int64   `json:"uptime_seconds"`
	BlockHeight    int     `json:"block_height"`
	Assessments    int     `json:"assessments"`
	CPULoadPercent float64 `json:"cpu_load_percent"`
	MemoryMB       float64 `json:"memory_mb"`
	DiskFreeMB     float64 `json:"disk_free_mb"`
	LastBlockTime  string  `json:"last_block_time"`
}

// GetNodeMetrics returns current health metrics for the node.
func (s *Server) GetNodeMetrics() NodeMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuLoad := 0.0
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuLoad = percents[0]
	}
	diskFreeMB := 0.0
	if usage, err := disk.Usage("/"); err == nil {
		diskFreeMB = float64(usage.Free) / (1024 * 1024)
	}

	return NodeMetrics{
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		BlockHeight:    s.ledger.Height(),
		Assessments:    s.store.Len(),
		CPULoadPercent: cpuLoad,
		MemoryMB:       float64(m.Alloc) / (1024 * 1024),
		DiskFreeMB:     diskFreeMB,
		LastBlockTime:  s.ledger.Tail().Timestamp.UTC().Format(time.RFC3339),
	}
}

// NodeLiveness returns true once the ledger holds its genesis block.
func (s *Server) NodeLiveness() bool {
	return s.ledger.Height() > 0
}

// NodeReadiness returns true while the chain verifies.
func (s *Server) NodeReadiness() bool {
	return s.ledger.Verify() == nil
}
