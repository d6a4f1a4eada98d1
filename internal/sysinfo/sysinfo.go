// file: internal/sysinfo/sysinfo.go
// version: 1.1.0
// guid: 6e8f0a2b-4c6d-4e8f-8a0b-2c4d6e8f0a2e

// Package sysinfo reports host memory and CPU usage for the status
// endpoint. Platform queries degrade to zero values rather than erroring.
package sysinfo

import "runtime"

// Providers are swapped in tests.
var (
	totalMemoryProvider     = platformTotalMemory
	availableMemoryProvider = platformAvailableMemory
)

// MemoryStats is a point-in-time view of system memory.
type MemoryStats struct {
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	UsedPercent    float64 `json:"used_percent"`
}

// Memory returns current system memory usage. When the platform total is
// unknown only the process heap footprint is reported.
func Memory() *MemoryStats {
	total := totalMemoryProvider()
	if total == 0 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return &MemoryStats{UsedBytes: m.Sys}
	}

	available := availableMemoryProvider()
	used := total - available
	return &MemoryStats{
		TotalBytes:     total,
		AvailableBytes: available,
		UsedBytes:      used,
		UsedPercent:    float64(used) / float64(total) * 100.0,
	}
}
