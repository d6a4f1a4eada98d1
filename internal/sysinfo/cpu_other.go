// file: internal/sysinfo/cpu_other.go
// version: 1.0.0
// guid: 6c8d0e2f-4a6b-4c8d-9e0f-2a4b6c8d0e2b

//go:build !linux

package sysinfo

// CPUPercent is only implemented on Linux; other platforms report 0.
func CPUPercent() float64 {
	return 0
}
