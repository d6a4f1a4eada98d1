// file: internal/sysinfo/cpu_linux.go
// version: 1.0.0
// guid: 4a6b8c0d-2e4f-4a6b-8c0d-0e2f4a6b8c0e

//go:build linux

package sysinfo

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// cpuSamplePause is the delta window for the usage calculation.
var cpuSamplePause = 200 * time.Millisecond

// CPUPercent samples /proc/stat twice and returns the aggregate busy share
// over the interval. Returns 0 when the counters cannot be read.
func CPUPercent() float64 {
	idle1, total1, ok := readCPUCounters()
	if !ok {
		return 0
	}
	time.Sleep(cpuSamplePause)
	idle2, total2, ok := readCPUCounters()
	if !ok || total2 <= total1 {
		return 0
	}

	idleDelta := float64(idle2 - idle1)
	totalDelta := float64(total2 - total1)
	return (1.0 - idleDelta/totalDelta) * 100.0
}

// readCPUCounters returns the idle and total jiffies from the aggregate cpu
// line of /proc/stat.
func readCPUCounters() (idle, total uint64, ok bool) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, 0, false
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 5 || fields[0] != "cpu" {
		return 0, 0, false
	}
	for i, raw := range fields[1:] {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, 0, false
		}
		total += v
		// fields: user nice system idle iowait ...
		if i == 3 || i == 4 {
			idle += v
		}
	}
	return idle, total, true
}
