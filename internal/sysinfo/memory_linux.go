// file: internal/sysinfo/memory_linux.go
// version: 1.1.0
// guid: 8a0b2c4d-6e8f-4a0b-9c2d-4e6f8a0b2c4f

//go:build linux

package sysinfo

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

func platformTotalMemory() uint64     { return meminfoBytes("MemTotal:") }
func platformAvailableMemory() uint64 { return meminfoBytes("MemAvailable:") }

// meminfoBytes reads one kB-denominated field from /proc/meminfo.
func meminfoBytes(field string) uint64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, field) {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			return 0
		}
		kb, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return 0
		}
		return kb * 1024
	}
	return 0
}
