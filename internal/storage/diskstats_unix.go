// file: internal/storage/diskstats_unix.go
// version: 1.0.0
// guid: 8e0f2a4b-6c8d-4e0f-8a2b-4c6d8e0f2a4b

//go:build !windows

package storage

import "syscall"

// getDiskStats returns total, free bytes for the given path.
func getDiskStats(path string) (total, free uint64, err error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	blockSize := uint64(stat.Bsize)
	return stat.Blocks * blockSize, stat.Bavail * blockSize, nil
}
