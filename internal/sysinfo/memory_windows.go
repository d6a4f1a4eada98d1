// file: internal/sysinfo/memory_windows.go
// version: 1.1.0
// guid: 2e4f6a8b-0c2d-4e4f-8a6b-8c0d2e4f6a8c

//go:build windows

package sysinfo

import (
	"syscall"
	"unsafe"
)

type memoryStatusEx struct {
	dwLength                uint32
	dwMemoryLoad            uint32
	ullTotalPhys            uint64
	ullAvailPhys            uint64
	ullTotalPageFile        uint64
	ullAvailPageFile        uint64
	ullTotalVirtual         uint64
	ullAvailVirtual         uint64
	ullAvailExtendedVirtual uint64
}

func queryMemoryStatus() (memoryStatusEx, bool) {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	proc := kernel32.NewProc("GlobalMemoryStatusEx")

	var status memoryStatusEx
	status.dwLength = uint32(unsafe.Sizeof(status))
	ret, _, _ := proc.Call(uintptr(unsafe.Pointer(&status)))
	return status, ret != 0
}

func platformTotalMemory() uint64 {
	if status, ok := queryMemoryStatus(); ok {
		return status.ullTotalPhys
	}
	return 0
}

func platformAvailableMemory() uint64 {
	if status, ok := queryMemoryStatus(); ok {
		return status.ullAvailPhys
	}
	return 0
}
