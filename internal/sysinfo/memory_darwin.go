// file: internal/sysinfo/memory_darwin.go
// version: 1.1.0
// guid: 0c2d4e6f-8a0b-4c2d-9e4f-6a8b0c2d4e6b

//go:build darwin

package sysinfo

import (
	"syscall"
	"unsafe"
)

func platformTotalMemory() uint64 {
	mib := []int32{6 /* CTL_HW */, 24 /* HW_MEMSIZE */}
	var memsize uint64
	length := unsafe.Sizeof(memsize)

	_, _, errno := syscall.Syscall6(
		syscall.SYS___SYSCTL,
		uintptr(unsafe.Pointer(&mib[0])),
		uintptr(len(mib)),
		uintptr(unsafe.Pointer(&memsize)),
		uintptr(unsafe.Pointer(&length)),
		0, 0,
	)
	if errno != 0 {
		return 0
	}
	return memsize
}

// platformAvailableMemory approximates availability; exact numbers would
// need the mach host statistics APIs.
func platformAvailableMemory() uint64 {
	return platformTotalMemory() * 80 / 100
}
