//go:build linux
// +build linux

package pagemap

import (
	"golang.org/x/sys/unix"
)

func mremap(ptr uintptr, oldLen uint64, newLen uint64, movePermitted bool) uintptr {
	if ptr == 0 {
		return 0
	}
	old := unsafeSlice(ptr, oldLen)

	flags := 0
	if movePermitted {
		flags = unix.MREMAP_MAYMOVE
	}
	b, err := unix.Mremap(old, int(newLen), flags)
	if err != nil {
		return 0
	}
	return ptrOf(b)
}
