//go:build linux || darwin
// +build linux darwin

package pagemap

import (
	"golang.org/x/sys/unix"
)

// OS is the production Mapper: it services every request with an
// anonymous, private mmap. It never returns memory to the OS beyond what
// Unmap/Realloc shrink away - slabs are leaked for the life of the
// process.
type OS struct{}

var _ Mapper = OS{}

func mmapAnon(length int) ([]byte, error) {
	return unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// Map requests len bytes aligned to alignment. Alignment above the page
// size is achieved by over-mapping and trimming the unused slack, since
// mmap itself only guarantees page alignment.
func (OS) Map(length uint64, alignment uint64) uintptr {
	if alignment <= uint64(unix.Getpagesize()) {
		b, err := mmapAnon(int(length))
		if err != nil {
			return 0
		}
		return ptrOf(b)
	}

	over, err := mmapAnon(int(length + alignment))
	if err != nil {
		return 0
	}
	base := ptrOf(over)
	aligned := (base + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)

	if lead := aligned - base; lead > 0 {
		_ = unix.Munmap(over[:lead])
	}
	tailOff := aligned - base + uintptr(length)
	if tailOff < uintptr(len(over)) {
		_ = unix.Munmap(over[tailOff:])
	}
	return aligned
}

// Unmap releases a region mapped by Map or Realloc.
func (OS) Unmap(ptr uintptr, length uint64) {
	if ptr == 0 {
		return
	}
	_ = unix.Munmap(unsafeSlice(ptr, length))
}

// Realloc resizes an existing mapping. When movePermitted is false and the
// platform's mremap cannot grow in place, it reports failure rather than
// silently relocating.
func (OS) Realloc(ptr uintptr, oldLen uint64, newLen uint64, movePermitted bool) uintptr {
	return mremap(ptr, oldLen, newLen, movePermitted)
}
