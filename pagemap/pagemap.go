// Package pagemap defines the external collaborator the allocator core
// delegates to for actual memory: map/unmap/realloc over raw pages. The
// allocator itself never calls mmap directly; it only ever talks to a
// Mapper.
package pagemap

import "unsafe"

// Mapper is the page-mapper collaborator the allocator is configured with.
// len and alignment are byte counts; ptr 0 is the null sentinel.
type Mapper interface {
	// Map requests len bytes aligned to alignment from the OS. Returns 0
	// on failure.
	Map(len uint64, alignment uint64) uintptr

	// Unmap releases a region previously returned by Map or Realloc.
	Unmap(ptr uintptr, len uint64)

	// Realloc resizes an existing mapping from oldLen to newLen bytes. If
	// movePermitted is false the implementation must not relocate the
	// mapping; it returns 0 if it cannot satisfy newLen in place. Returns
	// 0 on failure either way.
	Realloc(ptr uintptr, oldLen uint64, newLen uint64, movePermitted bool) uintptr
}

// ptrOf converts a byte slice's backing array address to a uintptr. Kept
// as a single helper so the two Mapper implementations share one (audited)
// unsafe conversion site.
func ptrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// unsafeSlice is the inverse of ptrOf: it reconstitutes a []byte view over
// n bytes starting at ptr, for implementations that need to read or write
// through a raw address handed back by Map/Realloc.
func unsafeSlice(ptr uintptr, n uint64) []byte {
	if ptr == 0 || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), int(n))
}
