package pagemap

import "sync"

// Arena is an in-memory Mapper backed by plain Go byte slices, grounded on
// the pack's in-memory-Filer pattern (an in-process stand-in for a real
// storage/page backend). Unlike a synthetic address space, Arena hands out
// the real address of a live Go-heap allocation: the allocator's free-list
// discipline writes a link pointer directly through the address it is
// given, so a test double that can't be dereferenced would not exercise
// the same code paths as production. Each backing slice is retained in
// spans so the garbage collector never reclaims it out from under an
// address the allocator still considers mapped.
type Arena struct {
	mu    sync.Mutex
	spans map[uintptr][]byte
}

var _ Mapper = (*Arena)(nil)

// NewArena returns an empty Arena.
func NewArena() *Arena {
	return &Arena{spans: make(map[uintptr][]byte)}
}

// Map allocates a fresh, zeroed region of length bytes aligned to
// alignment, by over-allocating and trimming the unused lead, the same
// trick the real OS mapper uses for over-page alignment.
func (a *Arena) Map(length uint64, alignment uint64) uintptr {
	if alignment == 0 {
		alignment = 1
	}
	raw := make([]byte, length+alignment)
	base := ptrOf(raw)
	aligned := (base + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)
	lead := aligned - base

	a.mu.Lock()
	defer a.mu.Unlock()
	a.spans[aligned] = raw[lead : lead+uintptr(length)]
	return aligned
}

// Unmap forgets a mapping. Reusing its address afterward is undefined, same
// as the real OS mapper.
func (a *Arena) Unmap(ptr uintptr, _ uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.spans, ptr)
}

// Realloc grows or shrinks a mapping in place when the backing slice still
// has the capacity, or, if movePermitted, copies it to a fresh mapping.
func (a *Arena) Realloc(ptr uintptr, oldLen uint64, newLen uint64, movePermitted bool) uintptr {
	a.mu.Lock()
	old, ok := a.spans[ptr]
	a.mu.Unlock()
	if !ok {
		return 0
	}

	if newLen <= uint64(cap(old)) {
		a.mu.Lock()
		a.spans[ptr] = old[:newLen]
		a.mu.Unlock()
		return ptr
	}
	if !movePermitted {
		return 0
	}

	fresh := a.Map(newLen, 1)
	n := oldLen
	if newLen < n {
		n = newLen
	}
	a.mu.Lock()
	copy(a.spans[fresh], old[:n])
	delete(a.spans, ptr)
	a.mu.Unlock()
	return fresh
}

// MapCount reports how many live mappings the Arena currently holds, for
// assertions on slab-mapping behavior.
func (a *Arena) MapCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.spans)
}
