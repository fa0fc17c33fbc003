package slab

// Large-allocation dispatch. Every call here only runs once the caller's
// request has already been classified as exceeding the largest configured
// bucket - the ordinary bucket fast paths never call into this file.

func (a *Allocator) allocLarge(length, alignment uint64, k int) uintptr {
	switch a.behavior {
	case UsePageAllocator:
		p := a.mapper.Map(length, alignment)
		if p != 0 && a.track {
			a.stats.RecordLargeAlloc(length)
		}
		return p
	case Panic:
		panic(a.oversizeMessage(k))
	default: // Unreachable
		panic("slab: alloc reached the Unreachable large-allocation policy; caller contract violated")
	}
}

func (a *Allocator) freeLarge(ptr uintptr, length uint64, k int) {
	switch a.behavior {
	case UsePageAllocator:
		a.mapper.Unmap(ptr, length)
		if a.track {
			a.stats.RecordLargeFree(length)
		}
	case Panic:
		panic(a.oversizeMessage(k))
	default:
		panic("slab: free reached the Unreachable large-allocation policy; caller contract violated")
	}
}

// resizeLarge handles the resize/remap row where at least one side is a
// large request. Under UsePageAllocator, both-large succeeds only when
// newLen does not exceed oldLen; the mapper's Realloc is not called, so a
// grow always fails, even where the mapping could be extended in place.
// One-small-one-large always fails the class test, the same as any other
// cross-bucket resize.
func (a *Allocator) resizeLarge(oldLen, newLen uint64, kOld, kNew int) bool {
	oldLarge := a.tables.IsLarge(kOld)
	newLarge := a.tables.IsLarge(kNew)

	switch a.behavior {
	case UsePageAllocator:
		if !(oldLarge && newLarge) {
			return false
		}
		// A trial, non-moving realloc: success means the existing
		// mapping already covers newLen in place.
		return oldLen >= newLen
	case Panic:
		if oldLarge || newLarge {
			k := kOld
			if newLarge {
				k = kNew
			}
			panic(a.oversizeMessage(k))
		}
		return false
	default:
		panic("slab: resize reached the Unreachable large-allocation policy; caller contract violated")
	}
}

func (a *Allocator) remapLarge(ptr uintptr, oldLen, newLen uint64, kOld, kNew int) uintptr {
	oldLarge := a.tables.IsLarge(kOld)
	newLarge := a.tables.IsLarge(kNew)

	switch a.behavior {
	case UsePageAllocator:
		if !(oldLarge && newLarge) {
			return 0
		}
		p := a.mapper.Realloc(ptr, oldLen, newLen, true)
		if p != 0 && a.track {
			a.stats.RecordLargeResize(oldLen, newLen)
			a.stats.RecordLargeFree(oldLen)
			a.stats.RecordLargeAlloc(newLen)
		}
		return p
	case Panic:
		if oldLarge || newLarge {
			k := kOld
			if newLarge {
				k = kNew
			}
			panic(a.oversizeMessage(k))
		}
		return 0
	default:
		panic("slab: remap reached the Unreachable large-allocation policy; caller contract violated")
	}
}
