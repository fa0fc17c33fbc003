// Package slab implements the allocator engine: per-bucket dual free
// lists and the four public operations (Alloc, Free, Resize, Remap) that
// drive them. The allocator is single-threaded and holds no locks of its
// own.
package slab

import (
	"fmt"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/povilasv/slaballoc/bucket"
	"github.com/povilasv/slaballoc/pagemap"
	"github.com/povilasv/slaballoc/sizeclass"
	"github.com/povilasv/slaballoc/stats"
)

var errOversize = "oversize request: size class %s exceeds the largest configured bucket %s"

// bucketState is the per-bucket dual free-list state.
type bucketState struct {
	recycledHead  uintptr
	recycledCount uint64
	brandNewHead  uintptr
	brandNewCount uint64
}

// Allocator is the compiled allocator type produced by New. It is not safe
// for concurrent use.
type Allocator struct {
	tables   *bucket.Tables
	buckets  []bucketState
	mapper   pagemap.Mapper
	behavior LargeBehavior
	logger   Logger

	track bool
	stats stats.Stats
}

// New validates cfg and compiles an Allocator. Misconfiguration is always a
// construction-time failure; it never surfaces as a runtime panic.
func New(cfg Config) (*Allocator, error) {
	tables, err := bucket.Compile(cfg.Buckets)
	if err != nil {
		return nil, errors.Wrap(err, "invalid bucket configuration")
	}

	mapper := cfg.Mapper
	if mapper == nil {
		mapper = pagemap.OS{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	a := &Allocator{
		tables:   tables,
		buckets:  make([]bucketState, tables.BucketCount()),
		mapper:   mapper,
		behavior: cfg.LargeBehavior,
		logger:   logger,
		track:    cfg.TrackStatistics,
	}
	if a.track {
		a.stats = stats.New(tables.BucketCount())
	}
	return a, nil
}

// Stats returns a snapshot of the statistics tracker. Its fields are all
// zero when tracking was not enabled at construction time.
func (a *Allocator) Stats() stats.Stats {
	s := a.stats
	s.Buckets = append([]stats.Bucket(nil), a.stats.Buckets...)
	return s
}

// TrackingStatistics reports whether Config.TrackStatistics was set at
// construction time.
func (a *Allocator) TrackingStatistics() bool {
	return a.track
}

// Tables exposes the compiled bucket tables, for the report writer and for
// callers that want to inspect the size-class layout.
func (a *Allocator) Tables() *bucket.Tables {
	return a.tables
}

// FreeListSnapshot is the free-list depth for one bucket at the moment of
// the call, for the report writer.
type FreeListSnapshot struct {
	RecycledCount uint64
	BrandNewCount uint64
}

// FreeLists returns a snapshot of every bucket's free-list depth.
func (a *Allocator) FreeLists() []FreeListSnapshot {
	out := make([]FreeListSnapshot, len(a.buckets))
	for i, bs := range a.buckets {
		out[i] = FreeListSnapshot{RecycledCount: bs.recycledCount, BrandNewCount: bs.brandNewCount}
	}
	return out
}

func readWord(p uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(p))
}

func writeWord(p uintptr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(p)) = v
}

func (a *Allocator) classOf(length, alignment uint64) int {
	return bucket.ClassOf(length, alignment, a.tables.SmallestBlockLog2)
}

// Alloc returns a pointer to at least len bytes aligned to alignment, or 0
// on out-of-memory. Contents are uninitialized.
func (a *Allocator) Alloc(length, alignment uint64) uintptr {
	k := a.classOf(length, alignment)
	if a.tables.IsLarge(k) {
		return a.allocLarge(length, alignment, k)
	}
	b := a.tables.BucketIndex(k)
	return a.allocFromBucket(b, length)
}

// allocFromBucket runs the three ordered fast-path branches: recycle, then
// bump-pointer, then map-a-new-slab. The ordering is a likelihood hint to
// the reader, not a correctness requirement - very likely (recycle), less
// likely (brand-new), rare (a fresh slab map).
func (a *Allocator) allocFromBucket(b int, requestedLen uint64) uintptr {
	bs := &a.buckets[b]

	if bs.recycledCount > 0 {
		p := bs.recycledHead
		bs.recycledHead = readWord(p)
		bs.recycledCount--
		if a.track {
			a.stats.RecordAlloc(b, requestedLen, false)
		}
		return p
	}

	if bs.brandNewCount > 0 {
		p := bs.brandNewHead
		bs.brandNewHead += a.tables.BlockBytes[b]
		bs.brandNewCount--
		if a.track {
			a.stats.RecordAlloc(b, requestedLen, false)
		}
		return p
	}

	slabBase := a.mapper.Map(a.tables.SlabBytes[b], a.tables.BlockBytes[b])
	if slabBase == 0 {
		return 0
	}
	a.logger.Debugf("slab: mapped new slab for bucket %d (block %s)", b, sizeclass.Name(a.tables.BlockLog2[b]))

	bs.brandNewHead = slabBase + a.tables.BlockBytes[b]
	bs.brandNewCount = a.tables.ExtraBlocksPerSlab[b]
	if a.track {
		a.stats.RecordAlloc(b, requestedLen, true)
	}
	return slabBase
}

// Free returns ptr, previously obtained with the same (len, alignment), to
// its bucket's recycled list. ptr is trusted; the allocator performs no
// validation against it.
func (a *Allocator) Free(ptr uintptr, length, alignment uint64) {
	if ptr == 0 {
		return
	}
	k := a.classOf(length, alignment)
	if a.tables.IsLarge(k) {
		a.freeLarge(ptr, length, k)
		return
	}
	b := a.tables.BucketIndex(k)
	bs := &a.buckets[b]

	writeWord(ptr, bs.recycledHead)
	bs.recycledHead = ptr
	bs.recycledCount++
	if a.track {
		a.stats.RecordFree(b, length)
	}
}

// Resize reports whether (newLen, alignment) maps to the same bucket as
// (oldLen, alignment) - the in-place resize test. It never copies or moves
// data.
func (a *Allocator) Resize(_ uintptr, oldLen, alignment, newLen uint64) bool {
	kOld := a.classOf(oldLen, alignment)
	kNew := a.classOf(newLen, alignment)

	oldLarge := a.tables.IsLarge(kOld)
	newLarge := a.tables.IsLarge(kNew)
	if oldLarge || newLarge {
		return a.resizeLarge(oldLen, newLen, kOld, kNew)
	}

	bOld := a.tables.BucketIndex(kOld)
	bNew := a.tables.BucketIndex(kNew)
	ok := bOld == bNew
	if bNew > bOld && a.track {
		a.stats.RecordRejectedResize(bOld)
	}
	return ok
}

// Remap returns ptr unchanged if (newLen, alignment) maps to the same
// bucket as (oldLen, alignment), or 0 otherwise. The allocator never
// allocates a replacement block itself; the caller falls back to
// alloc/copy/free.
func (a *Allocator) Remap(ptr uintptr, oldLen, alignment, newLen uint64) uintptr {
	kOld := a.classOf(oldLen, alignment)
	kNew := a.classOf(newLen, alignment)

	oldLarge := a.tables.IsLarge(kOld)
	newLarge := a.tables.IsLarge(kNew)
	if oldLarge || newLarge {
		return a.remapLarge(ptr, oldLen, newLen, kOld, kNew)
	}

	bOld := a.tables.BucketIndex(kOld)
	bNew := a.tables.BucketIndex(kNew)
	if bOld == bNew {
		return ptr
	}
	if bNew > bOld && a.track {
		a.stats.RecordRejectedResize(bOld)
	}
	return 0
}

func (a *Allocator) oversizeMessage(k int) string {
	return fmt.Sprintf(errOversize, sizeclass.Name(k), sizeclass.Name(a.tables.LargestBlockLog2))
}
