// Package stats is the optional statistics tracker: a fixed-layout
// aggregate updated in place from the allocator's hot paths. It has no
// behavior of its own beyond addition/comparison, so that enabling it
// costs nothing the allocator isn't already paying for on its own fast
// path (a pointer dereference and a handful of adds).
package stats

// Process holds the process-wide counters.
type Process struct {
	CurrentBytes uint64
	PeakBytes    uint64
	SmallestEver uint64
	LargestEver  uint64
}

// Bucket holds the per-bucket counters.
type Bucket struct {
	SmallestEver      uint64
	LargestEver       uint64
	CurrentLiveBlocks uint64
	PeakLiveBlocks    uint64
	CurrentLiveSlabs  uint64
	PeakLiveSlabs     uint64
	RejectedResizes   uint64
}

// Large holds the counters for page-mapper-delegated requests. Only
// meaningful when the allocator's LargeBehavior is UsePageAllocator.
type Large struct {
	SmallestEver  uint64
	LargestEver   uint64
	CurrentBytes  uint64
	PeakBytes     uint64
	CurrentCount  uint64
	PeakCount     uint64
	LargestGrow   uint64
	LargestShrink uint64
}

// Stats is the full aggregate: one Process total, one Bucket entry per
// configured bucket, and one Large entry for oversize traffic.
type Stats struct {
	Process Process
	Buckets []Bucket
	Large   Large
}

// New returns a zeroed Stats sized for n buckets.
func New(n int) Stats {
	return Stats{Buckets: make([]Bucket, n)}
}

func bump(cur *uint64, peak *uint64, delta int64) {
	if delta >= 0 {
		*cur += uint64(delta)
	} else {
		*cur -= uint64(-delta)
	}
	if *cur > *peak {
		*peak = *cur
	}
}

func track(smallest, largest *uint64, n uint64) {
	if *smallest == 0 || n < *smallest {
		*smallest = n
	}
	if n > *largest {
		*largest = n
	}
}

// RecordAlloc updates process and per-bucket counters for a request of n
// bytes served from bucket b, optionally from a freshly mapped slab.
func (s *Stats) RecordAlloc(b int, n uint64, newSlab bool) {
	track(&s.Process.SmallestEver, &s.Process.LargestEver, n)
	bump(&s.Process.CurrentBytes, &s.Process.PeakBytes, int64(n))

	bk := &s.Buckets[b]
	track(&bk.SmallestEver, &bk.LargestEver, n)
	bump(&bk.CurrentLiveBlocks, &bk.PeakLiveBlocks, 1)
	if newSlab {
		bump(&bk.CurrentLiveSlabs, &bk.PeakLiveSlabs, 1)
	}
}

// RecordFree updates process and per-bucket counters for a freed request of
// n bytes previously served from bucket b.
func (s *Stats) RecordFree(b int, n uint64) {
	bump(&s.Process.CurrentBytes, &s.Process.PeakBytes, -int64(n))
	bump(&s.Buckets[b].CurrentLiveBlocks, &s.Buckets[b].PeakLiveBlocks, -1)
}

// RecordRejectedResize counts a resize/remap attempt that would have
// demanded a larger bucket than the one it started in.
func (s *Stats) RecordRejectedResize(b int) {
	s.Buckets[b].RejectedResizes++
}

// RecordLargeAlloc updates the large-allocation counters for a new
// page-mapper-delegated request of n bytes.
func (s *Stats) RecordLargeAlloc(n uint64) {
	track(&s.Large.SmallestEver, &s.Large.LargestEver, n)
	bump(&s.Large.CurrentBytes, &s.Large.PeakBytes, int64(n))
	bump(&s.Large.CurrentCount, &s.Large.PeakCount, 1)
}

// RecordLargeFree updates the large-allocation counters for a freed
// page-mapper-delegated request of n bytes.
func (s *Stats) RecordLargeFree(n uint64) {
	bump(&s.Large.CurrentBytes, &s.Large.PeakBytes, -int64(n))
	bump(&s.Large.CurrentCount, &s.Large.PeakCount, -1)
}

// RecordLargeResize updates the largest-grow/largest-shrink counters for an
// in-place resize attempt on a delegated allocation.
func (s *Stats) RecordLargeResize(oldLen, newLen uint64) {
	if newLen > oldLen {
		delta := newLen - oldLen
		if delta > s.Large.LargestGrow {
			s.Large.LargestGrow = delta
		}
		return
	}
	delta := oldLen - newLen
	if delta > s.Large.LargestShrink {
		s.Large.LargestShrink = delta
	}
}
