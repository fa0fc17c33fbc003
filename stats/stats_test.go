package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordAllocTracksPeaks(t *testing.T) {
	s := New(1)

	s.RecordAlloc(0, 128, true)
	s.RecordAlloc(0, 256, false)

	assert.Equal(t, uint64(128), s.Process.SmallestEver)
	assert.Equal(t, uint64(256), s.Process.LargestEver)
	assert.Equal(t, uint64(384), s.Process.CurrentBytes)
	assert.Equal(t, uint64(384), s.Process.PeakBytes)
	assert.Equal(t, uint64(2), s.Buckets[0].CurrentLiveBlocks)
	assert.Equal(t, uint64(1), s.Buckets[0].CurrentLiveSlabs)

	s.RecordFree(0, 128)
	assert.Equal(t, uint64(256), s.Process.CurrentBytes)
	assert.Equal(t, uint64(384), s.Process.PeakBytes, "peak must not decrease on free")
	assert.Equal(t, uint64(1), s.Buckets[0].CurrentLiveBlocks)
}

func TestRecordRejectedResize(t *testing.T) {
	s := New(2)
	s.RecordRejectedResize(0)
	s.RecordRejectedResize(0)
	s.RecordRejectedResize(1)

	assert.Equal(t, uint64(2), s.Buckets[0].RejectedResizes)
	assert.Equal(t, uint64(1), s.Buckets[1].RejectedResizes)
}

func TestRecordLargeAllocAndResize(t *testing.T) {
	s := New(0)

	s.RecordLargeAlloc(4096)
	s.RecordLargeAlloc(8192)
	assert.Equal(t, uint64(4096), s.Large.SmallestEver)
	assert.Equal(t, uint64(8192), s.Large.LargestEver)
	assert.Equal(t, uint64(2), s.Large.CurrentCount)
	assert.Equal(t, uint64(12288), s.Large.CurrentBytes)

	s.RecordLargeResize(4096, 8192)
	assert.Equal(t, uint64(4096), s.Large.LargestGrow)

	s.RecordLargeResize(8192, 2048)
	assert.Equal(t, uint64(6144), s.Large.LargestShrink)

	s.RecordLargeFree(8192)
	assert.Equal(t, uint64(1), s.Large.CurrentCount)
	assert.Equal(t, uint64(2), s.Large.PeakCount)
}
