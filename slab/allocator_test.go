package slab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/povilasv/slaballoc/bucket"
	"github.com/povilasv/slaballoc/pagemap"
)

func twoBucketConfig(t *testing.T, behavior LargeBehavior) (*Allocator, *pagemap.Arena) {
	t.Helper()
	arena := pagemap.NewArena()
	a, err := New(Config{
		Buckets: []bucket.Bucket{
			{BlockSize: 128, SlabSize: 4096},
			{BlockSize: 1024, SlabSize: 16384},
		},
		LargeBehavior:   behavior,
		TrackStatistics: true,
		Mapper:          arena,
	})
	require.NoError(t, err)
	return a, arena
}

func TestAllocCarvesFreshSlab(t *testing.T) {
	a, arena := twoBucketConfig(t, UsePageAllocator)

	p1 := a.Alloc(6, 1)
	require.NotZero(t, p1)
	assert.Zero(t, p1%128)
	assert.Equal(t, uint64(0), a.buckets[0].recycledCount)
	assert.Equal(t, uint64(31), a.buckets[0].brandNewCount)
	assert.Equal(t, 1, arena.MapCount())

	p2 := a.Alloc(7, 1)
	assert.Equal(t, p1+128, p2)
	assert.Equal(t, uint64(30), a.buckets[0].brandNewCount)
	assert.Equal(t, 1, arena.MapCount())
}

func TestFreeThenAllocReuse(t *testing.T) {
	a, _ := twoBucketConfig(t, UsePageAllocator)

	p1 := a.Alloc(6, 1)
	a.Free(p1, 6, 1)
	assert.Equal(t, p1, a.buckets[0].recycledHead)
	assert.Equal(t, uint64(1), a.buckets[0].recycledCount)

	p2 := a.Alloc(5, 1)
	assert.Equal(t, p1, p2)
	assert.Equal(t, uint64(0), a.buckets[0].recycledCount)
}

func TestLargeRequestRoutesToSecondBucket(t *testing.T) {
	a, arena := twoBucketConfig(t, UsePageAllocator)

	p := a.Alloc(129, 1)
	require.NotZero(t, p)
	assert.Zero(t, p%1024)
	assert.Equal(t, uint64(15), a.buckets[1].brandNewCount)
	assert.Equal(t, 1, arena.MapCount())
}

func TestResizeAndRemapAreClassTests(t *testing.T) {
	a, _ := twoBucketConfig(t, UsePageAllocator)

	p1 := a.Alloc(6, 1)

	assert.True(t, a.Resize(p1, 5, 1, 128))
	assert.False(t, a.Resize(p1, 5, 1, 129))
	assert.Zero(t, a.Remap(p1, 5, 1, 129))
}

func TestPanicOversizeMessageNamesSizeClass(t *testing.T) {
	a, _ := twoBucketConfig(t, Panic)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		msg, ok := r.(string)
		require.True(t, ok)
		assert.Contains(t, msg, "2 kilobytes")
	}()
	a.Alloc(2048, 1)
}

// TestSlabCarvingDoesNotRemapWithinOneSlab checks that once a slab is
// mapped for a bucket, the next blocks_per_slab-1 allocations must not
// call Map again.
func TestSlabCarvingDoesNotRemapWithinOneSlab(t *testing.T) {
	a, arena := twoBucketConfig(t, UsePageAllocator)

	blocksPerSlab := a.tables.BlocksPerSlab[0]
	for i := uint64(0); i < blocksPerSlab; i++ {
		p := a.Alloc(6, 1)
		require.NotZero(t, p)
	}
	assert.Equal(t, 1, arena.MapCount())

	// the next allocation must carve a second slab.
	a.Alloc(6, 1)
	assert.Equal(t, 2, arena.MapCount())
}

func TestBucketDisjointness(t *testing.T) {
	a, _ := twoBucketConfig(t, UsePageAllocator)

	p0 := a.Alloc(6, 1)
	p1 := a.Alloc(129, 1)
	a.Free(p0, 6, 1)
	a.Free(p1, 129, 1)

	assert.Equal(t, p0, a.buckets[0].recycledHead)
	assert.Equal(t, p1, a.buckets[1].recycledHead)
	assert.NotEqual(t, a.buckets[0].recycledHead, a.buckets[1].recycledHead)
}

func TestStatsTrackLiveBlocksAndBytes(t *testing.T) {
	a, _ := twoBucketConfig(t, UsePageAllocator)

	p := a.Alloc(6, 1)
	st := a.Stats()
	assert.Equal(t, uint64(128), st.Process.CurrentBytes)
	assert.Equal(t, uint64(1), st.Buckets[0].CurrentLiveBlocks)

	a.Free(p, 6, 1)
	st = a.Stats()
	assert.Equal(t, uint64(0), st.Process.CurrentBytes)
	assert.Equal(t, uint64(0), st.Buckets[0].CurrentLiveBlocks)
}

func TestNewRejectsInvalidBuckets(t *testing.T) {
	_, err := New(Config{Buckets: nil})
	assert.Error(t, err)
}
