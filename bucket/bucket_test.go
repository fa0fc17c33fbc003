package bucket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoBucketConfig() []Bucket {
	return []Bucket{
		{BlockSize: 128, SlabSize: 4096},
		{BlockSize: 1024, SlabSize: 16384},
	}
}

func TestCompileRejectsEmpty(t *testing.T) {
	_, err := Compile(nil)
	require.Error(t, err)
}

func TestCompileRejectsNonIncreasing(t *testing.T) {
	_, err := Compile([]Bucket{
		{BlockSize: 128, SlabSize: 4096},
		{BlockSize: 128, SlabSize: 4096},
	})
	require.Error(t, err)
}

func TestCompileRejectsTooSmallBlock(t *testing.T) {
	_, err := Compile([]Bucket{{BlockSize: 4, SlabSize: 4096}})
	require.Error(t, err)
}

func TestCompileRejectsBlockLargerThanSlab(t *testing.T) {
	_, err := Compile([]Bucket{{BlockSize: 8192, SlabSize: 4096}})
	require.Error(t, err)
}

func TestCompileRejectsTinySlab(t *testing.T) {
	_, err := Compile([]Bucket{{BlockSize: 128, SlabSize: 512}})
	require.Error(t, err)
}

func TestCompileTwoBuckets(t *testing.T) {
	tbl, err := Compile(twoBucketConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.BucketCount())
	assert.Equal(t, []uint64{128, 1024}, tbl.BlockBytes)
	assert.Equal(t, []uint64{4096, 16384}, tbl.SlabBytes)
	assert.Equal(t, []uint64{32, 16}, tbl.BlocksPerSlab)
	assert.Equal(t, []uint64{31, 15}, tbl.ExtraBlocksPerSlab)
	assert.Equal(t, 7, tbl.SmallestBlockLog2)
	assert.Equal(t, 10, tbl.LargestBlockLog2)
}

func TestSizeLog2ToBucket(t *testing.T) {
	tbl, err := Compile(twoBucketConfig())
	require.NoError(t, err)

	for k := 0; k <= 7; k++ {
		assert.Equal(t, 0, tbl.BucketIndex(k), "k=%d", k)
	}
	for k := 8; k <= 10; k++ {
		assert.Equal(t, 1, tbl.BucketIndex(k), "k=%d", k)
	}
}

func TestClassOfFloorsToSmallestBucket(t *testing.T) {
	tbl, err := Compile(twoBucketConfig())
	require.NoError(t, err)

	k := ClassOf(6, 1, tbl.SmallestBlockLog2)
	assert.Equal(t, tbl.SmallestBlockLog2, k)
	assert.Equal(t, 0, tbl.BucketIndex(k))
}

func TestClassOfLargeRequest(t *testing.T) {
	tbl, err := Compile(twoBucketConfig())
	require.NoError(t, err)

	k := ClassOf(2048, 1, tbl.SmallestBlockLog2)
	assert.True(t, tbl.IsLarge(k))
}

func TestPowersOfTwo(t *testing.T) {
	bs := PowersOfTwo(64, 4, 4096)
	require.Len(t, bs, 4)
	assert.Equal(t, []uint64{64, 128, 256, 512}, []uint64{bs[0].BlockSize, bs[1].BlockSize, bs[2].BlockSize, bs[3].BlockSize})
}
