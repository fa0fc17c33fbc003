// Package bucket validates a user-supplied list of size classes and
// compiles it into the immutable lookup tables the allocator consults on
// every hot-path call.
package bucket

import (
	"github.com/pkg/errors"

	"github.com/povilasv/slaballoc/sizeclass"
)

// wordSize is the minimum block size this package will accept: a free
// block's link pointer must fit inside it.
const wordSize = 8

// osPageSize is the minimum slab size this package will accept. It is a
// constant rather than a syscall.Getpagesize() read because the validator
// is meant to reject obviously-wrong configs at construction time on any
// platform, not to second-guess the page mapper the allocator is paired
// with.
const osPageSize = 4096

var (
	errEmptyBuckets  = "bucket list is empty"
	errNotIncreasing = "bucket %d: block_size %s is not strictly greater than bucket %d's block_size %s"
	errTooSmall      = "bucket %d: block_size %s is smaller than the machine word size (%s)"
	errBlockGTSlab   = "bucket %d: block_size %s is larger than its own slab_size %s"
	errSlabTooSmall  = "bucket %d: slab_size %s is smaller than the minimum OS page size (%s)"
)

// Bucket is one size class: a fixed block size carved out of a fixed slab
// size.
type Bucket struct {
	BlockSize uint64
	SlabSize  uint64
}

// PowersOfTwo builds a Bucket list whose block sizes double starting at
// blockSize, for n buckets, each with the given slab size. It is a
// convenience over specifying every (block_size, slab_size) pair by hand.
func PowersOfTwo(blockSize uint64, n int, slabSize uint64) []Bucket {
	out := make([]Bucket, n)
	size := blockSize
	for i := 0; i < n; i++ {
		out[i] = Bucket{BlockSize: size, SlabSize: slabSize}
		size *= 2
	}
	return out
}

// Tables are the derived, immutable lookup tables compiled once from a
// validated bucket list.
type Tables struct {
	Buckets []Bucket

	BlockBytes          []uint64
	BlockLog2           []int
	SlabBytes           []uint64
	BlocksPerSlab       []uint64
	ExtraBlocksPerSlab  []uint64
	SizeLog2ToBucket    []int
	SmallestBlockLog2   int
	LargestBlockLog2    int
}

// BucketCount returns the number of compiled buckets.
func (t *Tables) BucketCount() int {
	return len(t.Buckets)
}

// Compile validates buckets and builds the derived tables. buckets must be
// ordered by ascending block size; this is itself part of what is
// validated, not an assumption the caller must already guarantee.
func Compile(buckets []Bucket) (*Tables, error) {
	if len(buckets) == 0 {
		return nil, errors.New(errEmptyBuckets)
	}

	for i, b := range buckets {
		if b.BlockSize < wordSize {
			return nil, errors.Errorf(errTooSmall, i, sizeclass.Name(sizeclass.Of(b.BlockSize)), sizeclass.Name(sizeclass.Of(wordSize)))
		}
		if b.BlockSize > b.SlabSize {
			return nil, errors.Errorf(errBlockGTSlab, i, sizeclass.Name(sizeclass.Of(b.BlockSize)), sizeclass.Name(sizeclass.Of(b.SlabSize)))
		}
		if b.SlabSize < osPageSize {
			return nil, errors.Errorf(errSlabTooSmall, i, sizeclass.Name(sizeclass.Of(b.SlabSize)), sizeclass.Name(sizeclass.Of(osPageSize)))
		}
		if i > 0 && b.BlockSize <= buckets[i-1].BlockSize {
			return nil, errors.Errorf(errNotIncreasing, i, sizeclass.Name(sizeclass.Of(b.BlockSize)), i-1, sizeclass.Name(sizeclass.Of(buckets[i-1].BlockSize)))
		}
	}

	n := len(buckets)
	t := &Tables{
		Buckets:            append([]Bucket(nil), buckets...),
		BlockBytes:         make([]uint64, n),
		BlockLog2:          make([]int, n),
		SlabBytes:          make([]uint64, n),
		BlocksPerSlab:      make([]uint64, n),
		ExtraBlocksPerSlab: make([]uint64, n),
	}

	for i, b := range buckets {
		t.BlockBytes[i] = b.BlockSize
		t.BlockLog2[i] = sizeclass.Of(b.BlockSize)
		t.SlabBytes[i] = b.SlabSize
		t.BlocksPerSlab[i] = b.SlabSize / b.BlockSize
		t.ExtraBlocksPerSlab[i] = t.BlocksPerSlab[i] - 1
	}

	t.SmallestBlockLog2 = t.BlockLog2[0]
	t.LargestBlockLog2 = t.BlockLog2[n-1]

	// Single sweep: walk k upward, advancing the bucket index whenever k
	// exceeds the current bucket's block_log2.
	t.SizeLog2ToBucket = make([]int, t.LargestBlockLog2+1)
	b := 0
	for k := 0; k <= t.LargestBlockLog2; k++ {
		for t.BlockLog2[b] < k {
			b++
		}
		t.SizeLog2ToBucket[k] = b
	}

	return t, nil
}

// ClassOf returns the log2 size class for a request of len bytes at the
// given alignment (in bytes), floored at smallestBlockLog2. The length term
// is the ceiling log2 of len, computed with sizeclass.Of.
func ClassOf(len uint64, alignment uint64, smallestBlockLog2 int) int {
	lenLog2 := 0
	if len > 1 {
		lenLog2 = sizeclass.Of(len)
	}
	alignLog2 := sizeclass.Of(alignment)
	if alignment <= 1 {
		alignLog2 = 0
	}
	k := lenLog2
	if alignLog2 > k {
		k = alignLog2
	}
	if smallestBlockLog2 > k {
		k = smallestBlockLog2
	}
	return k
}

// IsLarge reports whether class k exceeds every configured bucket.
func (t *Tables) IsLarge(k int) bool {
	return k > t.LargestBlockLog2
}

// BucketIndex maps a size class k (k <= LargestBlockLog2) to its bucket.
func (t *Tables) BucketIndex(k int) int {
	return t.SizeLog2ToBucket[k]
}
