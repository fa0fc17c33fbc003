package slab

import (
	"github.com/povilasv/slaballoc/bucket"
	"github.com/povilasv/slaballoc/hint"
	"github.com/povilasv/slaballoc/pagemap"
)

// Logger is the narrow slice of github.com/prometheus/common/log.Logger
// the allocator actually calls: one debug line per freshly mapped slab.
// Any prometheus/common/log.Logger value satisfies this interface as-is;
// it is declared locally so the core engine does not have to import the
// logging package just to accept one.
type Logger interface {
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}

// LargeBehavior selects how the allocator handles a request whose size
// class exceeds the largest configured bucket.
type LargeBehavior int

const (
	// UsePageAllocator delegates the request straight to the Mapper.
	UsePageAllocator LargeBehavior = iota
	// Panic fails the request with a descriptive message naming the
	// request's size class and the largest supported class.
	Panic
	// Unreachable asserts the caller guarantees no large request ever
	// arrives. The range check still runs; a large request that reaches
	// it panics with a message naming the violated caller contract.
	Unreachable
)

// Config is the type-level parameter set that produces a concrete
// Allocator.
type Config struct {
	// Buckets is the ordered list of size classes; see bucket.Compile for
	// the validation rules applied to it.
	Buckets []bucket.Bucket

	// LargeBehavior selects the large-allocation dispatch policy.
	LargeBehavior LargeBehavior

	// TrackStatistics enables the statistics tracker. Leave false for zero
	// added footprint on the hot paths.
	TrackStatistics bool

	// Mapper is the external page-mapper collaborator. Defaults to
	// pagemap.OS{} when nil.
	Mapper pagemap.Mapper

	// Logger receives one debug line per freshly mapped slab. Never
	// touched on the recycled/brand-new fast paths. Defaults to a no-op
	// logger when nil.
	Logger Logger

	// Hints are advisory branch-likelihood predictions; New does not keep
	// them and the allocator never changes behavior because of them.
	HintLargeAllocation  hint.Likelihood
	HintRecycledFreeList hint.Likelihood
	HintBrandNewFreeList hint.Likelihood
	HintLogUsageStats    hint.Likelihood
}
