package dedup

import "math"

// DefaultNearThreshold is the similarity at or above which two rules are reported as
// near-duplicates.
const DefaultNearThreshold = 0.9

// DefaultClassPrefix names consolidated classes: .shared-1, .shared-2, ...
const DefaultClassPrefix = "shared"

// Unranked is the rank of paths that match no configured fragment.
const Unranked = math.MaxInt

// PriorityRule maps a directory-name fragment to a rank, lower is more canonical
type PriorityRule struct {
	Fragment string
	Rank     int
}

// PathPriority is checked in declared order; the first fragment found in a path wins.
type PathPriority []PriorityRule

// DefaultPathPriority returns the stock priority table.
func DefaultPathPriority() PathPriority {
	return PathPriority{
		{Fragment: "components/", Rank: 1},
		{Fragment: "base/", Rank: 1},
		{Fragment: "layout/", Rank: 2},
		{Fragment: "utilities/", Rank: 2},
		{Fragment: "features/", Rank: 3},
		{Fragment: "pages/", Rank: 4},
	}
}

// Options configures one analysis pass. It is passed by value and never mutated by the
// engine.
type Options struct {
	PathPriority  PathPriority
	NearThreshold float64
	ClassPrefix   string
	SkipNear      bool
}

// DefaultOptions returns options matching the stock behavior.
func DefaultOptions() Options {
	return Options{
		PathPriority:  DefaultPathPriority(),
		NearThreshold: DefaultNearThreshold,
		ClassPrefix:   DefaultClassPrefix,
	}
}

func (o Options) classPrefix() string {
	if o.ClassPrefix == "" {
		return DefaultClassPrefix
	}
	return o.ClassPrefix
}
