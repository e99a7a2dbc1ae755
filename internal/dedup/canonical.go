package dedup

import (
	"cmp"
	"strings"
)

// Score orders candidate locations for the canonical rule; smaller is more canonical
type Score struct {
	Rank  int
	Depth int
	Path  string
}

// Compare orders scores by rank, then depth, then path text.
func (s Score) Compare(o Score) int {
	if c := cmp.Compare(s.Rank, o.Rank); c != 0 {
		return c
	}
	if c := cmp.Compare(s.Depth, o.Depth); c != 0 {
		return c
	}
	return cmp.Compare(s.Path, o.Path)
}

// Less reports whether s sorts before o.
func (s Score) Less(o Score) bool {
	return s.Compare(o) < 0
}

// Rank returns the rank of the first fragment, in declared order, that occurs anywhere in
// the slash-separated path, or Unranked.
func (p PathPriority) Rank(slashPath string) int {
	for _, rule := range p {
		if rule.Fragment != "" && strings.Contains(slashPath, rule.Fragment) {
			return rule.Rank
		}
	}
	return Unranked
}

// ScorePath computes the canonical score of a file path.
func ScorePath(path string, priority PathPriority) Score {
	slashPath := strings.ReplaceAll(path, `\`, "/")
	return Score{
		Rank:  priority.Rank(slashPath),
		Depth: pathDepth(slashPath),
		Path:  slashPath,
	}
}

func pathDepth(slashPath string) int {
	depth := 0
	for part := range strings.SplitSeq(slashPath, "/") {
		if part != "" && part != "." {
			depth++
		}
	}
	return depth
}

// SelectCanonical picks the authoritative member of a group. Members sharing a score
// (rules of the same file) are ordered by selector, line and batch position so the choice
// does not depend on member order. It returns false for an empty group.
func SelectCanonical(members []RuleEntry, priority PathPriority) (RuleEntry, bool) {
	if len(members) == 0 {
		return RuleEntry{}, false
	}

	best, bestScore := members[0], ScorePath(members[0].Source, priority)
	for _, m := range members[1:] {
		score := ScorePath(m.Source, priority)
		c := score.Compare(bestScore)
		if c == 0 {
			c = compareSameScore(m, best)
		}
		if c < 0 {
			best, bestScore = m, score
		}
	}
	return best, true
}

func compareSameScore(a, b RuleEntry) int {
	if c := cmp.Compare(a.Selector, b.Selector); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Line, b.Line); c != 0 {
		return c
	}
	return cmp.Compare(a.Ordinal, b.Ordinal)
}
