package dedup

import (
	"fmt"
	"strconv"
)

// Source is one stylesheet handed to the engine, already decoded to text.
type Source struct {
	Path string
	Text string
}

// RuleEntry is a parsed rule block with its canonical body and fingerprint
type RuleEntry struct {
	Selector       string
	NormalizedBody string
	Fingerprint    string
	Source         string // path of the file the rule came from
	Line           int    // 1-based line of the selector
	Ordinal        int    // position in the analysis batch
}

// Action tells what the refactor plan proposes for a group member
type Action int

const (
	ActionReplace Action = iota
	ActionKeep
)

// Describe renders the action the way the refactor plan spells it.
func (a Action) Describe(className string) string {
	if a == ActionKeep {
		return "keep full block (canonical)"
	}
	return "replace/remove and use " + className
}

func (a Action) String() string {
	if a == ActionKeep {
		return "keep"
	}
	return "replace"
}

// DuplicateGroup holds all rules sharing one fingerprint
type DuplicateGroup struct {
	Number         int // 1-based, discovery order
	Fingerprint    string
	NormalizedBody string
	ClassName      string // e.g. ".shared-3"
	Members        []RuleEntry
	Canonical      RuleEntry
}

// MemberRecord is one line of the refactor plan
type MemberRecord struct {
	SharedClass       string
	CanonicalSelector string
	CanonicalFile     string
	Selector          string
	File              string
	Line              int
	Action            Action
}

// SharedBlockText returns the consolidated declaration block for the group.
func (g DuplicateGroup) SharedBlockText() string {
	return fmt.Sprintf("%s {\n  %s\n}\n\n", g.ClassName, g.NormalizedBody)
}

// IsCanonical reports whether e is the group's surviving rule.
func (g DuplicateGroup) IsCanonical(e RuleEntry) bool {
	return e.Ordinal == g.Canonical.Ordinal
}

// Records returns one refactor-plan record per member, in member order.
func (g DuplicateGroup) Records() []MemberRecord {
	records := make([]MemberRecord, 0, len(g.Members))
	for _, m := range g.Members {
		action := ActionReplace
		if g.IsCanonical(m) {
			action = ActionKeep
		}
		records = append(records, MemberRecord{
			SharedClass:       g.ClassName,
			CanonicalSelector: g.Canonical.Selector,
			CanonicalFile:     g.Canonical.Source,
			Selector:          m.Selector,
			File:              m.Source,
			Line:              m.Line,
			Action:            action,
		})
	}
	return records
}

// NearDuplicatePair is an unordered pair of rules with similar bodies
type NearDuplicatePair struct {
	A          RuleEntry
	B          RuleEntry
	Similarity float64
}

// Rounded returns the similarity rounded to 3 decimals for reporting. Exact halves round
// to even, so 0.8125 becomes 0.812.
func (p NearDuplicatePair) Rounded() float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(p.Similarity, 'f', 3, 64), 64)
	return r
}

// FileIrregularity is a parse problem found while scanning one file
type FileIrregularity struct {
	File   string
	Line   int
	Kind   Irregularity
	Detail string
}

// Result is everything one analysis pass produces
type Result struct {
	Entries        []RuleEntry
	Groups         []DuplicateGroup
	Near           []NearDuplicatePair
	Irregularities []FileIrregularity
}
