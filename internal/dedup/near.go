package dedup

// ruleIdentity is how a pair member is recognized when deduplicating pairs
type ruleIdentity struct {
	selector string
	file     string
}

func (r ruleIdentity) less(o ruleIdentity) bool {
	if r.selector != o.selector {
		return r.selector < o.selector
	}
	return r.file < o.file
}

// pairKey is the same for (a, b) and (b, a)
type pairKey struct {
	first, second ruleIdentity
}

func newPairKey(a, b RuleEntry) pairKey {
	x := ruleIdentity{selector: a.Selector, file: a.Source}
	y := ruleIdentity{selector: b.Selector, file: b.Source}
	if y.less(x) {
		x, y = y, x
	}
	return pairKey{first: x, second: y}
}

// FindNear compares every pair of entries with different fingerprints and returns those
// whose normalized bodies have a similarity of at least threshold. The scan is quadratic
// in the number of entries; pairs are reported in scan order (i < j).
func FindNear(entries []RuleEntry, threshold float64) []NearDuplicatePair {
	var pairs []NearDuplicatePair
	seen := make(map[pairKey]struct{})

	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if a.Fingerprint == b.Fingerprint {
				continue // exact duplicates are grouped elsewhere
			}
			key := newPairKey(a, b)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			if ratioBound(a.NormalizedBody, b.NormalizedBody) < threshold {
				continue
			}
			ratio := Similarity(a.NormalizedBody, b.NormalizedBody)
			if ratio >= threshold {
				pairs = append(pairs, NearDuplicatePair{A: a, B: b, Similarity: ratio})
			}
		}
	}
	return pairs
}
