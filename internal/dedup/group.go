package dedup

import "fmt"

// GroupExact buckets entries by fingerprint and returns a group for every fingerprint
// seen more than once. Groups are numbered from 1 in the order their fingerprint first
// appears; members keep entry order.
func GroupExact(entries []RuleEntry, opts Options) []DuplicateGroup {
	var order []string
	buckets := make(map[string][]RuleEntry)
	for _, e := range entries {
		if _, ok := buckets[e.Fingerprint]; !ok {
			order = append(order, e.Fingerprint)
		}
		buckets[e.Fingerprint] = append(buckets[e.Fingerprint], e)
	}

	var groups []DuplicateGroup
	for _, fp := range order {
		members := buckets[fp]
		if len(members) < 2 {
			continue
		}
		canonical, _ := SelectCanonical(members, opts.PathPriority)
		number := len(groups) + 1
		groups = append(groups, DuplicateGroup{
			Number:         number,
			Fingerprint:    fp,
			NormalizedBody: members[0].NormalizedBody,
			ClassName:      fmt.Sprintf(".%s-%d", opts.classPrefix(), number),
			Members:        members,
			Canonical:      canonical,
		})
	}
	return groups
}

// Savings estimates how many bytes of declaration text the refactor plan removes: the
// normalized body of every member that is replaced by the shared class.
func Savings(groups []DuplicateGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.NormalizedBody) * (len(g.Members) - 1)
	}
	return total
}
