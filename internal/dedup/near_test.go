package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 0.75, Similarity("abcd", "bcde"))
	assert.Equal(t, 0.0, Similarity("", "abc"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("color: red;", "color: red;"))
	assert.Less(t, Similarity("color: red;", "color: rod;"), 1.0)
}

func TestSimilaritySymmetric(t *testing.T) {
	samples := []string{
		"",
		"color: red;",
		"color: red;\n  padding: 4px;",
		"color:red;\n  margin:2px;\n  padding:4px;",
		"color:red;\n  padding:4px;",
		"background: url(\"a.png\") no-repeat;\n  border: 1px solid #ccc;",
		"border: 1px solid #ccc;\n  background: url(\"b.png\") repeat;",
		"abab", "baba", "aabb",
	}
	for _, a := range samples {
		assert.Equal(t, 1.0, Similarity(a, a))
		for _, b := range samples {
			assert.Equal(t, Similarity(a, b), Similarity(b, a), "%q vs %q", a, b)
		}
	}
}

func TestSimilarityOneExtraDeclaration(t *testing.T) {
	a := Normalize("color:red;padding:4px;margin:2px;")
	b := Normalize("color:red;padding:4px;")
	require.Equal(t, "color:red;\n  margin:2px;\n  padding:4px;", a)
	require.Equal(t, "color:red;\n  padding:4px;", b)

	// 25 matching characters out of 39 + 25
	assert.Equal(t, 0.78125, Similarity(a, b))
}

func TestFindNearThresholdIsInclusive(t *testing.T) {
	entries := []RuleEntry{
		entry(".x", "color:red;padding:4px;margin:2px;", "a.css", 0),
		entry(".y", "color:red;padding:4px;", "b.css", 1),
	}

	pairs := FindNear(entries, 0.78125)
	require.Len(t, pairs, 1)
	assert.Equal(t, ".x", pairs[0].A.Selector)
	assert.Equal(t, ".y", pairs[0].B.Selector)
	assert.Equal(t, 0.78125, pairs[0].Similarity)
	assert.Equal(t, 0.781, pairs[0].Rounded())

	assert.Empty(t, FindNear(entries, 0.7813))
	assert.Empty(t, FindNear(entries, DefaultNearThreshold))
}

func TestRoundedHalvesToEven(t *testing.T) {
	tests := []struct {
		similarity float64
		want       float64
	}{
		{13.0 / 16, 0.812},
		{15.0 / 16, 0.938},
		{0.78125, 0.781},
		{2.0 / 3, 0.667},
		{1, 1},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NearDuplicatePair{Similarity: tt.similarity}.Rounded(), "similarity %v", tt.similarity)
	}
}

func TestFindNearSkipsExactDuplicates(t *testing.T) {
	entries := []RuleEntry{
		entry(".a", "color: red; padding: 4px", "a.css", 0),
		entry(".b", "padding: 4px; color: red", "b.css", 1),
	}
	assert.Empty(t, FindNear(entries, 0))
}

func TestFindNearReportsEachPairOnce(t *testing.T) {
	entries := []RuleEntry{
		entry(".a", "color: red; padding: 4px; margin: 0", "one.css", 0),
		entry(".b", "color: red; padding: 4px; margin: 1px", "two.css", 1),
		// same selector and file as the first entry, so its pair with .b shares a key
		entry(".a", "color: red; padding: 4px; margin: 2px", "one.css", 2),
	}

	pairs := FindNear(entries, 0.5)
	require.Len(t, pairs, 2)
	assert.Equal(t, [2]int{0, 1}, [2]int{pairs[0].A.Ordinal, pairs[0].B.Ordinal})
	assert.Equal(t, [2]int{0, 2}, [2]int{pairs[1].A.Ordinal, pairs[1].B.Ordinal})
}

func TestFindNearEmpty(t *testing.T) {
	assert.Empty(t, FindNear(nil, DefaultNearThreshold))
	assert.Empty(t, FindNear([]RuleEntry{entry(".a", "x: 1", "a.css", 0)}, DefaultNearThreshold))
}

func TestRatioBound(t *testing.T) {
	assert.Equal(t, 1.0, ratioBound("", ""))
	assert.Equal(t, 0.78125, ratioBound("color:red;\n  margin:2px;\n  padding:4px;", "color:red;\n  padding:4px;"))
	assert.GreaterOrEqual(t, ratioBound("abcd", "bcde"), Similarity("abcd", "bcde"))
}
