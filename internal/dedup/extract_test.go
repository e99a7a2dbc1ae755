package dedup

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSingleRule(t *testing.T) {
	rules := slices.Collect(Extract(".btn { color: red; padding: 4px; }"))
	require.Len(t, rules, 1)
	assert.Equal(t, RawRule{Selector: ".btn", Body: "color: red; padding: 4px;", Line: 1}, rules[0])
}

func TestExtractKeepsOrderAndLines(t *testing.T) {
	text := `/* header */
.a { color: red }

.b,
.c {
  margin: 0;
}
`
	rules := slices.Collect(Extract(text))
	require.Len(t, rules, 2)

	// the comment before the first rule is part of its selector span
	assert.Equal(t, "/* header */\n.a", rules[0].Selector)
	assert.Equal(t, 1, rules[0].Line)

	assert.Equal(t, ".b,\n.c", rules[1].Selector)
	assert.Equal(t, "margin: 0;", rules[1].Body)
	assert.Equal(t, 4, rules[1].Line)
	assert.Equal(t, Regular, rules[1].Irregular)
}

func TestExtractEmptyAndBraceFree(t *testing.T) {
	for _, text := range []string{"", "   \n\t", "just some text; no braces", "}", "{"} {
		assert.Empty(t, slices.Collect(Extract(text)), "text %q", text)
	}
}

func TestExtractIsRestartable(t *testing.T) {
	seq := Extract(".a { x: 1 } .b { y: 2 }")
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestExtractStopsEarly(t *testing.T) {
	count := 0
	for range Extract(".a { x: 1 } .b { y: 2 } .c { z: 3 }") {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestExtractFlagsNestedBlocks(t *testing.T) {
	text := "@media (max-width: 600px) {\n  .a { color: red; }\n}\n.b { color: blue }"
	rules, irregular := ExtractAll("m.css", text)
	require.Len(t, rules, 2)

	assert.Equal(t, "@media (max-width: 600px)", rules[0].Selector)
	assert.Equal(t, ".a { color: red;", rules[0].Body)
	assert.Equal(t, IrregularNested, rules[0].Irregular)

	// the stray closing brace of the media block ends up in the next selector
	assert.Equal(t, "}\n.b", rules[1].Selector)
	assert.Equal(t, IrregularNested, rules[1].Irregular)

	require.Len(t, irregular, 2)
	assert.Equal(t, "m.css", irregular[0].File)
	assert.Equal(t, 1, irregular[0].Line)
	assert.Equal(t, 3, irregular[1].Line)
}

func TestExtractEmptyBlockIsSkipped(t *testing.T) {
	rules := slices.Collect(Extract(".a {}\n.b { color: red }"))
	require.Len(t, rules, 1)
	assert.Equal(t, "}\n.b", rules[0].Selector)
	assert.Equal(t, "color: red", rules[0].Body)
}

func TestExtractAllReportsUnclosedBlock(t *testing.T) {
	rules, irregular := ExtractAll("u.css", ".a { color: red; }\n.b { color: blue;")
	require.Len(t, rules, 1)
	assert.Equal(t, ".a", rules[0].Selector)

	require.Len(t, irregular, 1)
	assert.Equal(t, IrregularUnclosed, irregular[0].Kind)
	assert.Equal(t, 2, irregular[0].Line)
	assert.Equal(t, "unclosed", irregular[0].Kind.String())
}
