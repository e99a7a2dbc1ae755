package dedup

import (
	"iter"
	"regexp"
	"strings"
	"unicode"
)

// rulePattern captures "selector { body }" without nesting. A block that contains nested
// braces is segmented at the first closing brace.
var rulePattern = regexp.MustCompile(`([^{]+)\{([^}]+)\}`)

// Irregularity classifies spans the brace scan could not segment cleanly
type Irregularity int

const (
	Regular Irregularity = iota
	// IrregularNested marks a rule whose selector holds a '}' or whose body holds a '{',
	// typically an at-rule or a nested block cut at its first closing brace.
	IrregularNested
	// IrregularUnclosed marks a '{' that is never closed.
	IrregularUnclosed
)

func (i Irregularity) String() string {
	switch i {
	case IrregularNested:
		return "nested"
	case IrregularUnclosed:
		return "unclosed"
	default:
		return "regular"
	}
}

// RawRule is a rule block as found in the text, before normalization
type RawRule struct {
	Selector  string
	Body      string
	Line      int
	Irregular Irregularity
}

// Extract scans text for rule blocks and yields them in order of first occurrence.
// The sequence can be ranged over any number of times.
func Extract(text string) iter.Seq[RawRule] {
	return func(yield func(RawRule) bool) {
		lines := lineCounter{text: text, line: 1}
		pos := 0
		for pos < len(text) {
			loc := rulePattern.FindStringSubmatchIndex(text[pos:])
			if loc == nil {
				return
			}

			rawSelector := text[pos+loc[2] : pos+loc[3]]
			lead := len(rawSelector) - len(strings.TrimLeftFunc(rawSelector, unicode.IsSpace))

			rule := RawRule{
				Selector: strings.TrimSpace(rawSelector),
				Body:     strings.TrimSpace(text[pos+loc[4] : pos+loc[5]]),
				Line:     lines.at(pos + loc[2] + lead),
			}
			if strings.ContainsRune(rule.Selector, '}') || strings.ContainsRune(rule.Body, '{') {
				rule.Irregular = IrregularNested
			}
			if !yield(rule) {
				return
			}
			pos += loc[1]
		}
	}
}

// ExtractAll collects the rules of one file together with the irregularities seen in it.
func ExtractAll(path, text string) ([]RawRule, []FileIrregularity) {
	var (
		rules     []RawRule
		irregular []FileIrregularity
	)
	for rule := range Extract(text) {
		rules = append(rules, rule)
		if rule.Irregular != Regular {
			irregular = append(irregular, FileIrregularity{
				File:   path,
				Line:   rule.Line,
				Kind:   rule.Irregular,
				Detail: "brace scan may have mis-segmented " + quoteSelector(rule.Selector),
			})
		}
	}

	if open := strings.LastIndexByte(text, '{'); open >= 0 && strings.IndexByte(text[open:], '}') < 0 {
		lines := lineCounter{text: text, line: 1}
		irregular = append(irregular, FileIrregularity{
			File:   path,
			Line:   lines.at(open),
			Kind:   IrregularUnclosed,
			Detail: "block opened here is never closed, skipped",
		})
	}
	return rules, irregular
}

func quoteSelector(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	return "\"" + s + "\""
}

// lineCounter converts increasing byte offsets to 1-based line numbers
type lineCounter struct {
	text   string
	offset int
	line   int
}

func (c *lineCounter) at(offset int) int {
	if offset > c.offset {
		c.line += strings.Count(c.text[c.offset:offset], "\n")
		c.offset = offset
	}
	return c.line
}
