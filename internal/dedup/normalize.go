package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

// commentPattern matches /* ... */; an unterminated comment runs to the end of the body.
var commentPattern = regexp.MustCompile(`(?s)/\*.*?(?:\*/|$)`)

// declarationSeparator joins sorted declarations in normalized bodies
const declarationSeparator = ";\n  "

// Normalize turns a declaration body into its canonical form: comments removed,
// declarations trimmed, empty ones dropped, sorted as raw strings and joined.
//
// Sorting is by full declaration text, not by property name, so two declarations of the
// same property with different values are kept side by side rather than merged.
func Normalize(body string) string {
	body = stripComments(body)

	var decls []string
	for decl := range strings.SplitSeq(body, ";") {
		if decl = strings.TrimSpace(decl); decl != "" {
			decls = append(decls, decl)
		}
	}
	if len(decls) == 0 {
		return ""
	}

	sort.Strings(decls)
	return strings.Join(decls, declarationSeparator) + ";"
}

// stripComments removes comments until none are left. Removing one can splice a "/" and
// a "*" into a new opener, as in "a//**/*b".
func stripComments(body string) string {
	for {
		stripped := commentPattern.ReplaceAllString(body, "")
		if stripped == body {
			return body
		}
		body = stripped
	}
}

// Fingerprint returns the hex SHA-256 of a normalized body. Equal bodies always give equal
// fingerprints.
func Fingerprint(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// NewEntry normalizes and fingerprints a raw rule found in file path.
func NewEntry(rule RawRule, path string, ordinal int) RuleEntry {
	norm := Normalize(rule.Body)
	return RuleEntry{
		Selector:       rule.Selector,
		NormalizedBody: norm,
		Fingerprint:    Fingerprint(norm),
		Source:         path,
		Line:           rule.Line,
		Ordinal:        ordinal,
	}
}
