package dedup

import (
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// splitRunes breaks a string into one element per character for the sequence matcher
func splitRunes(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}

// Similarity returns the Ratcliff/Obershelp ratio 2*M/T of two strings, in [0,1].
// The operands are put in a fixed order first so Similarity(a, b) == Similarity(b, a);
// only identical strings score 1.0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if b < a {
		a, b = b, a
	}
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

// ratioBound is the best ratio two strings of these lengths could reach: every character
// of the shorter one matched.
func ratioBound(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la+lb == 0 {
		return 1.0
	}
	return 2 * float64(min(la, lb)) / float64(la+lb)
}
