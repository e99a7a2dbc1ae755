package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"sorted", "color: red; padding: 4px;", "color: red;\n  padding: 4px;"},
		{"reordered", " padding: 4px;\n color: red ", "color: red;\n  padding: 4px;"},
		{"no trailing semicolon", "margin: 0", "margin: 0;"},
		{"empty", "", ""},
		{"only separators", " ;; ; ", ""},
		{"only comment", "/* nothing here */", ""},
		{"comment between declarations", "color: red; /* note */ margin: 0", "color: red;\n  margin: 0;"},
		{"multiline comment", "color: red;/* a;\nb; */top: 0", "color: red;\n  top: 0;"},
		{"unterminated comment", "color: red; /* margin: 0", "color: red;"},
		{"raw string order", "margin: 0; color: red; color: blue", "color: blue;\n  color: red;\n  margin: 0;"},
		{"no property grouping", "z-index: 1; background: blue; color:red", "background: blue;\n  color:red;\n  z-index: 1;"},
		{"inner whitespace kept", "color:  red", "color:  red;"},
		{"comment splice opens new comment", "a//**/*b", "a;"},
		{"comment splice closed later", "a//**/*b*/c", "ac;"},
		{"braces are not stripped", "{ color: red }", "{ color: red;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.body))
		})
	}
}

var normalizeCorpus = []string{
	"",
	";",
	"color: red",
	"color: red; padding: 4px;",
	"padding: 4px; color: red;",
	"  a:1 ;\n\n b:2;;c:3  ",
	"/* x */ a: 1; /* y */",
	"z*/x;a/*y",
	"*/a; b/* c",
	"font: 12px/1.5 \"Helvetica\"; content: ';'",
	"color: réd; Color: RED; colour: red",
	"{ stray: brace; }",
	"a//**/*b",
	"a//**/*b*/c",
	"color: red; x: 1//**/*y",
	"|x; {b",
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, body := range normalizeCorpus {
		once := Normalize(body)
		assert.Equal(t, once, Normalize(once), "body %q", body)
	}
}

func TestNormalizeOrderIndependent(t *testing.T) {
	decls := []string{"color: red", "padding: 4px", "margin: 0 auto", "color: blue"}
	want := Normalize(strings.Join(decls, ";"))

	permute(decls, func(p []string) {
		assert.Equal(t, want, Normalize(strings.Join(p, "; ")), "order %v", p)
	})
}

func TestFingerprintMatchesNormalizedEquality(t *testing.T) {
	for _, x := range normalizeCorpus {
		for _, y := range normalizeCorpus {
			nx, ny := Normalize(x), Normalize(y)
			assert.Equal(t, nx == ny, Fingerprint(nx) == Fingerprint(ny), "bodies %q and %q", x, y)
		}
	}
}

func TestFingerprintIsStable(t *testing.T) {
	fp := Fingerprint("color: red;\n  padding: 4px;")
	assert.Len(t, fp, 64)
	assert.Equal(t, fp, Fingerprint("color: red;\n  padding: 4px;"))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Fingerprint(""))
}

func TestNewEntry(t *testing.T) {
	e := NewEntry(RawRule{Selector: ".btn", Body: "padding: 4px; color: red", Line: 7}, "components/btn.css", 3)
	assert.Equal(t, ".btn", e.Selector)
	assert.Equal(t, "color: red;\n  padding: 4px;", e.NormalizedBody)
	assert.Equal(t, Fingerprint(e.NormalizedBody), e.Fingerprint)
	assert.Equal(t, "components/btn.css", e.Source)
	assert.Equal(t, 7, e.Line)
	assert.Equal(t, 3, e.Ordinal)
}

// permute calls fn with every permutation of items (Heap's algorithm).
func permute[T any](items []T, fn func([]T)) {
	p := append([]T(nil), items...)
	var generate func(k int)
	generate = func(k int) {
		if k == 1 {
			fn(p)
			return
		}
		generate(k - 1)
		for i := 0; i < k-1; i++ {
			if k%2 == 0 {
				p[i], p[k-1] = p[k-1], p[i]
			} else {
				p[0], p[k-1] = p[k-1], p[0]
			}
			generate(k - 1)
		}
	}
	generate(len(p))
}
