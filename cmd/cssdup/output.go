package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/asynkron/cssdup/internal/dedup"
)

// Theme defines the color scheme for console output
type Theme struct {
	Class    lipgloss.Style
	Hash     lipgloss.Style
	Location lipgloss.Style
	LineNum  lipgloss.Style
	Summary  lipgloss.Style
	Dim      lipgloss.Style
}

// DefaultTheme is the default color scheme
var DefaultTheme = Theme{
	Class:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
	Hash:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Location: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	LineNum:  lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
	Summary:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82")),
	Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

var theme = DefaultTheme

// RankGroups orders groups for display: biggest savings first, then group number.
func RankGroups(groups []dedup.DuplicateGroup) []dedup.DuplicateGroup {
	ranked := slices.Clone(groups)
	slices.SortStableFunc(ranked, func(a, b dedup.DuplicateGroup) int {
		if c := cmp.Compare(groupSavings(b), groupSavings(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return ranked
}

// PrintGroupSummary prints the summary of found groups
func PrintGroupSummary(w io.Writer, groupCount, top int) {
	fmt.Fprintf(w, "Found %s duplicate rule blocks (showing top %d by savings)\n",
		theme.Summary.Render(fmt.Sprintf("%d", groupCount)), top)
}

// PrintGroups prints the given groups with their members
func PrintGroups(w io.Writer, groups []dedup.DuplicateGroup) {
	for _, g := range groups {
		fmt.Fprintf(w, "\n%s %s %s %s:\n",
			theme.Class.Render(g.ClassName),
			theme.Dim.Render(fmt.Sprintf("[%d rules]", len(g.Members))),
			theme.Dim.Render(fmt.Sprintf("saves %d bytes", groupSavings(g))),
			theme.Hash.Render(fmt.Sprintf("[%.12s]", g.Fingerprint)))
		for _, rec := range g.Records() {
			marker := " "
			if rec.Action == dedup.ActionKeep {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %s %s%s%s\n",
				theme.Summary.Render(marker),
				rec.Selector,
				theme.Location.Render(rec.File),
				theme.Dim.Render(":"),
				theme.LineNum.Render(fmt.Sprintf("%d", rec.Line)))
		}
	}
}

// PrintNearPairs prints the near-duplicate pairs, most similar first
func PrintNearPairs(w io.Writer, pairs []dedup.NearDuplicatePair, top int) {
	if len(pairs) == 0 {
		return
	}
	sorted := slices.Clone(pairs)
	slices.SortStableFunc(sorted, func(a, b dedup.NearDuplicatePair) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	if top >= 0 && len(sorted) > top {
		sorted = sorted[:top]
	}

	fmt.Fprintf(w, "\n%s\n", theme.Summary.Render(fmt.Sprintf("Near duplicates (%d pairs):", len(pairs))))
	for _, p := range sorted {
		fmt.Fprintf(w, "  %s %s %s  ~  %s %s\n",
			theme.LineNum.Render(fmt.Sprintf("%5.1f%%", p.Similarity*100)),
			p.A.Selector, theme.Location.Render(fmt.Sprintf("%s:%d", p.A.Source, p.A.Line)),
			p.B.Selector, theme.Location.Render(fmt.Sprintf("%s:%d", p.B.Source, p.B.Line)))
	}
}

type fileHotspot struct {
	filename string
	rules    int
}

// countHotspots counts replaceable rules per file, most first.
func countHotspots(groups []dedup.DuplicateGroup) []fileHotspot {
	perFile := make(map[string]int)
	for _, g := range groups {
		for _, rec := range g.Records() {
			if rec.Action == dedup.ActionReplace {
				perFile[rec.File]++
			}
		}
	}

	hotspots := make([]fileHotspot, 0, len(perFile))
	for f, n := range perFile {
		hotspots = append(hotspots, fileHotspot{f, n})
	}
	slices.SortFunc(hotspots, func(a, b fileHotspot) int {
		if c := cmp.Compare(b.rules, a.rules); c != 0 {
			return c
		}
		return strings.Compare(a.filename, b.filename)
	})
	return hotspots
}

// PrintHotspots prints the duplication hotspots
func PrintHotspots(w io.Writer, groups []dedup.DuplicateGroup) {
	hotspots := countHotspots(groups)
	if len(hotspots) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", theme.Summary.Render("Duplication hotspots (replaceable rules):"))
	for _, h := range hotspots[:min(5, len(hotspots))] {
		fmt.Fprintf(w, "  %s %s\n",
			theme.LineNum.Render(fmt.Sprintf("%4d", h.rules)),
			theme.Location.Render(h.filename))
	}
}

// PrintGitHubAnnotations outputs GitHub Actions annotations for every replaceable rule.
// A non-nil changed set limits annotations to those files.
func PrintGitHubAnnotations(w io.Writer, groups []dedup.DuplicateGroup, githubLevel string, changed map[string]bool) {
	annotationCount := 0
	for _, g := range groups {
		for _, rec := range g.Records() {
			if rec.Action != dedup.ActionReplace {
				continue
			}
			if changed != nil && !changed[rec.File] {
				continue
			}
			fmt.Fprintf(w, "::%s file=%s,line=%d,title=Duplicate CSS declarations (%s)::Same declarations as %s in %s, use %s\n",
				githubLevel, rec.File, rec.Line, g.ClassName,
				rec.CanonicalSelector, rec.CanonicalFile, g.ClassName)
			annotationCount++
		}
	}
	if annotationCount > 0 {
		fmt.Fprintf(w, "\n")
	}
}

// PrintIrregularities lists files where the brace scan may be unreliable
func PrintIrregularities(w io.Writer, irregularities []dedup.FileIrregularity) {
	if len(irregularities) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", theme.Dim.Render(fmt.Sprintf("%d irregular blocks (nested or unclosed), results for these may be incomplete", len(irregularities))))
}

// PrintTotalSummary prints the final summary line
func PrintTotalSummary(w io.Writer, rpt scanReport, elapsed time.Duration) {
	res := rpt.Result
	fmt.Fprintf(w, "\nTotal: %s duplicate groups, %s near-duplicate pairs, %s bytes removable in %s files (%s rules) in %s\n",
		theme.Summary.Render(fmt.Sprintf("%d", len(res.Groups))),
		theme.Summary.Render(fmt.Sprintf("%d", len(res.Near))),
		theme.Summary.Render(fmt.Sprintf("%d", dedup.Savings(res.Groups))),
		theme.Summary.Render(fmt.Sprintf("%d", rpt.Files)),
		theme.Summary.Render(fmt.Sprintf("%d", len(res.Entries))),
		theme.Summary.Render(elapsed.Round(time.Millisecond).String()))
	if rpt.Ignored > 0 {
		fmt.Fprintf(w, "%s\n", theme.Dim.Render(fmt.Sprintf("%d groups ignored via %s", rpt.Ignored, ignoreFileName)))
	}
}

// PrintDetailed renders the markdown report in the terminal, falling back to plain text.
func PrintDetailed(w io.Writer, markdown string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
	if err == nil {
		var out string
		if out, err = r.Render(markdown); err == nil {
			fmt.Fprint(w, out)
			return
		}
	}
	fmt.Fprint(w, markdown)
}
