package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asynkron/cssdup/internal/dedup"
)

const (
	sharedCSSName   = "shared.css"
	suggestionsName = "refactor-suggestions.csv"
	nearName        = "near-duplicates.csv"
	resultsName     = "results.json"
	patternsName    = "patterns.md"
)

var (
	suggestionsHeader = []string{"shared_class", "canonical_selector", "canonical_file", "other_selector", "other_file", "action"}
	nearHeader        = []string{"selector_a", "file_a", "selector_b", "file_b", "similarity"}
)

// JSON output structures

type JSONRule struct {
	Selector string `json:"selector"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

type JSONMember struct {
	JSONRule
	Action string `json:"action"`
}

type JSONGroup struct {
	Number      int          `json:"number"`
	ClassName   string       `json:"class_name"`
	Fingerprint string       `json:"fingerprint"`
	Body        string       `json:"body"`
	Savings     int          `json:"savings"`
	Canonical   JSONRule     `json:"canonical"`
	Members     []JSONMember `json:"members"`
}

type JSONNear struct {
	A          JSONRule `json:"a"`
	B          JSONRule `json:"b"`
	Similarity float64  `json:"similarity"`
}

type JSONIrregularity struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type JSONOutput struct {
	RunID            string             `json:"run_id"`
	GeneratedAt      string             `json:"generated_at"`
	Root             string             `json:"root"`
	Files            int                `json:"files"`
	Rules            int                `json:"rules"`
	NearThreshold    float64            `json:"near_threshold"`
	EstimatedSavings int                `json:"estimated_savings"`
	IgnoredGroups    int                `json:"ignored_groups"`
	TotalGroups      int                `json:"total_groups"`
	Groups           []JSONGroup        `json:"groups"`
	NearDuplicates   []JSONNear         `json:"near_duplicates"`
	Irregularities   []JSONIrregularity `json:"irregularities"`
}

// scanReport is what one scan hands to the writers and the console.
type scanReport struct {
	Root      string
	Files     int
	Threshold float64
	Ignored   int
	Result    dedup.Result // Groups already filtered by ignore.json
}

func jsonRule(e dedup.RuleEntry) JSONRule {
	return JSONRule{Selector: e.Selector, File: e.Source, Line: e.Line}
}

func groupSavings(g dedup.DuplicateGroup) int {
	return dedup.Savings([]dedup.DuplicateGroup{g})
}

// BuildJSONOutput converts a scan into the results.json document.
func BuildJSONOutput(rpt scanReport, now time.Time) (JSONOutput, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return JSONOutput{}, fmt.Errorf("generating run id: %w", err)
	}
	res := rpt.Result

	out := JSONOutput{
		RunID:            id.String(),
		GeneratedAt:      now.UTC().Format(time.RFC3339),
		Root:             rpt.Root,
		Files:            rpt.Files,
		Rules:            len(res.Entries),
		NearThreshold:    rpt.Threshold,
		EstimatedSavings: dedup.Savings(res.Groups),
		IgnoredGroups:    rpt.Ignored,
		TotalGroups:      len(res.Groups),
		Groups:           make([]JSONGroup, 0, len(res.Groups)),
		NearDuplicates:   make([]JSONNear, 0, len(res.Near)),
		Irregularities:   make([]JSONIrregularity, 0, len(res.Irregularities)),
	}
	for _, g := range res.Groups {
		jg := JSONGroup{
			Number:      g.Number,
			ClassName:   g.ClassName,
			Fingerprint: g.Fingerprint,
			Body:        g.NormalizedBody,
			Savings:     groupSavings(g),
			Canonical:   jsonRule(g.Canonical),
			Members:     make([]JSONMember, 0, len(g.Members)),
		}
		for _, rec := range g.Records() {
			jg.Members = append(jg.Members, JSONMember{
				JSONRule: JSONRule{Selector: rec.Selector, File: rec.File, Line: rec.Line},
				Action:   rec.Action.String(),
			})
		}
		out.Groups = append(out.Groups, jg)
	}
	for _, p := range res.Near {
		out.NearDuplicates = append(out.NearDuplicates, JSONNear{A: jsonRule(p.A), B: jsonRule(p.B), Similarity: p.Rounded()})
	}
	for _, irr := range res.Irregularities {
		out.Irregularities = append(out.Irregularities, JSONIrregularity{
			File: irr.File, Line: irr.Line, Kind: irr.Kind.String(), Detail: irr.Detail,
		})
	}
	return out, nil
}

// WriteJSONResults writes the results to a JSON file
func WriteJSONResults(rpt scanReport, outputPath string) error {
	jsonOutput, err := BuildJSONOutput(rpt, time.Now())
	if err != nil {
		return err
	}
	jsonData, err := json.MarshalIndent(jsonOutput, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if err := os.WriteFile(outputPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("writing JSON file: %w", err)
	}
	return nil
}

// SharedCSS concatenates the consolidated blocks in group order.
func SharedCSS(groups []dedup.DuplicateGroup) string {
	var sb strings.Builder
	for _, g := range groups {
		sb.WriteString(g.SharedBlockText())
	}
	return sb.String()
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

// SuggestionRows returns one refactor-plan row per group member.
func SuggestionRows(groups []dedup.DuplicateGroup) [][]string {
	var rows [][]string
	for _, g := range groups {
		for _, rec := range g.Records() {
			rows = append(rows, []string{
				rec.SharedClass, rec.CanonicalSelector, rec.CanonicalFile,
				rec.Selector, rec.File, rec.Action.Describe(rec.SharedClass),
			})
		}
	}
	return rows
}

// NearRows returns one row per near-duplicate pair, similarity rounded to 3 decimals.
func NearRows(pairs []dedup.NearDuplicatePair) [][]string {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{
			p.A.Selector, p.A.Source, p.B.Selector, p.B.Source,
			strconv.FormatFloat(p.Rounded(), 'f', -1, 64),
		})
	}
	return rows
}

// PatternsMarkdown renders every group with its members and shared block.
func PatternsMarkdown(rpt scanReport) string {
	res := rpt.Result
	var sb strings.Builder

	sb.WriteString("# Duplicate CSS Patterns\n\n")
	fmt.Fprintf(&sb, "Scanned %d files, %d rules. %d duplicate groups, %d near-duplicate pairs, about %d bytes removable.\n\n",
		rpt.Files, len(res.Entries), len(res.Groups), len(res.Near), dedup.Savings(res.Groups))

	for _, g := range res.Groups {
		fmt.Fprintf(&sb, "---\n\n## %s (%d rules, saves %d bytes)\n\n", g.ClassName, len(g.Members), groupSavings(g))
		fmt.Fprintf(&sb, "Fingerprint `%s`\n\n", g.Fingerprint)
		sb.WriteString("```css\n")
		sb.WriteString(g.SharedBlockText())
		sb.WriteString("```\n\n")
		for _, rec := range g.Records() {
			fmt.Fprintf(&sb, "- `%s` in `%s:%d`: %s\n", rec.Selector, rec.File, rec.Line, rec.Action.Describe(g.ClassName))
		}
		sb.WriteString("\n")
	}

	if len(res.Near) > 0 {
		sb.WriteString("---\n\n## Near duplicates\n\n")
		sb.WriteString("| Similarity | Rule A | Rule B |\n|---|---|---|\n")
		for _, p := range res.Near {
			fmt.Fprintf(&sb, "| %.1f%% | `%s` %s:%d | `%s` %s:%d |\n",
				p.Similarity*100, p.A.Selector, p.A.Source, p.A.Line, p.B.Selector, p.B.Source, p.B.Line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteReports writes every artifact into outDir. Artifacts with nothing to report are
// skipped.
func WriteReports(rpt scanReport, outDir string, log *zap.Logger) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	res := rpt.Result

	if len(res.Groups) == 0 {
		log.Info("No exact duplicate rule blocks found, skipping shared CSS and refactor suggestions")
	} else {
		sharedPath := filepath.Join(outDir, sharedCSSName)
		if err := os.WriteFile(sharedPath, []byte(SharedCSS(res.Groups)), 0o644); err != nil {
			return fmt.Errorf("writing shared CSS: %w", err)
		}
		log.Info("Shared classes written", zap.String("file", sharedPath), zap.Int("groups", len(res.Groups)))

		suggestionsPath := filepath.Join(outDir, suggestionsName)
		if err := writeCSV(suggestionsPath, suggestionsHeader, SuggestionRows(res.Groups)); err != nil {
			return fmt.Errorf("writing refactor suggestions: %w", err)
		}
		log.Info("Refactor suggestions written", zap.String("file", suggestionsPath))
	}

	if len(res.Near) == 0 {
		log.Info("No near-duplicate pairs found, skipping near-duplicate report")
	} else {
		nearPath := filepath.Join(outDir, nearName)
		if err := writeCSV(nearPath, nearHeader, NearRows(res.Near)); err != nil {
			return fmt.Errorf("writing near duplicates: %w", err)
		}
		log.Info("Near duplicates written", zap.String("file", nearPath), zap.Int("pairs", len(res.Near)))
	}

	resultsPath := filepath.Join(outDir, resultsName)
	if err := WriteJSONResults(rpt, resultsPath); err != nil {
		return err
	}
	log.Info("Results written", zap.String("file", resultsPath))

	patternsPath := filepath.Join(outDir, patternsName)
	if err := os.WriteFile(patternsPath, []byte(PatternsMarkdown(rpt)), 0o644); err != nil {
		return fmt.Errorf("writing patterns file: %w", err)
	}
	log.Info("Patterns written", zap.String("file", patternsPath))
	return nil
}
