package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/asynkron/cssdup/internal/config"
	"github.com/asynkron/cssdup/internal/csscheck"
	"github.com/asynkron/cssdup/internal/dedup"
)

// scanSettings is the fully resolved input of one scan.
type scanSettings struct {
	Root        string
	Files       []string // set when a single file was requested
	Extensions  []string
	Exclude     []string
	OutDir      string
	Charset     string
	CheckSyntax bool
	Options     dedup.Options
}

// console flags that only affect printing
type consoleSettings struct {
	Top               int
	Detailed          bool
	GitHubAnnotations bool
	GitHubLevel       string
	GitDiff           string
	Changed           map[string]bool // files changed vs GitDiff, nil when unset
}

func resolveSettings(cmd *cli.Command, cfg config.Config) (scanSettings, consoleSettings, error) {
	root := cmd.Args().Get(0)
	if root == "" {
		root = "."
	}
	s := scanSettings{
		Root:        root,
		Extensions:  cfg.Extensions,
		Exclude:     append(append([]string(nil), cfg.Exclude...), splitPatterns(cmd.String("exclude"))...),
		OutDir:      cfg.OutputDir,
		Charset:     cmd.String("charset"),
		CheckSyntax: cmd.Bool("check-syntax"),
		Options:     cfg.Options(),
	}

	info, err := os.Stat(root)
	if err != nil {
		return s, consoleSettings{}, fmt.Errorf("unable to access scan path: %w", err)
	}
	if !info.IsDir() {
		s.Root, s.Files = filepath.Dir(root), []string{filepath.Base(root)}
	}

	if exts := config.NormalizeExtensions(cmd.StringSlice("ext")); len(exts) > 0 {
		s.Extensions = exts
	}
	if out := cmd.String("out"); out != "" {
		s.OutDir = out
	}
	if !filepath.IsAbs(s.OutDir) {
		s.OutDir = filepath.Join(s.Root, s.OutDir)
	}
	if t := cmd.Float("threshold"); t >= 0 {
		if t > 1 {
			return s, consoleSettings{}, fmt.Errorf("%w: got %v", config.ErrThreshold, t)
		}
		s.Options.NearThreshold = t
	}
	s.Options.SkipNear = cmd.Bool("no-near")

	c := consoleSettings{
		Top:               cmd.Int("top"),
		Detailed:          cmd.Bool("detailed"),
		GitHubAnnotations: cmd.Bool("github-annotations"),
		GitHubLevel:       cmd.String("github-level"),
		GitDiff:           cmd.String("git-diff"),
	}
	switch c.GitHubLevel {
	case "notice", "warning", "error":
	default:
		return s, c, fmt.Errorf("unknown GitHub annotation level %q", c.GitHubLevel)
	}
	return s, c, nil
}

func runScan(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	settings, console, err := resolveSettings(cmd, *env.Cfg)
	if err != nil {
		return err
	}

	if console.GitHubAnnotations && console.GitDiff != "" {
		if console.Changed, err = changedFiles(ctx, settings.Root, console.GitDiff); err != nil {
			return err
		}
		env.Log.Debug("Annotations limited to changed files", zap.String("ref", console.GitDiff), zap.Int("files", len(console.Changed)))
	}

	start := time.Now()
	rpt, err := scan(ctx, settings, env.Log)
	if err != nil {
		return err
	}
	if rpt.Files == 0 {
		return nil
	}
	printConsole(os.Stdout, rpt, console, time.Since(start))
	return nil
}

// scan runs discovery, loading, analysis and report writing.
func scan(ctx context.Context, s scanSettings, log *zap.Logger) (scanReport, error) {
	rpt := scanReport{Root: s.Root, Threshold: s.Options.NearThreshold}

	charset, err := lookupCharset(s.Charset)
	if err != nil {
		log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", s.Charset), zap.Error(err))
		charset = nil
	}

	files := s.Files
	if files == nil {
		if files, err = discoverFiles(s.Root, s.Extensions, s.Exclude, s.OutDir); err != nil {
			return rpt, err
		}
	}
	if len(files) == 0 {
		log.Info("No stylesheets found", zap.String("path", s.Root), zap.Strings("extensions", s.Extensions))
		return rpt, nil
	}
	log.Info("Scanning stylesheets", zap.String("path", s.Root), zap.Int("files", len(files)))

	ignored, err := LoadIgnoredFingerprints(s.OutDir)
	if err != nil {
		log.Warn("Ignore list unavailable", zap.Error(err))
	} else if len(ignored) > 0 {
		log.Info("Loaded ignored fingerprints", zap.Int("count", len(ignored)))
	}

	sources, err := newLoader(s.Root, charset, log).Load(ctx, files)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return rpt, ctxErr
	}
	for _, e := range multierr.Errors(err) {
		log.Warn("Skipping unreadable stylesheet", zap.Error(e))
	}
	rpt.Files = len(sources)

	analyzer := dedup.NewAnalyzer(s.Options, log)
	res := analyzer.Analyze(sources)
	for _, irr := range res.Irregularities {
		log.Warn("Irregular rule block", zap.String("file", irr.File), zap.Int("line", irr.Line),
			zap.Stringer("kind", irr.Kind), zap.String("detail", irr.Detail))
	}
	if s.CheckSyntax {
		crossCheck(sources, res.Entries, log)
	}
	if err := ctx.Err(); err != nil {
		return rpt, err
	}

	res.Groups, rpt.Ignored = FilterGroups(res.Groups, ignored)
	rpt.Result = res

	if err := WriteReports(rpt, s.OutDir, log); err != nil {
		return rpt, err
	}
	return rpt, nil
}

// crossCheck compares the brace scan with a real CSS grammar, file by file.
func crossCheck(sources []dedup.Source, entries []dedup.RuleEntry, log *zap.Logger) {
	perFile := make(map[string]int, len(sources))
	for _, e := range entries {
		perFile[e.Source]++
	}

	checker := csscheck.NewChecker(log)
	for _, src := range sources {
		report := checker.Check(src.Path, []byte(src.Text))
		if report.Consistent(perFile[src.Path]) {
			continue
		}
		fields := []zap.Field{
			zap.String("file", src.Path),
			zap.Int("extracted", perFile[src.Path]),
			zap.Int("grammar", report.Rulesets),
			zap.Int("depth", report.MaxDepth),
		}
		if len(report.Errors) > 0 {
			first := report.Errors[0]
			fields = append(fields, zap.Int("errors", len(report.Errors)),
				zap.String("first", fmt.Sprintf("%d:%d %s", first.Line, first.Column, first.Message)))
		}
		log.Warn("Rule count differs from CSS grammar", fields...)
	}
}

func printConsole(w io.Writer, rpt scanReport, c consoleSettings, elapsed time.Duration) {
	groups := rpt.Result.Groups
	if c.GitHubAnnotations {
		PrintGitHubAnnotations(w, groups, c.GitHubLevel, c.Changed)
		return
	}

	top := min(max(c.Top, 0), len(groups))
	PrintGroupSummary(w, len(groups), top)
	PrintGroups(w, TopN(RankGroups(groups), top))
	PrintNearPairs(w, rpt.Result.Near, max(c.Top, 0))
	PrintHotspots(w, groups)
	PrintIrregularities(w, rpt.Result.Irregularities)
	PrintTotalSummary(w, rpt, elapsed)

	if c.Detailed {
		PrintDetailed(w, PatternsMarkdown(rpt))
	}
}
