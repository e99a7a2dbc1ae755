package dedup

import (
	"time"

	"go.uber.org/zap"
)

// Analyzer runs the duplicate detection pipeline over a batch of stylesheets.
type Analyzer struct {
	opts Options
	log  *zap.Logger
}

// NewAnalyzer creates an analyzer for the given options.
func NewAnalyzer(opts Options, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{opts: opts, log: log.Named("dedup")}
}

// Options returns the options the analyzer was created with.
func (a *Analyzer) Options() Options {
	return a.opts
}

// Analyze extracts rules from all sources, then groups exact duplicates and scans for
// near-duplicates. The near-duplicate scan only starts once every file has been read.
func (a *Analyzer) Analyze(sources []Source) Result {
	var res Result

	for _, src := range sources {
		rules, irregular := ExtractAll(src.Path, src.Text)
		for _, rule := range rules {
			res.Entries = append(res.Entries, NewEntry(rule, src.Path, len(res.Entries)))
		}
		res.Irregularities = append(res.Irregularities, irregular...)
		a.log.Debug("Extracted rules", zap.String("file", src.Path), zap.Int("rules", len(rules)), zap.Int("irregular", len(irregular)))
	}

	start := time.Now()
	res.Groups = GroupExact(res.Entries, a.opts)
	a.log.Debug("Grouped exact duplicates", zap.Int("entries", len(res.Entries)), zap.Int("groups", len(res.Groups)), zap.Duration("elapsed", time.Since(start)))

	if a.opts.SkipNear {
		return res
	}

	start = time.Now()
	res.Near = FindNear(res.Entries, a.opts.NearThreshold)
	a.log.Debug("Scanned for near-duplicates", zap.Float64("threshold", a.opts.NearThreshold), zap.Int("pairs", len(res.Near)), zap.Duration("elapsed", time.Since(start)))
	return res
}
