package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/asynkron/cssdup/internal/dedup"
)

// splitPatterns parses a comma-separated exclude list.
func splitPatterns(list string) []string {
	var out []string
	for p := range strings.SplitSeq(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func excluded(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// discoverFiles walks root and returns matching files relative to root, in natural order.
// The output directory is never scanned.
func discoverFiles(root string, exts, exclude []string, outDir string) ([]string, error) {
	absOut, _ := filepath.Abs(outDir)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(path); path != root && abs == absOut {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !hasExtension(path, exts) || excluded(path, exclude) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Sort(natural.StringSlice(files))
	return files, nil
}

// lookupCharset resolves an IANA character set name; empty means UTF-8.
func lookupCharset(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown character set %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("character set %q is not supported", name)
	}
	return enc, nil
}

// decodeText converts raw file content to text. Without a charset the data is UTF-8 with
// an optional BOM, invalid sequences become U+FFFD. The second result reports whether
// anything had to be replaced.
func decodeText(data []byte, enc encoding.Encoding) (string, bool, error) {
	if enc == nil {
		valid := utf8.Valid(data)
		out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
		if err != nil {
			return "", false, err
		}
		return string(out), !valid, nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false, err
	}
	return strings.TrimPrefix(string(out), "\ufeff"), false, nil
}

// loader reads and decodes stylesheets in parallel, keeping the discovery order.
type loader struct {
	root    string
	charset encoding.Encoding
	workers int
	log     *zap.Logger
}

func newLoader(root string, charset encoding.Encoding, log *zap.Logger) *loader {
	return &loader{root: root, charset: charset, workers: runtime.NumCPU(), log: log.Named("loader")}
}

// Load returns one source per readable file. Unreadable files are skipped and reported in
// the combined error; only context cancellation aborts the whole load.
func (l *loader) Load(ctx context.Context, files []string) ([]dedup.Source, error) {
	sources := make([]dedup.Source, len(files))
	loaded := make([]bool, len(files))
	failures := make([]error, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(l.workers)
	for i, name := range files {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(name)))
			if err != nil {
				failures[i] = fmt.Errorf("read %s: %w", name, err)
				return nil
			}
			text, replaced, err := decodeText(data, l.charset)
			if err != nil {
				failures[i] = fmt.Errorf("decode %s: %w", name, err)
				return nil
			}
			if replaced {
				l.log.Warn("Invalid UTF-8 replaced", zap.String("file", name))
			}
			sources[i], loaded[i] = dedup.Source{Path: name, Text: text}, true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]dedup.Source, 0, len(files))
	for i := range sources {
		if loaded[i] {
			out = append(out, sources[i])
		}
	}
	return out, multierr.Combine(failures...)
}
