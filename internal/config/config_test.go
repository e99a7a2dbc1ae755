package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asynkron/cssdup/internal/dedup"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	opts := cfg.Options()
	assert.Equal(t, dedup.DefaultOptions().PathPriority, opts.PathPriority)
	assert.Equal(t, dedup.DefaultNearThreshold, opts.NearThreshold)
	assert.Equal(t, "shared", opts.ClassPrefix)
}

func TestParseYAMLMappingKeepsOrder(t *testing.T) {
	data := []byte(`
path_priority:
  vendor/: 9
  shared/: 0
  app/: 5
near_threshold: 0.8
class_prefix: dup
extensions: [css, .SCSS]
exclude: ["*.min.css"]
output_dir: reports
`)
	cfg, err := Parse(".cssdup.yaml", data)
	require.NoError(t, err)

	want := dedup.PathPriority{
		{Fragment: "vendor/", Rank: 9},
		{Fragment: "shared/", Rank: 0},
		{Fragment: "app/", Rank: 5},
	}
	if diff := cmp.Diff(want, cfg.PathPriority); diff != "" {
		t.Errorf("path priority mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.8, cfg.NearThreshold)
	assert.Equal(t, "dup", cfg.ClassPrefix)
	assert.Equal(t, []string{".css", ".scss"}, cfg.Extensions)
	assert.Equal(t, []string{"*.min.css"}, cfg.Exclude)
	assert.Equal(t, "reports", cfg.OutputDir)
	assert.Equal(t, "normal", cfg.Logging.ConsoleLogger.Level)
}

func TestParseYAMLList(t *testing.T) {
	data := []byte(`
path_priority:
  - fragment: lib/
    rank: 2
  - fragment: src/
    rank: 1
`)
	cfg, err := Parse("conf.yml", data)
	require.NoError(t, err)
	assert.Equal(t, dedup.PathPriority{{Fragment: "lib/", Rank: 2}, {Fragment: "src/", Rank: 1}}, cfg.PathPriority)
	assert.Equal(t, Defaults().NearThreshold, cfg.NearThreshold)
}

func TestParseTOML(t *testing.T) {
	data := []byte(`
near_threshold = 0.75
class_prefix = "common"

[[path_priority]]
fragment = "core/"
rank = 0

[[path_priority]]
fragment = "pages/"
rank = 3

[logging.console]
level = "debug"
`)
	cfg, err := Parse(".cssdup.toml", data)
	require.NoError(t, err)
	assert.Equal(t, dedup.PathPriority{{Fragment: "core/", Rank: 0}, {Fragment: "pages/", Rank: 3}}, cfg.PathPriority)
	assert.Equal(t, 0.75, cfg.NearThreshold)
	assert.Equal(t, "common", cfg.ClassPrefix)
	assert.Equal(t, "debug", cfg.Logging.ConsoleLogger.Level)
	assert.Equal(t, "none", cfg.Logging.FileLogger.Level)
}

func TestParseEmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := Parse(".cssdup.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"threshold above one", "near_threshold: 1.5", ErrThreshold},
		{"negative threshold", "near_threshold: -0.1", ErrThreshold},
		{"empty fragment", "path_priority:\n  \"\": 1", ErrFragment},
		{"prefix with dot", "class_prefix: .shared", ErrClassPrefix},
		{"no extensions", "extensions: []", ErrExtensions},
		{"bad log level", "logging:\n  console:\n    level: loud", ErrLogLevel},
		{"file log without destination", "logging:\n  file:\n    level: debug", ErrLogDest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(".cssdup.yaml", []byte(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(".cssdup.yaml", []byte("threshold: 0.5"))
	assert.Error(t, err)

	_, err = Parse(".cssdup.toml", []byte("threshold = 0.5"))
	assert.Error(t, err)

	_, err = Parse(".cssdup.yaml", []byte("path_priority: components/"))
	assert.Error(t, err)
}

func TestLoadDiscoversFileInRoot(t *testing.T) {
	root := t.TempDir()

	cfg, path, err := Load(root, "")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Defaults(), cfg)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".cssdup.toml"), []byte("class_prefix = \"toml\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".cssdup.yml"), []byte("class_prefix: yml\n"), 0o644))

	cfg, path, err = Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".cssdup.yml"), path)
	assert.Equal(t, "yml", cfg.ClassPrefix)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("output_dir: out\n"), 0o644))

	cfg, path, err := Load(t.TempDir(), explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
	assert.Equal(t, "out", cfg.OutputDir)

	_, _, err = Load(dir, filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "config file not found")
}

func TestDumpRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Exclude = []string{"vendor*"}
	cfg.PathPriority = append(cfg.PathPriority, dedup.PriorityRule{Fragment: "legacy/", Rank: 7})

	data, err := Dump(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "path_priority:\n  components/: 1\n")

	back, err := Parse("dump.yaml", data)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeExtensions(t *testing.T) {
	assert.Equal(t, []string{".css", ".less"}, NormalizeExtensions([]string{" CSS ", "", ".Less"}))
	assert.Empty(t, NormalizeExtensions(nil))
}
