package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/asynkron/cssdup/internal/dedup"
)

const (
	readConfigErrFmt  = "read config file %s: %w"
	parseConfigErrFmt = "parse config file %s: %w"
)

// searched in the scan root when no explicit configuration is given
var configNames = []string{".cssdup.yaml", ".cssdup.yml", ".cssdup.toml"}

var (
	ErrThreshold   = errors.New("near_threshold must be within [0, 1]")
	ErrFragment    = errors.New("path_priority fragments must not be empty")
	ErrClassPrefix = errors.New("class_prefix must not contain whitespace, '.' or braces")
	ErrExtensions  = errors.New("at least one file extension is required")
)

// Config is the complete program configuration.
type Config struct {
	PathPriority  dedup.PathPriority
	NearThreshold float64
	ClassPrefix   string
	Extensions    []string
	Exclude       []string
	OutputDir     string
	Logging       LoggingConfig
}

// Defaults returns the configuration used when nothing else is specified.
func Defaults() Config {
	return Config{
		PathPriority:  dedup.DefaultPathPriority(),
		NearThreshold: dedup.DefaultNearThreshold,
		ClassPrefix:   dedup.DefaultClassPrefix,
		Extensions:    []string{".css"},
		OutputDir:     ".cssdup",
		Logging: LoggingConfig{
			ConsoleLogger: LoggerConfig{Level: "normal"},
			FileLogger:    LoggerConfig{Level: "none", Mode: "overwrite"},
		},
	}
}

// Options converts the configuration into engine options.
func (c Config) Options() dedup.Options {
	return dedup.Options{
		PathPriority:  append(dedup.PathPriority(nil), c.PathPriority...),
		NearThreshold: c.NearThreshold,
		ClassPrefix:   c.ClassPrefix,
	}
}

// Validate checks values that cannot be fixed up silently.
func (c Config) Validate() error {
	if c.NearThreshold < 0 || c.NearThreshold > 1 {
		return fmt.Errorf("%w: got %v", ErrThreshold, c.NearThreshold)
	}
	for _, rule := range c.PathPriority {
		if strings.TrimSpace(rule.Fragment) == "" {
			return ErrFragment
		}
	}
	if c.ClassPrefix == "" || strings.ContainsAny(c.ClassPrefix, " \t\n.{}") {
		return fmt.Errorf("%w: got %q", ErrClassPrefix, c.ClassPrefix)
	}
	if len(c.Extensions) == 0 {
		return ErrExtensions
	}
	return c.Logging.Validate()
}

// rawConfig is the on-disk shape; nil fields keep their defaults
type rawConfig struct {
	PathPriority  []dedup.PriorityRule
	NearThreshold *float64
	ClassPrefix   *string
	Extensions    []string
	Exclude       []string
	OutputDir     *string
	Logging       *LoggingConfig
}

func (r rawConfig) apply(c Config) Config {
	if r.PathPriority != nil {
		c.PathPriority = r.PathPriority
	}
	if r.NearThreshold != nil {
		c.NearThreshold = *r.NearThreshold
	}
	if r.ClassPrefix != nil {
		c.ClassPrefix = *r.ClassPrefix
	}
	if r.Extensions != nil {
		c.Extensions = normalizeExtensions(r.Extensions)
	}
	if r.Exclude != nil {
		c.Exclude = r.Exclude
	}
	if r.OutputDir != nil {
		c.OutputDir = *r.OutputDir
	}
	if r.Logging != nil {
		c.Logging = c.Logging.merge(*r.Logging)
	}
	return c
}

// Load reads the configuration file, explicit or discovered in root, on top of the
// defaults. The returned path is empty when no file was used.
func Load(root, explicitPath string) (Config, string, error) {
	path, found, err := resolvePath(root, strings.TrimSpace(explicitPath))
	if err != nil {
		return Config{}, "", err
	}
	if !found {
		return Defaults(), "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, "", fmt.Errorf(readConfigErrFmt, path, err)
	}
	cfg, err := Parse(path, data)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}

// Parse decodes configuration data, choosing the format by file extension.
func Parse(path string, data []byte) (Config, error) {
	var (
		raw rawConfig
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		raw, err = parseTOML(data)
	default:
		raw, err = parseYAML(data)
	}
	if err != nil {
		return Config{}, fmt.Errorf(parseConfigErrFmt, path, err)
	}

	cfg := raw.apply(Defaults())
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf(parseConfigErrFmt, path, err)
	}
	return cfg, nil
}

func resolvePath(root, explicitPath string) (string, bool, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file not found: %s", explicitPath)
			}
			return "", false, fmt.Errorf(readConfigErrFmt, explicitPath, err)
		}
		return explicitPath, true, nil
	}

	for _, name := range configNames {
		candidate := filepath.Join(root, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !os.IsNotExist(err) {
			return "", false, fmt.Errorf(readConfigErrFmt, candidate, err)
		}
	}
	return "", false, nil
}

// normalizeExtensions lower-cases extensions and makes sure they start with a dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// NormalizeExtensions is the exported form used for command line values.
func NormalizeExtensions(exts []string) []string {
	return normalizeExtensions(exts)
}

// YAML

type yamlConfig struct {
	PathPriority  yaml.Node      `yaml:"path_priority"`
	NearThreshold *float64       `yaml:"near_threshold"`
	ClassPrefix   *string        `yaml:"class_prefix"`
	Extensions    []string       `yaml:"extensions"`
	Exclude       []string       `yaml:"exclude"`
	OutputDir     *string        `yaml:"output_dir"`
	Logging       *LoggingConfig `yaml:"logging"`
}

type priorityEntry struct {
	Fragment string `yaml:"fragment" toml:"fragment"`
	Rank     int    `yaml:"rank" toml:"rank"`
}

func parseYAML(data []byte) (rawConfig, error) {
	var yc yamlConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&yc); err != nil {
		if errors.Is(err, io.EOF) {
			return rawConfig{}, nil // empty document
		}
		return rawConfig{}, err
	}

	priority, err := decodePriority(&yc.PathPriority)
	if err != nil {
		return rawConfig{}, err
	}
	return rawConfig{
		PathPriority:  priority,
		NearThreshold: yc.NearThreshold,
		ClassPrefix:   yc.ClassPrefix,
		Extensions:    yc.Extensions,
		Exclude:       yc.Exclude,
		OutputDir:     yc.OutputDir,
		Logging:       yc.Logging,
	}, nil
}

// decodePriority accepts either an ordered mapping (fragment: rank) or a list of
// {fragment, rank} objects. Declared order is preserved in both forms.
func decodePriority(node *yaml.Node) (dedup.PathPriority, error) {
	switch {
	case node.Kind == 0, node.Kind == yaml.ScalarNode && node.Tag == "!!null":
		return nil, nil
	case node.Kind == yaml.MappingNode:
		priority := make(dedup.PathPriority, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var rank int
			if err := node.Content[i+1].Decode(&rank); err != nil {
				return nil, fmt.Errorf("path_priority %q: %w", node.Content[i].Value, err)
			}
			priority = append(priority, dedup.PriorityRule{Fragment: node.Content[i].Value, Rank: rank})
		}
		return priority, nil
	case node.Kind == yaml.SequenceNode:
		var entries []priorityEntry
		if err := node.Decode(&entries); err != nil {
			return nil, fmt.Errorf("path_priority: %w", err)
		}
		return toPriority(entries), nil
	default:
		return nil, fmt.Errorf("path_priority: expected mapping or list at line %d", node.Line)
	}
}

func toPriority(entries []priorityEntry) dedup.PathPriority {
	priority := make(dedup.PathPriority, 0, len(entries))
	for _, e := range entries {
		priority = append(priority, dedup.PriorityRule{Fragment: e.Fragment, Rank: e.Rank})
	}
	return priority
}

// TOML

type tomlConfig struct {
	PathPriority  []priorityEntry `toml:"path_priority"`
	NearThreshold *float64        `toml:"near_threshold"`
	ClassPrefix   *string         `toml:"class_prefix"`
	Extensions    []string        `toml:"extensions"`
	Exclude       []string        `toml:"exclude"`
	OutputDir     *string         `toml:"output_dir"`
	Logging       *LoggingConfig  `toml:"logging"`
}

func parseTOML(data []byte) (rawConfig, error) {
	var tc tomlConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tc); err != nil {
		return rawConfig{}, err
	}

	var priority dedup.PathPriority
	if tc.PathPriority != nil {
		priority = toPriority(tc.PathPriority)
	}
	return rawConfig{
		PathPriority:  priority,
		NearThreshold: tc.NearThreshold,
		ClassPrefix:   tc.ClassPrefix,
		Extensions:    tc.Extensions,
		Exclude:       tc.Exclude,
		OutputDir:     tc.OutputDir,
		Logging:       tc.Logging,
	}, nil
}

// Dump

type orderedPriority dedup.PathPriority

// MarshalYAML writes the priority table as an ordered mapping.
func (p orderedPriority) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, rule := range p {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: rule.Fragment},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(rule.Rank)},
		)
	}
	return node, nil
}

type dumpConfig struct {
	PathPriority  orderedPriority `yaml:"path_priority"`
	NearThreshold float64         `yaml:"near_threshold"`
	ClassPrefix   string          `yaml:"class_prefix"`
	Extensions    []string        `yaml:"extensions"`
	Exclude       []string        `yaml:"exclude,omitempty"`
	OutputDir     string          `yaml:"output_dir"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Dump serializes the configuration as YAML that Load accepts back.
func Dump(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	err := enc.Encode(dumpConfig{
		PathPriority:  orderedPriority(c.PathPriority),
		NearThreshold: c.NearThreshold,
		ClassPrefix:   c.ClassPrefix,
		Extensions:    c.Extensions,
		Exclude:       c.Exclude,
		OutputDir:     c.OutputDir,
		Logging:       c.Logging,
	})
	if err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}
	return buf.Bytes(), nil
}
