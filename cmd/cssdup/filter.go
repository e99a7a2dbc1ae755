package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asynkron/cssdup/internal/dedup"
)

const ignoreFileName = "ignore.json"

// IgnoreFile represents the structure of ignore.json
type IgnoreFile struct {
	Description string   `json:"description"`
	Ignored     []string `json:"ignored"`
}

// LoadIgnoredFingerprints reads ignore.json from the output directory, creating an empty
// one on first run.
func LoadIgnoredFingerprints(outDir string) (map[string]bool, error) {
	ignorePath := filepath.Join(outDir, ignoreFileName)
	data, err := os.ReadFile(ignorePath)
	if os.IsNotExist(err) {
		empty := IgnoreFile{
			Description: "Fingerprints of duplicate groups to leave out of reports",
			Ignored:     []string{},
		}
		jsonData, err := json.MarshalIndent(empty, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(ignorePath, jsonData, 0o644); err != nil {
			return nil, fmt.Errorf("creating %s: %w", ignorePath, err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var ignoreFile IgnoreFile
	if err := json.Unmarshal(data, &ignoreFile); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", ignorePath, err)
	}

	ignored := make(map[string]bool, len(ignoreFile.Ignored))
	for _, fp := range ignoreFile.Ignored {
		if fp = strings.ToLower(strings.TrimSpace(fp)); fp != "" {
			ignored[fp] = true
		}
	}
	return ignored, nil
}

// FilterGroups drops ignored groups. Remaining groups keep their numbers and class names.
func FilterGroups(groups []dedup.DuplicateGroup, ignored map[string]bool) ([]dedup.DuplicateGroup, int) {
	if len(ignored) == 0 {
		return groups, 0
	}
	kept := make([]dedup.DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if !ignored[g.Fingerprint] {
			kept = append(kept, g)
		}
	}
	return kept, len(groups) - len(kept)
}

// TopN returns at most n groups from the slice
func TopN(groups []dedup.DuplicateGroup, n int) []dedup.DuplicateGroup {
	if n < 0 || len(groups) < n {
		n = len(groups)
	}
	return groups[:n]
}
