package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// changedFiles lists files changed against ref, relative to root with forward slashes.
func changedFiles(ctx context.Context, root, ref string) (map[string]bool, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--name-only", "--relative", ref)
	cmd.Dir = root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff against %q: %w: %s", ref, err, strings.TrimSpace(stderr.String()))
	}
	return parseNameList(out), nil
}

func parseNameList(out []byte) map[string]bool {
	changed := make(map[string]bool)
	for line := range strings.SplitSeq(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			changed[line] = true
		}
	}
	return changed
}
