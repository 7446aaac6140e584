// Package rules loads ignore-file rules and keeps them as immutable
// per-directory snapshots.
package rules

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is the ignore-file read from each visited directory.
const DefaultFileName = ".gitignore"

// Rule is a glob loaded from an ignore-file together with the directory it
// was found in.
type Rule struct {
	Pattern string
	Dir     string
}

// Load reads fileName inside dir. Every trimmed, non-empty line that does not
// start with '#' becomes one rule, in file order. A missing or unreadable
// file yields no rules.
func Load(dir, fileName string) []Rule {
	if fileName == "" {
		fileName = DefaultFileName
	}
	path := filepath.Join(dir, fileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		slog.Debug("ignore-file not readable", "path", path, "error", err)
		return nil
	}
	defer f.Close()

	var out []Rule
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, Rule{Pattern: line, Dir: dir})
	}
	if err := scanner.Err(); err != nil {
		slog.Debug("ignore-file read interrupted", "path", path, "error", err)
	}
	return out
}

// Snapshot is an ordered, read-only rule list. A directory's snapshot is its
// parent's snapshot followed by the directory's own rules; siblings never see
// each other's rules.
type Snapshot struct {
	rules []Rule
}

func NewSnapshot(rules ...Rule) Snapshot {
	if len(rules) == 0 {
		return Snapshot{}
	}
	return Snapshot{rules: append([]Rule(nil), rules...)}
}

// Extend returns a new snapshot with the rules of dir's ignore-file appended.
// The receiver is left untouched.
func (s Snapshot) Extend(dir, fileName string) Snapshot {
	own := Load(dir, fileName)
	if len(own) == 0 {
		return s
	}
	merged := make([]Rule, 0, len(s.rules)+len(own))
	merged = append(merged, s.rules...)
	merged = append(merged, own...)
	return Snapshot{rules: merged}
}

func (s Snapshot) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

func (s Snapshot) Patterns() []string {
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Pattern
	}
	return out
}

func (s Snapshot) Len() int { return len(s.rules) }
