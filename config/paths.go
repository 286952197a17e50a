package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveRoots expands glob patterns to concrete directories.
// Supports both single-level wildcards (*) and recursive wildcards (**).
//
// Examples:
//   - "modules/*/src/test" → ["modules/auth/src/test", "modules/token/src/test"]
//   - "target/surefire-reports" → ["target/surefire-reports"]
//   - "**/target/site/serenity" → every serenity output below the cwd
//
// Plain paths are returned unchanged even if they do not exist; scanning a
// missing root is a warning, not an error. Matches of one pattern are
// sorted, patterns keep their configured order, duplicates are dropped.
func ResolveRoots(patterns []string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var resolved []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		paths, err := resolvePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}
		if len(paths) == 0 {
			logger.Warn("No directories match pattern", slog.String("pattern", pattern))
		}

		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				resolved = append(resolved, p)
			}
		}
	}

	return resolved, nil
}

// resolvePattern expands a single glob pattern to directories.
func resolvePattern(pattern string) ([]string, error) {
	if !containsGlob(pattern) {
		return []string{pattern}, nil
	}

	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	var dirs []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.IsDir() {
			dirs = append(dirs, match)
		}
	}
	sort.Strings(dirs)

	return dirs, nil
}

// containsGlob checks if a pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
