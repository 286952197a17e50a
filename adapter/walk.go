package adapter

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SkipDir reports whether a directory below a scan root should be skipped.
// Only hidden directories are skipped: names like build or out are ordinary
// package segments in a source tree.
func SkipDir(name string) bool {
	return strings.HasPrefix(name, ".")
}

// WalkFiles calls visit for every regular file below root accepted by match,
// in lexical path order. Unreadable subdirectories are logged and skipped;
// only a failure to read root itself is returned.
func WalkFiles(ctx context.Context, root string, logger *slog.Logger, match func(name string) bool, visit func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return ScanError(root, err)
			}
			logger.Warn("Skipping unreadable path",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() && match(d.Name()) {
			visit(path)
		}
		return nil
	})
}

// ListFiles returns the regular files directly inside root accepted by match,
// in lexical order. A failure to read root is returned as a scan error.
func ListFiles(root string, match func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, ScanError(root, err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && match(e.Name()) {
			files = append(files, filepath.Join(root, e.Name()))
		}
	}
	return files, nil
}
