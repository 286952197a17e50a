// Package adapter defines the contract evidence adapters implement and the
// registry the ingestion coordinator selects them from.
//
// A link adapter scans a directory tree for requirement references embedded
// in test sources. A result adapter scans a directory tree for test outcome
// artifacts. An adapter may implement either or both.
//
// Contract:
//   - an empty or missing root is logged as a warning and yields an empty result
//   - an invalid individual file is logged and skipped
//   - only a failure to enumerate a present root is returned as an error
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gematik/app-AfoReporter/evidence"
)

// ErrScan wraps unrecoverable scan failures.
var ErrScan = errors.New("scan failed")

// LinkScanner discovers requirement-to-test links below a root directory.
type LinkScanner interface {
	ScanForLinks(ctx context.Context, root string) (evidence.LinkSet, error)
}

// EvidenceScanner discovers test outcomes below a root directory.
type EvidenceScanner interface {
	ScanForEvidence(ctx context.Context, root string) (evidence.EvidenceSet, error)
}

// CheckRoot reports whether root is a directory that can be scanned.
// Empty, missing and non-directory roots are logged as warnings.
func CheckRoot(root, kind string, logger *slog.Logger) bool {
	if root == "" {
		logger.Warn("Invalid empty root dir", slog.String("kind", kind))
		return false
	}
	info, err := os.Stat(root)
	if err != nil {
		logger.Warn("Invalid root dir",
			slog.String("kind", kind),
			slog.String("path", root),
			slog.String("error", err.Error()))
		return false
	}
	if !info.IsDir() {
		logger.Warn("Root is not a directory",
			slog.String("kind", kind),
			slog.String("path", root))
		return false
	}
	return true
}

// ScanError wraps err as an unrecoverable scan failure of root.
func ScanError(root string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrScan, root, err)
}

// LoggerOrDefault returns logger, or slog.Default() when logger is nil.
func LoggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
