package requirements

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// DefaultFeedFile is the feed file name used when none is configured.
const DefaultFeedFile = "requirements.json"

// Feed errors.
var (
	// ErrFeedMissing is returned when the feed file does not exist.
	ErrFeedMissing = errors.New("requirement feed not found")

	// ErrFeedEmpty is returned when the feed contains no requirements.
	ErrFeedEmpty = errors.New("requirement feed is empty")
)

// Load reads the requirement feed at path.
// The feed must exist and hold at least one requirement; no further schema
// validation is done and unknown fields are ignored.
func Load(path string, logger *slog.Logger) ([]*Requirement, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFeedMissing, path)
		}
		return nil, fmt.Errorf("read requirement feed: %w", err)
	}

	logger.Info("Reading requirements", slog.String("path", path))

	reqs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse requirement feed %s: %w", path, err)
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFeedEmpty, path)
	}

	logger.Info("Read requirements", slog.Int("count", len(reqs)))
	return reqs, nil
}

// Parse decodes a JSON array of requirements.
func Parse(data []byte) ([]*Requirement, error) {
	var reqs []*Requirement
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, err
	}

	out := reqs[:0]
	for _, r := range reqs {
		if r == nil {
			continue
		}
		if r.Lifecycle == "" {
			r.Lifecycle = LifecycleNotSet
		}
		out = append(out, r)
	}
	return out, nil
}
