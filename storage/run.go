// Package storage archives correlated runs in a NATS JetStream key-value
// bucket so coverage can be compared across builds.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gematik/app-AfoReporter/aggregate"
	"github.com/gematik/app-AfoReporter/correlate"
	"github.com/gematik/app-AfoReporter/evidence"
)

// RunID identifies one archived run.
type RunID string

// NewRunID generates a new unique run id.
func NewRunID() RunID {
	return RunID(uuid.New().String())
}

// ParseRunID validates s as a run id.
func ParseRunID(s string) (RunID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidRunID, s, err)
	}
	return RunID(id.String()), nil
}

// String returns the run id.
func (id RunID) String() string {
	return string(id)
}

// Run is the archived record of one report run.
type Run struct {
	ID         RunID              `json:"id"`
	Family     string             `json:"family"`
	Version    string             `json:"version"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Summary    *aggregate.Summary `json:"summary"`

	// Requirements maps each requirement id to its aggregate status.
	Requirements map[string]evidence.Status `json:"requirements"`

	// Orphans are the linked requirement ids missing from the feed.
	Orphans []string `json:"orphans,omitempty"`
}

// NewRun builds the archive record of res.
func NewRun(id RunID, family, version string, started, finished time.Time, res *correlate.Result) *Run {
	r := &Run{
		ID:           id,
		Family:       family,
		Version:      version,
		StartedAt:    started,
		FinishedAt:   finished,
		Summary:      res.Summary,
		Requirements: make(map[string]evidence.Status, len(res.Requirements)),
	}
	for _, req := range res.Requirements {
		r.Requirements[req.ID] = req.Status
	}
	for _, o := range res.Orphans {
		r.Orphans = append(r.Orphans, o.RequirementID)
	}
	return r
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Changed returns the requirement ids whose status differs from prev,
// including requirements present in only one of both runs, sorted.
func (r *Run) Changed(prev *Run) []string {
	var ids []string
	for id, st := range r.Requirements {
		if old, ok := prev.Requirements[id]; !ok || old != st {
			ids = append(ids, id)
		}
	}
	for id := range prev.Requirements {
		if _, ok := r.Requirements[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func encodeRun(r *Run) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal run: %w", err)
	}
	return data, nil
}

func decodeRun(data []byte) (*Run, error) {
	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	if r.Summary == nil {
		r.Summary = aggregate.NewSummary()
	}
	return &r, nil
}

// sortRuns orders runs newest first.
func sortRuns(runs []*Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
}
