package aggregate

import "github.com/gematik/app-AfoReporter/evidence"

// Summary holds the counters shown in the report overview.
// It is a derived view; every field is a plain sum over requirements.
type Summary struct {
	// Requirements counts requirements per aggregate status, deleted ones included.
	Requirements map[evidence.Status]int `json:"requirements"`

	// DeletedUnknown counts deleted requirements (always Unknown).
	DeletedUnknown int `json:"deleted_unknown"`

	// Referenced is the total number of evidence records resolved for requirements.
	Referenced int `json:"referenced"`

	// TestResults is the size of the global evidence index.
	TestResults int `json:"test_results"`

	// Unreferenced is the number of evidence records no requirement reached.
	Unreferenced int `json:"unreferenced"`

	// Orphans is the number of linked requirement ids missing from the feed.
	Orphans int `json:"orphans"`
}

// NewSummary returns a Summary with all status counters at zero.
func NewSummary() *Summary {
	s := &Summary{Requirements: make(map[evidence.Status]int, len(evidence.Statuses))}
	for _, st := range evidence.Statuses {
		s.Requirements[st] = 0
	}
	return s
}

// Add accounts one requirement with its aggregate status and resolved record count.
func (s *Summary) Add(status evidence.Status, deleted bool, referenced int) {
	if deleted {
		status = evidence.StatusUnknown
		s.DeletedUnknown++
	}
	s.Requirements[status]++
	s.Referenced += referenced
}

// Count returns the number of requirements with the given aggregate status.
func (s *Summary) Count(status evidence.Status) int {
	return s.Requirements[status]
}

// Total returns the number of requirements including deleted ones.
func (s *Summary) Total() int {
	total := 0
	for _, n := range s.Requirements {
		total += n
	}
	return total
}

// Sum returns the number of non-deleted requirements.
func (s *Summary) Sum() int {
	return s.Total() - s.DeletedUnknown
}

// RealUnknown returns the number of non-deleted requirements without a known outcome.
func (s *Summary) RealUnknown() int {
	return s.Count(evidence.StatusUnknown) - s.DeletedUnknown
}

// Percentage returns the share of non-deleted requirements with status in [0,1].
// Unknown is measured without deleted requirements.
func (s *Summary) Percentage(status evidence.Status) float64 {
	sum := s.Sum()
	if sum == 0 {
		return 0
	}
	n := s.Count(status)
	if status == evidence.StatusUnknown {
		n = s.RealUnknown()
	}
	return float64(n) / float64(sum)
}
