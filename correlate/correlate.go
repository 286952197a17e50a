// Package correlate joins the requirement feed with the ingested links and
// test outcomes and computes each requirement's aggregate status.
package correlate

import (
	"log/slog"
	"sort"

	"github.com/gematik/app-AfoReporter/aggregate"
	"github.com/gematik/app-AfoReporter/evidence"
	"github.com/gematik/app-AfoReporter/requirements"
)

// Orphan is a link target that is not part of the requirement feed.
type Orphan struct {
	RequirementID string              `json:"requirement_id"`
	Identities    []evidence.Identity `json:"identities"`
}

// Result is the correlated state of one run.
type Result struct {
	// Requirements are sorted by id with Status and Results resolved.
	Requirements []*requirements.Requirement `json:"requirements"`

	Links    evidence.LinkSet     `json:"-"`
	Evidence evidence.EvidenceSet `json:"-"`

	// Orphans are linked requirement ids missing from the feed, sorted by id.
	Orphans []Orphan `json:"orphans"`

	// Unreferenced are test outcomes no link points at, sorted by identity.
	Unreferenced []evidence.Evidence `json:"unreferenced"`

	Summary *aggregate.Summary `json:"summary"`
}

// Tested returns the requirements with at least one resolved test outcome.
func (r *Result) Tested() []*requirements.Requirement {
	var out []*requirements.Requirement
	for _, req := range r.Requirements {
		if len(req.Results) > 0 {
			out = append(out, req)
		}
	}
	return out
}

// Untested returns the requirements without resolved test outcomes.
func (r *Result) Untested() []*requirements.Requirement {
	var out []*requirements.Requirement
	for _, req := range r.Requirements {
		if len(req.Results) == 0 {
			out = append(out, req)
		}
	}
	return out
}

// Correlate resolves every requirement against links and index.
//
// A requirement's resolved list holds the outcome of each linked identity
// present in index, in identity order. Linked identities without an outcome
// are left out. Deleted requirements resolve nothing and stay Unknown. The
// Status and Results fields of reqs are overwritten.
func Correlate(reqs []*requirements.Requirement, links evidence.LinkSet, index evidence.EvidenceSet, logger *slog.Logger) *Result {
	if logger == nil {
		logger = slog.Default()
	}
	if links == nil {
		links = evidence.LinkSet{}
	}
	if index == nil {
		index = evidence.EvidenceSet{}
	}

	sorted := append([]*requirements.Requirement(nil), reqs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	res := &Result{
		Requirements: sorted,
		Links:        links,
		Evidence:     index,
		Summary:      aggregate.NewSummary(),
	}

	known := make(map[string]bool, len(sorted))

	// Any linked identity is referenced, including links to orphaned or
	// deleted requirements.
	referenced := make(map[evidence.Identity]bool)
	for _, reqID := range links.RequirementIDs() {
		for _, id := range links.Identities(reqID) {
			referenced[id] = true
		}
	}

	for _, req := range sorted {
		known[req.ID] = true
		req.Results = nil
		req.Status = evidence.StatusUnknown

		if req.Deleted() {
			res.Summary.Add(req.Status, true, 0)
			continue
		}

		for _, id := range links.Identities(req.ID) {
			e, ok := index[id]
			if !ok {
				continue
			}
			req.Results = append(req.Results, e)
		}
		if len(req.Results) > 0 {
			req.Status = aggregate.ReduceEvidence(req.Results)
		}
		res.Summary.Add(req.Status, false, len(req.Results))

		logger.Debug("Requirement resolved",
			slog.String("id", req.ID),
			slog.String("status", req.Status.String()),
			slog.Int("results", len(req.Results)))
	}

	for _, reqID := range links.RequirementIDs() {
		if known[reqID] {
			continue
		}
		ids := links.Identities(reqID)
		logger.Warn("Linked requirement not in feed",
			slog.String("id", reqID),
			slog.Int("tests", len(ids)))
		res.Orphans = append(res.Orphans, Orphan{RequirementID: reqID, Identities: ids})
	}

	for _, e := range index.Sorted() {
		if !referenced[e.Identity] {
			res.Unreferenced = append(res.Unreferenced, e)
		}
	}

	res.Summary.TestResults = len(index)
	res.Summary.Unreferenced = len(res.Unreferenced)
	res.Summary.Orphans = len(res.Orphans)
	return res
}
