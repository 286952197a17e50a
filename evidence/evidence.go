package evidence

import "sort"

// Evidence is one observed test outcome.
type Evidence struct {
	Identity `json:"id"`

	Status Status `json:"status"`
	Suite  string `json:"suite,omitempty"`

	// Diagnostics, set for failed, errored and skipped tests.
	Message   string `json:"message,omitempty"`
	Type      string `json:"type,omitempty"`
	Detail    string `json:"detail,omitempty"`
	SystemOut string `json:"system_out,omitempty"`
	SystemErr string `json:"system_err,omitempty"`

	// Display metadata.
	FeatureName  string `json:"feature_name,omitempty"`
	ScenarioName string `json:"scenario_name,omitempty"`
	Path         string `json:"path,omitempty"`
}

// DisplayNamespace returns the feature name if known, else the identity namespace.
func (e Evidence) DisplayNamespace() string {
	if e.FeatureName != "" {
		return e.FeatureName
	}
	return e.Namespace()
}

// DisplayMember returns the scenario name if known, else the identity member.
func (e Evidence) DisplayMember() string {
	if e.ScenarioName != "" {
		return e.ScenarioName
	}
	return e.Member()
}

// EvidenceSet indexes evidence by identity. A later Put replaces an earlier one.
type EvidenceSet map[Identity]Evidence

// Put stores e, replacing any record with the same identity.
func (s EvidenceSet) Put(e Evidence) {
	s[e.Identity] = e
}

// Merge copies all records of other into s; records of other win on collision.
func (s EvidenceSet) Merge(other EvidenceSet) {
	for id, e := range other {
		s[id] = e
	}
}

// Sorted returns the records ordered by identity.
func (s EvidenceSet) Sorted() []Evidence {
	out := make([]Evidence, 0, len(s))
	for _, e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity.Less(out[j].Identity) })
	return out
}
