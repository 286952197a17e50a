package evidence

import "sort"

// Link associates a requirement id with the test that claims to cover it.
type Link struct {
	Identity `json:"id"`

	RequirementID string `json:"requirement_id"`

	FeatureName  string `json:"feature_name,omitempty"`
	ScenarioName string `json:"scenario_name,omitempty"`
	Path         string `json:"path,omitempty"`
}

// LinkSet maps requirement ids to the set of tests linked to them.
// Identities within one requirement are deduplicated.
type LinkSet map[string]map[Identity]Link

// Add records l. An existing link with the same requirement and identity is kept.
func (s LinkSet) Add(l Link) {
	tests, ok := s[l.RequirementID]
	if !ok {
		tests = make(map[Identity]Link)
		s[l.RequirementID] = tests
	}
	if _, exists := tests[l.Identity]; !exists {
		tests[l.Identity] = l
	}
}

// Merge unions other into s.
func (s LinkSet) Merge(other LinkSet) {
	for _, tests := range other {
		for _, l := range tests {
			s.Add(l)
		}
	}
}

// Identities returns the sorted identities linked to reqID.
func (s LinkSet) Identities(reqID string) []Identity {
	tests := s[reqID]
	ids := make([]Identity, 0, len(tests))
	for id := range tests {
		ids = append(ids, id)
	}
	return SortIdentities(ids)
}

// RequirementIDs returns the sorted requirement ids that carry at least one link.
func (s LinkSet) RequirementIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of distinct (requirement, identity) pairs.
func (s LinkSet) Len() int {
	n := 0
	for _, tests := range s {
		n += len(tests)
	}
	return n
}

// Tests returns the number of distinct identities across all requirements.
func (s LinkSet) Tests() int {
	seen := make(map[Identity]struct{})
	for _, tests := range s {
		for id := range tests {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}
