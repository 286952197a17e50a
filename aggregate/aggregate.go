// Package aggregate reduces the evidence resolved for a requirement to a
// single status and tallies summary counters over all requirements.
package aggregate

import "github.com/gematik/app-AfoReporter/evidence"

// Reduce returns the highest-precedence status in statuses.
// Precedence is Error > Failed > Passed > Skipped > Unknown; an empty list
// reduces to Unknown. The result does not depend on order or duplicates.
func Reduce(statuses []evidence.Status) evidence.Status {
	result := evidence.StatusUnknown
	for _, s := range statuses {
		if s > result {
			result = s
		}
		if result == evidence.StatusError {
			break
		}
	}
	return result
}

// ReduceEvidence reduces the statuses of records.
func ReduceEvidence(records []evidence.Evidence) evidence.Status {
	statuses := make([]evidence.Status, len(records))
	for i, r := range records {
		statuses[i] = r.Status
	}
	return Reduce(statuses)
}
