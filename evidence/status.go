package evidence

import (
	"encoding/json"
	"strings"
)

// Status is a test or requirement outcome.
// The declaration order is the aggregation precedence: a higher value wins.
type Status int

const (
	StatusUnknown Status = iota
	StatusSkipped
	StatusPassed
	StatusFailed
	StatusError
)

// Statuses lists every status in ascending precedence.
var Statuses = []Status{StatusUnknown, StatusSkipped, StatusPassed, StatusFailed, StatusError}

var statusNames = map[Status]string{
	StatusUnknown: "UNKNOWN",
	StatusSkipped: "SKIPPED",
	StatusPassed:  "PASSED",
	StatusFailed:  "FAILED",
	StatusError:   "ERROR",
}

// String returns the upper-case status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[StatusUnknown]
}

// Lower returns the lower-case status name, used as CSS class in reports.
func (s Status) Lower() string {
	return strings.ToLower(s.String())
}

// Letter returns the first letter of the status name.
func (s Status) Letter() string {
	return s.String()[:1]
}

// ParseStatus maps a status name to a Status. Unrecognised names map to Unknown.
func ParseStatus(name string) Status {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for s, n := range statusNames {
		if n == upper {
			return s
		}
	}
	return StatusUnknown
}

// MarshalJSON encodes the status as its upper-case name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MarshalText encodes the status name; it keys JSON maps by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}

// UnmarshalJSON decodes a status name; null and unknown names become Unknown.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name *string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if name == nil {
		*s = StatusUnknown
		return nil
	}
	*s = ParseStatus(*name)
	return nil
}
