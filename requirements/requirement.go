// Package requirements loads the requirement feed (Afos) the report is built for.
package requirements

import (
	"encoding/json"
	"strings"

	"github.com/gematik/app-AfoReporter/evidence"
)

// Lifecycle is the declared lifecycle status of a requirement.
type Lifecycle string

const (
	LifecycleNotSet  Lifecycle = "notset"
	LifecycleAdded   Lifecycle = "added"
	LifecycleDeleted Lifecycle = "deleted"
)

// String returns the lifecycle name.
func (l Lifecycle) String() string {
	if l == "" {
		return string(LifecycleNotSet)
	}
	return string(l)
}

// UnmarshalJSON accepts the lifecycle name in any case; unknown names become NotSet.
func (l *Lifecycle) UnmarshalJSON(data []byte) error {
	var name *string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*l = LifecycleNotSet
	if name == nil {
		return nil
	}
	switch v := Lifecycle(strings.ToLower(strings.TrimSpace(*name))); v {
	case LifecycleAdded, LifecycleDeleted:
		*l = v
	}
	return nil
}

// Requirement is one entry of the requirement feed.
// Status and Results are the only fields mutated after loading.
type Requirement struct {
	ID          string          `json:"id"`
	Version     string          `json:"version,omitempty"`
	Title       string          `json:"title"`
	Status      evidence.Status `json:"status"`
	Lifecycle   Lifecycle       `json:"afoStatus"`
	RefName     string          `json:"refName,omitempty"`
	RefURL      string          `json:"refURL,omitempty"`
	Description string          `json:"description,omitempty"`
	PetStatus   string          `json:"petStatus,omitempty"`

	Results []evidence.Evidence `json:"results"`
}

// Deleted reports whether the requirement was removed from the specification.
func (r *Requirement) Deleted() bool {
	return r.Lifecycle == LifecycleDeleted
}

// Added reports whether the requirement was added manually.
func (r *Requirement) Added() bool {
	return r.Lifecycle == LifecycleAdded
}

// IDAndVersion returns "id-version", or the id alone when no version is set.
func (r *Requirement) IDAndVersion() string {
	if r.Version != "" {
		return r.ID + "-" + r.Version
	}
	return r.ID
}

// SanitizeID moves a version suffix embedded in the id into Version.
// The suffix is the part after the first dash following the first underscore,
// e.g. "A_12345-01" becomes id "A_12345" with version "01".
func (r *Requirement) SanitizeID() {
	underscore := strings.Index(r.ID, "_")
	dash := strings.Index(r.ID[underscore+1:], "-")
	if dash == -1 {
		return
	}
	dash += underscore + 1
	r.Version = r.ID[dash+1:]
	r.ID = r.ID[:dash]
}
