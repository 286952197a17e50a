// Package evidence defines the value types shared by every evidence adapter
// and by the correlation engine: test identities, outcome statuses, links and
// evidence records.
package evidence

import (
	"sort"
	"strings"
)

// Separator joins the namespace and member parts of an Identity.
const Separator = ":"

// Identity names one physical test across all adapters.
// Two adapters must produce byte-identical identities for the same test.
type Identity string

// NewIdentity builds an identity from a namespace (class or feature) and a
// member (method or scenario).
func NewIdentity(namespace, member string) Identity {
	return Identity(namespace + Separator + member)
}

// Namespace returns the part before the first separator.
// Identities are opaque keys; Namespace and Member are for display only.
func (id Identity) Namespace() string {
	s := string(id)
	if i := strings.Index(s, Separator); i >= 0 {
		return s[:i]
	}
	return ""
}

// Member returns the part after the first separator.
func (id Identity) Member() string {
	s := string(id)
	if i := strings.Index(s, Separator); i >= 0 {
		return s[i+len(Separator):]
	}
	return s
}

// String returns the string representation of the identity.
func (id Identity) String() string {
	return string(id)
}

// Less orders identities lexicographically on the concatenated key.
func (id Identity) Less(other Identity) bool {
	return id < other
}

// SortIdentities sorts ids in place and returns them.
func SortIdentities(ids []Identity) []Identity {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}
