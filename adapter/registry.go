package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Family selects which pair of adapters is active for a run.
type Family string

const (
	// SourceAnnotated links tests through source annotations and reads JUnit XML results.
	SourceAnnotated Family = "source"

	// TagBased links scenarios through tags and reads tag-run JSON results.
	TagBased Family = "tags"

	// TagRun takes both links and results from tag-run JSON outcome files.
	TagRun Family = "tagrun"
)

// ParseFamily maps a configuration value to a Family.
func ParseFamily(s string) (Family, error) {
	switch f := Family(strings.ToLower(strings.TrimSpace(s))); f {
	case SourceAnnotated, TagBased, TagRun:
		return f, nil
	case "":
		return SourceAnnotated, nil
	default:
		return "", fmt.Errorf("unknown adapter family %q (want %q, %q or %q)", s, SourceAnnotated, TagBased, TagRun)
	}
}

// LinkFactory creates a link adapter.
type LinkFactory func(logger *slog.Logger) LinkScanner

// EvidenceFactory creates a result adapter.
type EvidenceFactory func(logger *slog.Logger) EvidenceScanner

type registration struct {
	link     LinkFactory
	evidence EvidenceFactory
}

// Registry maps adapter families to their adapter factories.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	families map[Family]*registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{families: make(map[Family]*registration)}
}

// DefaultRegistry is populated by the adapter packages' init functions.
var DefaultRegistry = NewRegistry()

// RegisterLink sets the link adapter of a family. A later registration replaces an earlier one.
func (r *Registry) RegisterLink(f Family, factory LinkFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry(f).link = factory
}

// RegisterEvidence sets the result adapter of a family.
func (r *Registry) RegisterEvidence(f Family, factory EvidenceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entry(f).evidence = factory
}

func (r *Registry) entry(f Family) *registration {
	reg, ok := r.families[f]
	if !ok {
		reg = &registration{}
		r.families[f] = reg
	}
	return reg
}

// Resolve instantiates the link and result adapters of a family.
func (r *Registry) Resolve(f Family, logger *slog.Logger) (LinkScanner, EvidenceScanner, error) {
	r.mu.RLock()
	reg, ok := r.families[f]
	r.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("adapter family not registered: %s", f)
	}
	if reg.link == nil {
		return nil, nil, fmt.Errorf("no link adapter registered for family %s", f)
	}
	if reg.evidence == nil {
		return nil, nil, fmt.Errorf("no result adapter registered for family %s", f)
	}

	logger = LoggerOrDefault(logger)
	return reg.link(logger), reg.evidence(logger), nil
}

// Families returns the registered families in sorted order.
func (r *Registry) Families() []Family {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Family, 0, len(r.families))
	for f := range r.families {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
