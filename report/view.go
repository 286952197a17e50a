package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gematik/app-AfoReporter/aggregate"
	"github.com/gematik/app-AfoReporter/correlate"
	"github.com/gematik/app-AfoReporter/evidence"
	"github.com/gematik/app-AfoReporter/requirements"
)

// DateLayout is the report date format.
const DateLayout = "02.01.2006 - 15:04:05"

const (
	undefined  = "UNDEFINED"
	notBinding = "notBinding"
)

// sliceColors are the pie chart colors per status.
var sliceColors = map[evidence.Status]string{
	evidence.StatusPassed:  "#30CC22",
	evidence.StatusSkipped: "yellow",
	evidence.StatusFailed:  "orangered",
	evidence.StatusError:   "darkred",
	evidence.StatusUnknown: "#BCC4CA",
}

// Meta is run information shown in the report header.
type Meta struct {
	RunID       string
	GeneratedAt time.Time
	Version     string
}

// View is the data the report templates render.
type View struct {
	Date    string
	Version string
	RunID   string

	// RequirementCount is "<non-deleted> / <all>".
	RequirementCount string
	Referenced       int
	TestResults      int
	Unreferenced     int
	Orphans          int

	Stats  []StatusStat
	Slices []Slice

	Tested        []Entry
	Untested      []Entry
	Unlinked      []TestEntry
	OrphanedLinks []correlate.Orphan

	Summary *aggregate.Summary
}

// StatusStat is one line of the overview.
type StatusStat struct {
	Status  string
	Count   int
	Total   int
	Percent float64
}

// Slice is one pie chart segment. Percent is in [0,1].
type Slice struct {
	Percent float64
	Color   string
}

// Entry is one requirement.
type Entry struct {
	ID          string
	Title       string
	StatusClass string
	Lifecycle   string
	Added       bool
	PetStatus   string
	Description string
	RefName     string
	RefURL      string
	// ResultBar holds one status letter per resolved test outcome.
	ResultBar string
	Tests     []TestEntry
}

// TestEntry is one test outcome.
type TestEntry struct {
	Status    string
	Letter    string
	Namespace string
	Member    string
	Path      string
	Message   string
}

// NewView builds the template data of a correlated run.
func NewView(res *correlate.Result, meta Meta) *View {
	s := res.Summary
	v := &View{
		Date:             meta.GeneratedAt.Format(DateLayout),
		Version:          meta.Version,
		RunID:            meta.RunID,
		RequirementCount: fmt.Sprintf("%d / %d", s.Sum(), s.Total()),
		Referenced:       s.Referenced,
		TestResults:      s.TestResults,
		Unreferenced:     s.Unreferenced,
		Orphans:          s.Orphans,
		OrphanedLinks:    res.Orphans,
		Summary:          s,
	}

	for _, st := range []evidence.Status{evidence.StatusPassed, evidence.StatusSkipped, evidence.StatusFailed, evidence.StatusError, evidence.StatusUnknown} {
		count := s.Count(st)
		total := count
		if st == evidence.StatusUnknown {
			count = s.RealUnknown()
		}
		v.Stats = append(v.Stats, StatusStat{
			Status:  st.Lower(),
			Count:   count,
			Total:   total,
			Percent: s.Percentage(st),
		})
		v.Slices = append(v.Slices, Slice{Percent: s.Percentage(st), Color: sliceColors[st]})
	}

	for _, req := range res.Tested() {
		v.Tested = append(v.Tested, newEntry(req))
	}
	for _, req := range res.Untested() {
		v.Untested = append(v.Untested, newEntry(req))
	}
	v.Unlinked = testEntries(res.Unreferenced)
	return v
}

func newEntry(req *requirements.Requirement) Entry {
	e := Entry{
		ID:          req.IDAndVersion(),
		Title:       req.Title,
		StatusClass: req.Status.Lower(),
		Lifecycle:   req.Lifecycle.String(),
		Added:       req.Added(),
		PetStatus:   req.PetStatus,
		Description: req.Description,
		RefName:     req.RefName,
		RefURL:      req.RefURL,
		Tests:       testEntries(req.Results),
	}
	if req.Deleted() {
		e.StatusClass = string(requirements.LifecycleDeleted)
	}
	if e.PetStatus == "" {
		e.PetStatus = notBinding
	}
	var bar strings.Builder
	for _, t := range e.Tests {
		bar.WriteString(t.Letter)
	}
	e.ResultBar = bar.String()
	return e
}

// testEntries orders outcomes by namespace, keeping identity order within one.
func testEntries(records []evidence.Evidence) []TestEntry {
	sorted := append([]evidence.Evidence(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Namespace() < sorted[j].Namespace() })

	out := make([]TestEntry, 0, len(sorted))
	for _, r := range sorted {
		t := TestEntry{
			Status:    r.Status.Lower(),
			Letter:    r.Status.Letter(),
			Namespace: r.DisplayNamespace(),
			Member:    r.DisplayMember(),
			Path:      r.Path,
			Message:   r.Message,
		}
		if t.Namespace == "" {
			t.Namespace = undefined
		}
		if t.Member == "" {
			t.Member = undefined
		}
		out = append(out, t)
	}
	return out
}
