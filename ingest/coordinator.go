// Package ingest runs the two ingestion phases of a reporting run.
//
// The link phase scans every link root for requirement links, the result
// phase scans every result root for test outcomes. Both phases run
// concurrently while the coordinator loads the requirement feed. The
// coordinator always waits for both phases before it returns.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gematik/app-AfoReporter/adapter"
	"github.com/gematik/app-AfoReporter/evidence"
	"github.com/gematik/app-AfoReporter/requirements"
)

// Run errors.
var (
	// ErrConfiguration is returned when the requirement feed is missing,
	// unreadable or empty.
	ErrConfiguration = errors.New("configuration error")

	// ErrIngestion is returned when an adapter fails to scan a root.
	ErrIngestion = errors.New("ingestion failed")
)

// Phase names used in errors and logs.
const (
	PhaseLinks   = "links"
	PhaseResults = "results"
)

// Plan describes the inputs of one run.
type Plan struct {
	Family      adapter.Family
	LinkRoots   []string
	ResultRoots []string
	FeedPath    string

	// SanitizeIDs moves version suffixes of feed ids ("A_123-01") into
	// the requirement version.
	SanitizeIDs bool
}

// Outcome is the joined state of a successful ingestion.
type Outcome struct {
	Requirements []*requirements.Requirement
	Links        evidence.LinkSet
	Evidence     evidence.EvidenceSet
}

// Coordinator resolves the adapters of a plan's family and runs both phases.
type Coordinator struct {
	registry *adapter.Registry
	logger   *slog.Logger
}

// NewCoordinator creates a coordinator. A nil registry selects
// adapter.DefaultRegistry.
func NewCoordinator(registry *adapter.Registry, logger *slog.Logger) *Coordinator {
	if registry == nil {
		registry = adapter.DefaultRegistry
	}
	return &Coordinator{
		registry: registry,
		logger:   adapter.LoggerOrDefault(logger),
	}
}

// firstError records the first phase error in completion order.
type firstError struct {
	mu    sync.Mutex
	err   error
	later []error
}

func (f *firstError) record(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.err = err
		return
	}
	f.later = append(f.later, err)
}

// Run executes the plan. A feed failure is returned as ErrConfiguration, an
// adapter failure as ErrIngestion. Both are reported only after both phases
// have finished.
func (c *Coordinator) Run(ctx context.Context, plan Plan) (*Outcome, error) {
	links, results, err := c.registry.Resolve(plan.Family, c.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	start := time.Now()
	c.logger.Info("Starting ingestion",
		slog.String("family", string(plan.Family)),
		slog.Int("link_roots", len(plan.LinkRoots)),
		slog.Int("result_roots", len(plan.ResultRoots)))

	var (
		g        errgroup.Group
		failures firstError
		linkSet  evidence.LinkSet
		evSet    evidence.EvidenceSet
	)

	g.Go(func() error {
		set, err := c.linkPhase(ctx, links, plan.LinkRoots)
		if err != nil {
			failures.record(err)
			return err
		}
		linkSet = set
		return nil
	})
	g.Go(func() error {
		set, err := c.resultPhase(ctx, results, plan.ResultRoots)
		if err != nil {
			failures.record(err)
			return err
		}
		evSet = set
		return nil
	})

	reqs, feedErr := requirements.Load(plan.FeedPath, c.logger)

	// Join both phases regardless of the feed outcome.
	_ = g.Wait()

	if feedErr != nil {
		if failures.err != nil {
			for _, err := range append([]error{failures.err}, failures.later...) {
				c.logger.Error("Ingestion phase failed",
					slog.String("error", err.Error()))
			}
		}
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, feedErr)
	}

	if failures.err != nil {
		for _, err := range failures.later {
			c.logger.Error("Ingestion phase failed",
				slog.String("error", err.Error()))
		}
		return nil, failures.err
	}

	if plan.SanitizeIDs {
		for _, req := range reqs {
			req.SanitizeID()
		}
	}

	c.logger.Info("Ingestion finished",
		slog.Int("requirements", len(reqs)),
		slog.Int("linked_requirements", len(linkSet)),
		slog.Int("results", len(evSet)),
		slog.Duration("duration", time.Since(start)))

	return &Outcome{
		Requirements: reqs,
		Links:        linkSet,
		Evidence:     evSet,
	}, nil
}

// linkPhase scans the link roots in order and unions their links.
func (c *Coordinator) linkPhase(ctx context.Context, scanner adapter.LinkScanner, roots []string) (evidence.LinkSet, error) {
	set := evidence.LinkSet{}
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, phaseError(PhaseLinks, root, err)
		}
		found, err := scanner.ScanForLinks(ctx, root)
		if err != nil {
			return nil, phaseError(PhaseLinks, root, err)
		}
		c.logger.Debug("Scanned link root",
			slog.String("root", root),
			slog.Int("requirements", len(found)),
			slog.Int("links", found.Len()))
		set.Merge(found)
	}
	return set, nil
}

// resultPhase scans the result roots in order. A later root replaces
// records of an earlier root with the same identity.
func (c *Coordinator) resultPhase(ctx context.Context, scanner adapter.EvidenceScanner, roots []string) (evidence.EvidenceSet, error) {
	set := evidence.EvidenceSet{}
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, phaseError(PhaseResults, root, err)
		}
		found, err := scanner.ScanForEvidence(ctx, root)
		if err != nil {
			return nil, phaseError(PhaseResults, root, err)
		}
		c.logger.Debug("Scanned result root",
			slog.String("root", root),
			slog.Int("results", len(found)))
		set.Merge(found)
	}
	return set, nil
}

func phaseError(phase, root string, err error) error {
	return fmt.Errorf("%w: %s phase: root %s: %w", ErrIngestion, phase, root, err)
}
