package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gematik/app-AfoReporter/adapter"
	"github.com/gematik/app-AfoReporter/config"
	"github.com/gematik/app-AfoReporter/correlate"
	"github.com/gematik/app-AfoReporter/evidence"
	"github.com/gematik/app-AfoReporter/ingest"
	"github.com/gematik/app-AfoReporter/metrics"
	"github.com/gematik/app-AfoReporter/report"
	"github.com/gematik/app-AfoReporter/storage"
)

// App is the main application that wires together all components.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	dump   bool

	registry *adapter.Registry
	writer   *report.Writer
	metrics  *metrics.Collector

	// Archive, nil unless a NATS URL is configured
	store *storage.Store

	now func() time.Time
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger, dump bool) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	writer, err := report.NewWriter(report.Options{
		OutputDir:   cfg.Report.OutputDir,
		TemplateDir: cfg.Report.TemplateDir,
		Formats:     cfg.Report.Formats,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create report writer: %w", err)
	}

	app := &App{
		cfg:      cfg,
		logger:   logger,
		dump:     dump,
		registry: adapter.DefaultRegistry,
		writer:   writer,
		now:      time.Now,
	}
	if cfg.Metrics.TextfilePath != "" {
		app.metrics = metrics.NewCollector()
	}
	return app, nil
}

// Start connects the run archive when one is configured.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.Archive.NATSURL == "" {
		return nil
	}
	a.logger.Info("Connecting to NATS", slog.String("url", a.cfg.Archive.NATSURL))
	store, err := storage.Connect(ctx, a.cfg.Archive.NATSURL, a.cfg.Archive.Bucket, a.logger)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	a.store = store
	return nil
}

// Shutdown releases the archive connection.
func (a *App) Shutdown() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

// plan resolves the configured roots into an ingestion plan.
func (a *App) plan() (ingest.Plan, error) {
	linkRoots, err := config.ResolveRoots(a.cfg.Sources.LinkRoots, a.logger)
	if err != nil {
		return ingest.Plan{}, fmt.Errorf("resolve link roots: %w", err)
	}
	resultRoots, err := config.ResolveRoots(a.cfg.Sources.ResultRoots, a.logger)
	if err != nil {
		return ingest.Plan{}, fmt.Errorf("resolve result roots: %w", err)
	}
	return ingest.Plan{
		Family:      a.cfg.AdapterFamily(),
		LinkRoots:   linkRoots,
		ResultRoots: resultRoots,
		FeedPath:    a.cfg.Feed.Path,
		SanitizeIDs: a.cfg.Feed.Sanitize(),
	}, nil
}

// WatchRoots returns the resolved link and result roots.
func (a *App) WatchRoots() ([]string, error) {
	p, err := a.plan()
	if err != nil {
		return nil, err
	}
	return append(p.LinkRoots, p.ResultRoots...), nil
}

// OutputFiles returns the files a run writes. Watch mode ignores them.
func (a *App) OutputFiles() []string {
	files := a.writer.Paths()
	if a.cfg.Metrics.TextfilePath != "" {
		files = append(files, a.cfg.Metrics.TextfilePath)
	}
	return files
}

// Run ingests, correlates and writes every configured output once.
func (a *App) Run(ctx context.Context) (*correlate.Result, error) {
	started := a.now()

	plan, err := a.plan()
	if err != nil {
		return nil, err
	}

	outcome, err := ingest.NewCoordinator(a.registry, a.logger).Run(ctx, plan)
	if err != nil {
		return nil, err
	}

	res := correlate.Correlate(outcome.Requirements, outcome.Links, outcome.Evidence, a.logger)
	if a.dump {
		a.dumpResult(res)
	}

	runID := storage.NewRunID()
	meta := report.Meta{RunID: runID.String(), GeneratedAt: started, Version: Version}
	if _, err := a.writer.Write(res, meta); err != nil {
		return nil, err
	}

	if a.metrics != nil {
		a.metrics.Observe(res.Summary)
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
			return nil, err
		}
		a.logger.Info("Metrics written", slog.String("path", a.cfg.Metrics.TextfilePath))
	}

	if a.store != nil {
		run := storage.NewRun(runID, a.cfg.Family, Version, started, a.now(), res)
		if err := a.store.SaveRun(ctx, run); err != nil {
			a.logger.Warn("Failed to archive run",
				slog.String("run", runID.String()),
				slog.String("error", err.Error()))
		}
	}

	s := res.Summary
	a.logger.Info("Report complete",
		slog.String("run", runID.String()),
		slog.Int("requirements", s.Sum()),
		slog.Int("passed", s.Count(evidence.StatusPassed)),
		slog.Int("failed", s.Count(evidence.StatusFailed)),
		slog.Int("unreferenced", s.Unreferenced),
		slog.Int("orphans", s.Orphans))
	return res, nil
}

func (a *App) dumpResult(res *correlate.Result) {
	for _, req := range res.Requirements {
		a.logger.Debug("Requirement",
			slog.String("id", req.IDAndVersion()),
			slog.String("status", req.Status.String()),
			slog.Int("results", len(req.Results)))
		for _, r := range req.Results {
			a.logger.Debug("  Result",
				slog.String("test", string(r.Identity)),
				slog.String("status", r.Status.String()))
		}
	}
	for _, r := range res.Unreferenced {
		a.logger.Debug("Unreferenced result",
			slog.String("test", string(r.Identity)),
			slog.String("status", r.Status.String()))
	}
}
