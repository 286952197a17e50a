package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gematik/app-AfoReporter/adapter"
	"github.com/gematik/app-AfoReporter/config"
)

// options are the flags shared by run and watch.
type options struct {
	configPath  string
	family      string
	feed        string
	linkRoots   []string
	resultRoots []string
	bdd         []string
	templates   string
	out         string
	formats     []string
	metricsFile string
	natsURL     string
	sanitizeIDs bool
	dump        bool
	logLevel    string
	debounce    time.Duration
}

func (o *options) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "Config file path (YAML)")
	f.StringVar(&o.family, "family", "", "Adapter family (source, tags, tagrun)")
	f.StringVarP(&o.feed, "feed", "f", "", "Requirement feed (JSON)")
	f.StringSliceVarP(&o.linkRoots, "link-root", "t", nil, "Directory scanned for requirement links (repeatable, globs allowed)")
	f.StringSliceVarP(&o.resultRoots, "result-root", "r", nil, "Directory scanned for test results (repeatable, globs allowed)")
	f.StringSliceVarP(&o.bdd, "bdd", "b", nil, "Feature directory; selects the tags family (repeatable)")
	f.StringVar(&o.templates, "templates", "", "Directory overriding the report templates")
	f.StringVarP(&o.out, "out", "o", "", "Report output directory")
	f.StringSliceVar(&o.formats, "format", nil, "Report format: html, json, markdown (repeatable)")
	f.StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.StringVar(&o.natsURL, "nats-url", "", "Archive runs in NATS JetStream KV at this URL")
	f.BoolVar(&o.sanitizeIDs, "sanitize-ids", false, "Move version suffixes of feed ids into the version")
	f.BoolVar(&o.dump, "dump", false, "Log every requirement and test outcome")
	f.StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// load reads the layered config and applies the flags that were set.
func (o *options) load(cmd *cobra.Command, logger *slog.Logger) (*config.Config, error) {
	cfg, err := loadConfig(o.configPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	o.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("family") {
		cfg.Family = o.family
	}
	if changed("feed") {
		cfg.Feed.Path = o.feed
	}
	if changed("link-root") {
		cfg.Sources.LinkRoots = o.linkRoots
	}
	if changed("result-root") {
		cfg.Sources.ResultRoots = o.resultRoots
	}
	if changed("bdd") {
		cfg.Family = string(adapter.TagBased)
		cfg.Sources.LinkRoots = o.bdd
		if !changed("result-root") {
			cfg.Sources.ResultRoots = []string{filepath.Join("target", "site", "serenity")}
		}
	}
	if changed("templates") {
		cfg.Report.TemplateDir = o.templates
	}
	if changed("out") {
		cfg.Report.OutputDir = o.out
	}
	if changed("format") {
		cfg.Report.Formats = o.formats
	}
	if changed("metrics-file") {
		cfg.Metrics.TextfilePath = o.metricsFile
	}
	if changed("nats-url") {
		cfg.Archive.NATSURL = o.natsURL
	}
	if changed("sanitize-ids") {
		v := o.sanitizeIDs
		cfg.Feed.SanitizeIDs = &v
	}
	if changed("debounce") {
		cfg.Watch.Debounce = o.debounce
	}
}
