// Package config provides configuration loading and management for the Afo reporter.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gematik/app-AfoReporter/adapter"
	"github.com/gematik/app-AfoReporter/requirements"
)

// Report formats.
const (
	FormatHTML     = "html"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Config represents the complete reporter configuration
type Config struct {
	Family  string        `yaml:"family"`
	Feed    FeedConfig    `yaml:"feed"`
	Sources SourcesConfig `yaml:"sources"`
	Report  ReportConfig  `yaml:"report"`
	Metrics MetricsConfig `yaml:"metrics"`
	Archive ArchiveConfig `yaml:"archive"`
	Watch   WatchConfig   `yaml:"watch"`
}

// FeedConfig configures the requirement feed
type FeedConfig struct {
	// Path is the requirement feed JSON file (default: requirements.json)
	Path string `yaml:"path"`
	// SanitizeIDs moves version suffixes of feed ids into the version field.
	// Nil leaves the setting of a lower config layer in place.
	SanitizeIDs *bool `yaml:"sanitize_ids,omitempty"`
}

// Sanitize reports whether feed ids are sanitised.
func (f FeedConfig) Sanitize() bool {
	return f.SanitizeIDs != nil && *f.SanitizeIDs
}

// SourcesConfig lists the directories scanned for links and results.
// Entries may be doublestar glob patterns.
type SourcesConfig struct {
	LinkRoots   []string `yaml:"link_roots"`
	ResultRoots []string `yaml:"result_roots"`
}

// ReportConfig configures report rendering
type ReportConfig struct {
	// OutputDir receives aforeport.html, aforeport.json and aforeport.md
	OutputDir string `yaml:"output_dir"`
	// TemplateDir overrides the embedded HTML templates (empty = embedded)
	TemplateDir string `yaml:"template_dir"`
	// Formats selects the rendered formats (html, json, markdown)
	Formats []string `yaml:"formats"`
}

// MetricsConfig configures the Prometheus textfile export
type MetricsConfig struct {
	// TextfilePath is the .prom file to write (empty = disabled)
	TextfilePath string `yaml:"textfile_path"`
}

// ArchiveConfig configures the NATS run archive
type ArchiveConfig struct {
	// NATSURL is the NATS server URL (empty = archive disabled)
	NATSURL string `yaml:"nats_url"`
	// Bucket is the JetStream KV bucket holding the runs
	Bucket string `yaml:"bucket"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	// Debounce is the quiet period after the last change before a re-run
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Family: string(adapter.SourceAnnotated),
		Feed: FeedConfig{
			Path: requirements.DefaultFeedFile,
		},
		Sources: SourcesConfig{
			LinkRoots:   []string{filepath.Join("src", "test")},
			ResultRoots: []string{filepath.Join("target", "surefire-reports")},
		},
		Report: ReportConfig{
			OutputDir: filepath.Join("target", "site", "serenity"),
			Formats:   []string{FormatHTML},
		},
		Archive: ArchiveConfig{
			Bucket: "AFOREPORT_RUNS",
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := adapter.ParseFamily(c.Family); err != nil {
		return fmt.Errorf("family: %w", err)
	}
	if c.Feed.Path == "" {
		return fmt.Errorf("feed.path is required")
	}
	if c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir is required")
	}
	if len(c.Report.Formats) == 0 {
		return fmt.Errorf("report.formats must not be empty")
	}
	for _, f := range c.Report.Formats {
		switch f {
		case FormatHTML, FormatJSON, FormatMarkdown:
		default:
			return fmt.Errorf("report.formats: unknown format %q", f)
		}
	}
	if c.Archive.NATSURL != "" && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required when archive.nats_url is set")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// AdapterFamily returns the configured adapter family.
func (c *Config) AdapterFamily() adapter.Family {
	f, err := adapter.ParseFamily(c.Family)
	if err != nil {
		return adapter.SourceAnnotated
	}
	return f
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Family != "" {
		c.Family = other.Family
	}

	// Feed
	if other.Feed.Path != "" {
		c.Feed.Path = other.Feed.Path
	}
	if other.Feed.SanitizeIDs != nil {
		v := *other.Feed.SanitizeIDs
		c.Feed.SanitizeIDs = &v
	}

	// Sources
	if len(other.Sources.LinkRoots) > 0 {
		c.Sources.LinkRoots = other.Sources.LinkRoots
	}
	if len(other.Sources.ResultRoots) > 0 {
		c.Sources.ResultRoots = other.Sources.ResultRoots
	}

	// Report
	if other.Report.OutputDir != "" {
		c.Report.OutputDir = other.Report.OutputDir
	}
	if other.Report.TemplateDir != "" {
		c.Report.TemplateDir = other.Report.TemplateDir
	}
	if len(other.Report.Formats) > 0 {
		c.Report.Formats = other.Report.Formats
	}

	// Metrics
	if other.Metrics.TextfilePath != "" {
		c.Metrics.TextfilePath = other.Metrics.TextfilePath
	}

	// Archive
	if other.Archive.NATSURL != "" {
		c.Archive.NATSURL = other.Archive.NATSURL
	}
	if other.Archive.Bucket != "" {
		c.Archive.Bucket = other.Archive.Bucket
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}
