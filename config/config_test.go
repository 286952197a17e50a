package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gematik/app-AfoReporter/adapter"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Family != "source" {
		t.Errorf("expected default family source, got %s", cfg.Family)
	}
	if cfg.Feed.Path != "requirements.json" {
		t.Errorf("expected default feed requirements.json, got %s", cfg.Feed.Path)
	}
	if cfg.Report.OutputDir != filepath.Join("target", "site", "serenity") {
		t.Errorf("unexpected default output dir %s", cfg.Report.OutputDir)
	}
	if cfg.Archive.NATSURL != "" {
		t.Error("expected archive disabled by default")
	}
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "tag family",
			modify:  func(c *Config) { c.Family = "tags" },
			wantErr: false,
		},
		{
			name:    "unknown family",
			modify:  func(c *Config) { c.Family = "cobol" },
			wantErr: true,
		},
		{
			name:    "missing feed",
			modify:  func(c *Config) { c.Feed.Path = "" },
			wantErr: true,
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.Report.Formats = []string{"pdf"} },
			wantErr: true,
		},
		{
			name:    "no formats",
			modify:  func(c *Config) { c.Report.Formats = nil },
			wantErr: true,
		},
		{
			name:    "archive without bucket",
			modify:  func(c *Config) { c.Archive.NATSURL = "nats://localhost:4222"; c.Archive.Bucket = "" },
			wantErr: true,
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
family: tags
feed:
  path: "afos/requirements.json"
  sanitize_ids: true
sources:
  link_roots:
    - "src/test/resources/features"
  result_roots:
    - "target/site/serenity"
report:
  output_dir: "out"
  formats: [html, json]
metrics:
  textfile_path: "/var/lib/node_exporter/aforeport.prom"
archive:
  nats_url: "nats://test:4222"
watch:
  debounce: 5s
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, adapter.TagBased, cfg.AdapterFamily())
	assert.Equal(t, "afos/requirements.json", cfg.Feed.Path)
	assert.True(t, cfg.Feed.Sanitize())
	assert.Equal(t, []string{"src/test/resources/features"}, cfg.Sources.LinkRoots)
	assert.Equal(t, []string{"target/site/serenity"}, cfg.Sources.ResultRoots)
	assert.Equal(t, "out", cfg.Report.OutputDir)
	assert.Equal(t, []string{"html", "json"}, cfg.Report.Formats)
	assert.Equal(t, "/var/lib/node_exporter/aforeport.prom", cfg.Metrics.TextfilePath)
	assert.Equal(t, "nats://test:4222", cfg.Archive.NATSURL)
	assert.Equal(t, 5*time.Second, cfg.Watch.Debounce)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("family: [unclosed"), 0644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Family: "tags",
		Sources: SourcesConfig{
			LinkRoots: []string{"features"},
		},
	}

	base.Merge(override)

	assert.Equal(t, "tags", base.Family)
	assert.Equal(t, []string{"features"}, base.Sources.LinkRoots)
	// Untouched sections keep their defaults.
	assert.Equal(t, []string{filepath.Join("target", "surefire-reports")}, base.Sources.ResultRoots)
	assert.Equal(t, "requirements.json", base.Feed.Path)
	assert.Equal(t, "AFOREPORT_RUNS", base.Archive.Bucket)

	base.Merge(nil)
	assert.Equal(t, "tags", base.Family)
}

func TestConfigMergeSanitizeIDs(t *testing.T) {
	on, off := true, false

	base := DefaultConfig()
	assert.False(t, base.Feed.Sanitize())

	base.Merge(&Config{Feed: FeedConfig{SanitizeIDs: &on}})
	assert.True(t, base.Feed.Sanitize())

	base.Merge(&Config{})
	assert.True(t, base.Feed.Sanitize(), "unset keeps the lower layer")

	base.Merge(&Config{Feed: FeedConfig{SanitizeIDs: &off}})
	assert.False(t, base.Feed.Sanitize(), "explicit false overrides")
}

func TestLoaderProjectDisablesSanitizeIDs(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(home, UserConfigDir), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, UserConfigDir, UserConfigFile),
		[]byte("feed:\n  sanitize_ids: true\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectConfigFile),
		[]byte("feed:\n  sanitize_ids: false\n"), 0644))

	l := NewLoader(nil)
	l.homeDir = home
	l.workDir = project

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.False(t, cfg.Feed.Sanitize())
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Feed.Path = "saved.json"

	require.NoError(t, cfg.SaveToFile(configPath))

	loaded, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "saved.json", loaded.Feed.Path)
	assert.Equal(t, cfg.Watch.Debounce, loaded.Watch.Debounce)
}

func TestLoaderLayers(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	nested := filepath.Join(project, "module", "sub")
	require.NoError(t, os.MkdirAll(nested, 0755))

	user := &Config{Feed: FeedConfig{Path: "user.json"}, Archive: ArchiveConfig{NATSURL: "nats://user:4222"}}
	require.NoError(t, user.SaveToFile(filepath.Join(home, UserConfigDir, UserConfigFile)))

	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectConfigFile),
		[]byte("feed:\n  path: project.json\n"), 0644))

	l := NewLoader(nil)
	l.homeDir = home
	l.workDir = nested

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "project.json", cfg.Feed.Path, "project config wins over user config")
	assert.Equal(t, "nats://user:4222", cfg.Archive.NATSURL, "user config survives where project is silent")
	assert.Equal(t, "source", cfg.Family)
}

func TestLoaderInvalidProjectConfig(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectConfigFile),
		[]byte("family: fortran\n"), 0644))

	l := NewLoader(nil)
	l.homeDir = t.TempDir()
	l.workDir = project

	_, err := l.Load()
	assert.Error(t, err)
}

func TestLoaderLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explicit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  formats: [markdown]\n"), 0644))

	cfg, err := NewLoader(nil).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{FormatMarkdown}, cfg.Report.Formats)
	assert.Equal(t, "requirements.json", cfg.Feed.Path)
}
