// Package report renders a correlated run as HTML, JSON or Markdown.
//
// The HTML report is assembled from four templates: header.html, body.html,
// afoentry.html (one requirement) and tcentry.html (one test outcome).
// Embedded defaults are used unless a template directory provides a file
// with the same name.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	texttemplate "text/template"
	"time"

	"github.com/gematik/app-AfoReporter/config"
	"github.com/gematik/app-AfoReporter/correlate"
)

//go:embed templates/*.html templates/*.md.tmpl
var templateFS embed.FS

// TemplateNames are the HTML templates a template directory may override.
var TemplateNames = []string{"header.html", "body.html", "afoentry.html", "tcentry.html"}

// BaseName is the file name of all report outputs without extension.
const BaseName = "aforeport"

var extensions = map[string]string{
	config.FormatHTML:     ".html",
	config.FormatJSON:     ".json",
	config.FormatMarkdown: ".md",
}

// Options configures a Writer.
type Options struct {
	OutputDir   string
	TemplateDir string
	Formats     []string
	Logger      *slog.Logger
}

// Writer renders reports in the configured formats.
type Writer struct {
	opts      Options
	logger    *slog.Logger
	html      *htmltemplate.Template
	markdown  *texttemplate.Template
	converter *Converter
}

// NewWriter parses the report templates.
func NewWriter(opts Options) (*Writer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, f := range opts.Formats {
		if _, ok := extensions[f]; !ok {
			return nil, fmt.Errorf("unknown report format %q", f)
		}
	}

	w := &Writer{
		opts:      opts,
		logger:    logger,
		converter: NewConverter(),
	}

	html, err := w.parseHTML()
	if err != nil {
		return nil, err
	}
	w.html = html

	w.markdown, err = texttemplate.New("report.md.tmpl").Funcs(texttemplate.FuncMap{
		"percent":  percent,
		"cell":     tableCell,
		"excerpt":  Excerpt,
		"markdown": w.converter.Markdown,
	}).ParseFS(templateFS, "templates/report.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse markdown template: %w", err)
	}
	return w, nil
}

func (w *Writer) parseHTML() (*htmltemplate.Template, error) {
	t, err := htmltemplate.New("report").Funcs(htmltemplate.FuncMap{
		"percent": percent,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded templates: %w", err)
	}

	if w.opts.TemplateDir == "" {
		w.logger.Debug("Using internal templates")
		return t, nil
	}

	w.logger.Info("Using templates", slog.String("dir", w.opts.TemplateDir))
	for _, name := range TemplateNames {
		path := filepath.Join(w.opts.TemplateDir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				w.logger.Debug("Template not overridden", slog.String("name", name))
				continue
			}
			return nil, fmt.Errorf("stat template %s: %w", path, err)
		}
		if t, err = t.ParseFiles(path); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", path, err)
		}
	}
	return t, nil
}

// Write renders every configured format into the output directory,
// replacing existing reports. It returns the written paths. All formats are
// rendered before the first file is written.
func (w *Writer) Write(res *correlate.Result, meta Meta) ([]string, error) {
	view := NewView(res, meta)

	rendered := make(map[string][]byte, len(w.opts.Formats))
	for _, format := range w.opts.Formats {
		var buf bytes.Buffer
		var err error
		switch format {
		case config.FormatHTML:
			err = w.RenderHTML(&buf, view)
		case config.FormatJSON:
			err = RenderJSON(&buf, res, meta)
		case config.FormatMarkdown:
			err = w.RenderMarkdown(&buf, view)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s report: %w", format, err)
		}
		rendered[format] = buf.Bytes()
	}

	if err := os.MkdirAll(w.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := w.Paths()
	for i, format := range w.opts.Formats {
		path := paths[i]
		if err := os.WriteFile(path, rendered[format], 0644); err != nil {
			return nil, fmt.Errorf("write %s report: %w", format, err)
		}
		w.logger.Info("Report created",
			slog.String("format", format),
			slog.String("path", path))
	}
	return paths, nil
}

// Paths returns the files Write creates, one per configured format.
func (w *Writer) Paths() []string {
	paths := make([]string, 0, len(w.opts.Formats))
	for _, format := range w.opts.Formats {
		paths = append(paths, filepath.Join(w.opts.OutputDir, BaseName+extensions[format]))
	}
	return paths
}

// RenderHTML writes the HTML report of view to out.
func (w *Writer) RenderHTML(out io.Writer, view *View) error {
	if err := w.html.ExecuteTemplate(out, "header.html", view); err != nil {
		return err
	}
	if _, err := io.WriteString(out, "\n"); err != nil {
		return err
	}
	if err := w.html.ExecuteTemplate(out, "body.html", view); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n</html>\n")
	return err
}

// RenderMarkdown writes the Markdown report of view to out.
func (w *Writer) RenderMarkdown(out io.Writer, view *View) error {
	return w.markdown.Execute(out, view)
}

type jsonReport struct {
	RunID       string    `json:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Version     string    `json:"version"`
	*correlate.Result
}

// RenderJSON writes the machine readable report to out.
func RenderJSON(out io.Writer, res *correlate.Result, meta Meta) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		RunID:       meta.RunID,
		GeneratedAt: meta.GeneratedAt,
		Version:     meta.Version,
		Result:      res,
	})
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
