// Package watch re-runs the report when test sources or results change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Extensions are the file types that trigger a run.
var Extensions = []string{".java", ".feature", ".xml", ".json"}

// Config configures a Watcher.
type Config struct {
	// Roots are the directories to watch recursively.
	Roots []string

	// Files are watched through their parent directory.
	Files []string

	// Ignore are files that never trigger a run, such as the outputs of
	// the run itself.
	Ignore []string

	// Debounce is how long to wait for more changes before a run.
	Debounce time.Duration

	Logger *slog.Logger
}

// RunFunc is called with the changed paths once changes settle.
type RunFunc func(ctx context.Context, changed []string) error

// Watcher watches the source and result roots.
type Watcher struct {
	config  Config
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	files   map[string]bool
	ignore  map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
}

// New creates a watcher and registers all roots.
func New(config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}

	w := &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		files:   make(map[string]bool),
		ignore:  make(map[string]bool),
		pending: make(map[string]fsnotify.Op),
	}

	for _, root := range config.Roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	for _, file := range config.Ignore {
		w.ignore[absPath(file)] = true
	}
	for _, file := range config.Files {
		abs := absPath(file)
		w.files[abs] = true
		if err := fsw.Add(filepath.Dir(abs)); err != nil {
			logger.Warn("Failed to watch file",
				slog.String("path", abs),
				slog.String("error", err.Error()))
		}
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run calls fn after each settled batch of relevant changes until ctx is
// done. A failing fn is logged and watching continues.
func (w *Watcher) Run(ctx context.Context, fn RunFunc) error {
	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	w.logger.Info("Watching for changes",
		slog.Any("roots", w.config.Roots),
		slog.Duration("debounce", w.config.Debounce))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			changed := w.drain()
			if len(changed) == 0 {
				continue
			}
			w.logger.Info("Changes detected", slog.Int("files", len(changed)))
			if err := fn(ctx, changed); err != nil {
				w.logger.Error("Run failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.logger.Warn("Failed to watch new directory",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}
			return
		}
	}
	if !w.Relevant(path) {
		return
	}
	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected",
		slog.String("path", path),
		slog.String("op", event.Op.String()))
}

// Relevant reports whether a change of path should trigger a run.
func (w *Watcher) Relevant(path string) bool {
	abs := absPath(path)
	if w.ignore[abs] {
		return false
	}
	if w.files[abs] {
		return true
	}
	if hidden(filepath.Base(path)) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// drain returns and clears the pending paths, sorted.
func (w *Watcher) drain() []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]fsnotify.Op)
	sort.Strings(changed)
	return changed
}

func (w *Watcher) addRecursive(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		w.logger.Debug("Watching directory", slog.String("path", path))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		w.logger.Warn("Watch root does not exist", slog.String("root", root))
		return nil
	}
	return err
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}
