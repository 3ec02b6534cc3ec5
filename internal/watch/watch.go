// Package watch re-runs conformance checks when the source tree changes.
// Events are debounced so editor save bursts and code generators trigger a
// single run.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/layerlint/layerlint/internal/index"
	"github.com/layerlint/layerlint/pkg/core"
)

// DefaultDebounce is the quiet period before a change handler fires.
const DefaultDebounce = 250 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Root is the project root containing the source directory.
	Root string
	// Policy supplies the source directory and the generated-file filter.
	Policy *core.Policy
	// Debounce is the quiet period before OnChange fires. Zero means
	// DefaultDebounce.
	Debounce time.Duration
	Logger   *slog.Logger
	// OnChange receives the debounced set of changed paths. Directory
	// events are passed through as-is; handlers are expected to rescan.
	OnChange func(ctx context.Context, paths []string) error
}

// Watcher watches a source tree and invokes a handler on changes.
type Watcher struct {
	root     string
	policy   *core.Policy
	debounce time.Duration
	logger   *slog.Logger
	onChange func(ctx context.Context, paths []string) error
}

// New creates a Watcher from cfg.
func New(cfg Config) (*Watcher, error) {
	if cfg.Policy == nil {
		return nil, fmt.Errorf("watch: policy is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("watch: change handler is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		root:     cfg.Root,
		policy:   cfg.Policy,
		debounce: debounce,
		logger:   logger,
		onChange: cfg.OnChange,
	}, nil
}

// Run watches the source tree until ctx is cancelled. Cancellation is the
// normal way to stop a watch session and is not reported as an error.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	sourceDir := filepath.Join(w.root, w.policy.SourceDir)
	if err := watchDir(watcher, sourceDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", sourceDir, err)
	}

	w.logger.Info("watching for changes", "dir", sourceDir, "debounce", w.debounce)

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)

	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		clear(pending)
		mu.Unlock()

		if len(paths) == 0 {
			return
		}
		sort.Strings(paths)
		w.logger.Debug("change detected", "paths", len(paths))
		if err := w.onChange(ctx, paths); err != nil {
			w.logger.Error("change handler failed", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(watcher, event) {
				continue
			}
			mu.Lock()
			pending[event.Name] = struct{}{}
			mu.Unlock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, flush)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// relevant decides whether an event schedules a run, registering newly
// created directories along the way.
func (w *Watcher) relevant(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watchDir(watcher, event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
			// The directory may already hold files the walk raced past.
			return true
		}
	}

	// A removed or renamed entry can no longer be inspected; it may have
	// been a whole feature directory, so always rescan.
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		return true
	}

	if filepath.Ext(event.Name) != ".dart" {
		return false
	}
	if w.policy.SkipGenerated && index.IsGenerated(name) {
		return false
	}
	return true
}

// watchDir recursively adds a directory tree to the watcher, skipping
// hidden directories.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
