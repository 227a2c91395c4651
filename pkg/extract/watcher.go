package extract

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/storydex/pkg/catalog"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher re-runs source extraction when story files change and swaps the
// fresh catalog into the store wholesale. Rapid bursts of events are
// debounced into a single rebuild.
type Watcher struct {
	fsw      *fsnotify.Watcher
	source   *SourceStrategy
	store    *catalog.Store
	debounce time.Duration
	logger   *slog.Logger

	rebuildMu    sync.Mutex
	rebuildTimer *time.Timer

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewWatcher creates a watcher that keeps store in sync with the story
// sources that strategy extracts from. debounce of zero uses a default.
func NewWatcher(source *SourceStrategy, store *catalog.Store, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		fsw:      fsw,
		source:   source,
		store:    store,
		debounce: debounce,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Start registers the root tree with the OS watcher and begins processing
// events in the background.
func (w *Watcher) Start(ctx context.Context) error {
	root := w.source.root
	if err := w.addTree(root); err != nil {
		return err
	}

	w.logger.Info("watching for story changes", "root", root)
	go w.eventLoop(ctx)
	return nil
}

// Stop shuts the watcher down. Idempotent.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)

		w.rebuildMu.Lock()
		if w.rebuildTimer != nil {
			w.rebuildTimer.Stop()
		}
		w.rebuildMu.Unlock()

		err = w.fsw.Close()
		w.logger.Info("watcher stopped")
	})
	return err
}

// addTree registers root and its non-excluded subdirectories. fsnotify
// watches are not recursive, so every directory is added individually.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.excludedDir(root, path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name

	// New directories need their own watch before events inside them fire.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.excludedDir(w.source.root, path) {
				if err := w.fsw.Add(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if !IsStoryFile(path) {
		return
	}

	w.logger.Debug("story file event", "op", event.Op.String(), "file", path)

	switch {
	case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create):
		w.scheduleRebuild(ctx)
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.source.cache.Remove(path)
		w.source.files.Evict(path)
		w.scheduleRebuild(ctx)
	}
}

// scheduleRebuild arms the debounce timer; repeated events within the
// window collapse into one rebuild.
func (w *Watcher) scheduleRebuild(ctx context.Context) {
	w.rebuildMu.Lock()
	defer w.rebuildMu.Unlock()

	if w.rebuildTimer != nil {
		w.rebuildTimer.Stop()
	}
	w.rebuildTimer = time.AfterFunc(w.debounce, func() {
		w.rebuild(ctx)
	})
}

// rebuild re-extracts from source and replaces the stored catalog. The
// per-file cache makes this cheap: unchanged files are not re-parsed.
func (w *Watcher) rebuild(ctx context.Context) {
	select {
	case <-w.stopChan:
		return
	default:
	}

	start := time.Now()
	cat, err := w.source.Extract(ctx)
	if err != nil {
		w.logger.Warn("rebuild failed, keeping previous catalog", "error", err)
		return
	}

	w.store.Replace(cat)
	w.logger.Info("catalog rebuilt",
		"stories", cat.TotalStories,
		"duration", time.Since(start))
}

func (w *Watcher) excludedDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return false
	}
	for _, pattern := range storyExcludes {
		// Exclude patterns are "<dir>/**"; a directory is excluded when it
		// is that dir or lives under it.
		prefix := strings.TrimSuffix(pattern, "/**")
		if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
			return true
		}
	}
	return false
}
