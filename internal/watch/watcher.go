package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change is one debounced batch of filesystem events.
type Change struct {
	Paths []string // affected paths, deduplicated
}

// Watcher monitors content directories and emits debounced change batches.
// Rapid bursts of events (editor save dances, bulk copies) collapse into a
// single Change.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	changes  chan Change
}

// New creates a watcher with the given debounce window.
func New(debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		changes:  make(chan Change, 1),
	}, nil
}

// Add watches a directory tree recursively. Missing roots are skipped so a
// book without an assets directory still watches its chapters.
func (w *Watcher) Add(root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		slog.Debug("Skipping missing watch root", "path", root)
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// AddFile watches a single file's directory (reliable across editors that
// replace files on save) without recursing.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return w.fsw.Add(filepath.Dir(abs))
}

// Changes returns the channel of debounced change batches.
func (w *Watcher) Changes() <-chan Change { return w.changes }

// Start runs the watch loop until the context is canceled.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error { return w.fsw.Close() }

func (w *Watcher) loop(ctx context.Context) {
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		pending = map[string]struct{}{}
	)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			// New directories join the watch set so nested additions keep working.
			if event.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					_ = w.Add(event.Name)
				}
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", "error", err)

		case <-timerCh:
			change := Change{Paths: make([]string, 0, len(pending))}
			for p := range pending {
				change.Paths = append(change.Paths, p)
			}
			pending = map[string]struct{}{}
			timerCh = nil

			select {
			case w.changes <- change:
			default:
				// A change is already queued; the consumer rebuilds from
				// scratch anyway, so dropping the batch loses nothing.
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	// Editor swap files.
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename)
}
