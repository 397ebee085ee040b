// Package watch observes workspace manifests for changes so long-lived
// processes can drop stale resolution state.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const (
	manifestFile  = "package.xml"
	debounceDelay = 200 * time.Millisecond
)

// ChangeEvent is a debounced batch of manifest changes.
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// Watcher watches every directory that holds a package.xml under the
// given roots. colcon builds touch many files at once, so events are
// debounced into batches.
type Watcher struct {
	fs     *fsnotify.Watcher
	roots  []string
	events chan ChangeEvent
	logger *log.Logger
}

// New creates a watcher over the given roots. Call Start to begin
// delivering events.
func New(roots []string, logger *log.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		fs:     fs,
		roots:  roots,
		events: make(chan ChangeEvent, 16),
		logger: logger,
	}, nil
}

// Start registers manifest directories and begins processing events
// until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	count := 0
	for _, root := range w.roots {
		count += w.addManifestDirs(root)
	}
	w.logger.Info("watching manifest directories", "count", count)

	go w.run(ctx)
	return nil
}

// Events returns the channel of debounced change batches. Closed when
// the context passed to Start is canceled.
func (w *Watcher) Events() <-chan ChangeEvent {
	return w.events
}

// addManifestDirs walks root and watches each directory containing a
// manifest. Unreadable subtrees are skipped.
func (w *Watcher) addManifestDirs(root string) int {
	dirs := make(map[string]struct{})
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() && strings.HasPrefix(info.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if !info.IsDir() && info.Name() == manifestFile {
			dirs[filepath.Dir(path)] = struct{}{}
		}
		return nil
	})

	count := 0
	for dir := range dirs {
		if err := w.fs.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", "path", dir, "err", err)
			continue
		}
		count++
	}
	return count
}

func (w *Watcher) run(ctx context.Context) {
	var pending []string
	flush := time.NewTimer(debounceDelay)
	flush.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.fs.Close()
			close(w.events)
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				close(w.events)
				return
			}
			if filepath.Base(event.Name) != manifestFile {
				continue
			}
			pending = append(pending, event.Name)
			flush.Reset(debounceDelay)

		case <-flush.C:
			if len(pending) == 0 {
				continue
			}
			batch := ChangeEvent{Paths: pending, Timestamp: time.Now()}
			pending = nil
			select {
			case w.events <- batch:
			default:
				w.logger.Warn("dropping change batch, consumer is behind")
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				close(w.events)
				return
			}
			w.logger.Error("watch error", "err", err)
		}
	}
}
