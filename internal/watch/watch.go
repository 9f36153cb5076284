// Package watch reports image files that appear in capture directories once
// their writer has gone quiet.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a file that has stopped changing.
type Event struct {
	Path string
	Time time.Time
}

// Watcher monitors directories for new or rewritten files.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan Event
	dirs    []string
	exts    map[string]bool
	settle  time.Duration
	logger  *slog.Logger

	once sync.Once
	done chan struct{}
}

// New creates a watcher for dirs. Only files whose lower-cased extension is in
// exts are reported; an empty list reports everything. settle is how long a
// file must go without events before it is reported.
func New(dirs []string, exts []string, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	w := &Watcher{
		watcher: fw,
		Events:  make(chan Event, 100),
		dirs:    dirs,
		exts:    make(map[string]bool, len(exts)),
		settle:  settle,
		logger:  logger,
		done:    make(chan struct{}),
	}
	for _, e := range exts {
		w.exts[strings.ToLower(e)] = true
	}
	return w, nil
}

// Start adds the directories and begins processing events. Events is closed
// when ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
		w.logger.Info("watching directory", "dir", dir)
	}
	go w.run(ctx)
	return nil
}

// Stop ends monitoring.
func (w *Watcher) Stop() error {
	w.once.Do(func() { close(w.done) })
	return w.watcher.Close()
}

func (w *Watcher) wanted(path string) bool {
	if len(w.exts) == 0 {
		return true
	}
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.Events)

	pending := make(map[string]time.Time)
	tick := time.NewTicker(w.settle / 2)
	defer tick.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.wanted(event.Name) {
				continue
			}
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write:
				pending[event.Name] = time.Now()
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				delete(pending, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "err", err)

		case now := <-tick.C:
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				delete(pending, path)
				select {
				case w.Events <- Event{Path: path, Time: now}:
				default:
					w.logger.Warn("event buffer full, dropping file", "path", path)
				}
			}

		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}
