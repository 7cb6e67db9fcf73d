package docstore

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event describes a change to one document.
type Event struct {
	Path   string // virtual path
	Remove bool   // file deleted or renamed away
}

// Watcher pushes filesystem change events for markdown documents under a
// store's root. It prefers fsnotify; repeated watcher failures switch it to
// fixed-interval mtime polling for the remainder of the process lifetime.
type Watcher struct {
	store    *Store
	interval time.Duration
	log      *slog.Logger
	notify   func(Event)
}

// watchMaxRetries is how many consecutive watcher failures are tolerated
// before falling back to polling.
const watchMaxRetries = 5

func NewWatcher(store *Store, interval time.Duration, log *slog.Logger, notify func(Event)) *Watcher {
	return &Watcher{store: store, interval: interval, log: log, notify: notify}
}

// Run blocks until ctx is canceled, delivering events through the notify
// callback. Watcher errors retry with exponential backoff; once the retry
// budget is spent, Run polls instead and never returns to event watching.
func (w *Watcher) Run(ctx context.Context) {
	backoff := time.Second
	for attempt := 1; ; attempt++ {
		err := w.watch(ctx)
		if ctx.Err() != nil {
			return
		}
		if attempt >= watchMaxRetries {
			w.log.Warn("watcher failed repeatedly, falling back to polling",
				"error", err, "interval", w.interval)
			w.poll(ctx)
			return
		}
		w.log.Warn("watcher error, restarting", "error", err, "backoff", backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

func (w *Watcher) watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	err = filepath.WalkDir(w.store.Root(), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("watch event channel closed")
			}
			w.handle(fw, ev)
		case werr, ok := <-fw.Errors:
			if !ok {
				return errors.New("watch error channel closed")
			}
			return werr
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) {
	// New directories need an explicit watch.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := fw.Add(ev.Name); err != nil {
				w.log.Warn("watch new directory", "path", ev.Name, "error", err)
			}
			return
		}
	}

	if !isMarkdown(ev.Name) {
		return
	}
	v := w.store.Virtual(ev.Name)
	if v == "" {
		return
	}
	switch {
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		w.notify(Event{Path: v, Remove: true})
	case ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create):
		w.notify(Event{Path: v})
	}
}

// poll diffs mtime snapshots at a fixed interval, emitting the same events
// the watcher would.
func (w *Watcher) poll(ctx context.Context) {
	prev := w.snapshot()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next := w.snapshot()
			for path, info := range next {
				old, ok := prev[path]
				if !ok || !old.ModTime.Equal(info.ModTime) || old.Size != info.Size {
					w.notify(Event{Path: path})
				}
			}
			for path := range prev {
				if _, ok := next[path]; !ok {
					w.notify(Event{Path: path, Remove: true})
				}
			}
			prev = next
		}
	}
}

func (w *Watcher) snapshot() map[string]FileInfo {
	snap := make(map[string]FileInfo)
	paths, err := w.store.List()
	if err != nil {
		w.log.Warn("poll listing failed", "error", err)
		return snap
	}
	for _, p := range paths {
		if info, err := w.store.Stat(p); err == nil {
			snap[p] = info
		}
	}
	return snap
}

func isMarkdown(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".md" || ext == ".markdown"
}
