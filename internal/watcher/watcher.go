// Package watcher monitors the SQLite database file for changes made by
// other processes, such as a CLI invocation running while the web
// dashboard is open, and notifies a callback so the dashboard can refresh.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const debounceDelay = 250 * time.Millisecond

// Watcher fires a callback when the database file is modified. The watch
// covers the parent directory, not the file itself: fsnotify loses a
// file-level watch when the file is replaced, and SQLite in WAL mode
// writes to -wal and -shm sidecars next to the database.
type Watcher struct {
	dbPath   string
	dir      string
	notify   func()
	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	started  bool
	startMu  sync.Mutex
}

// New creates a Watcher for the given database path. The notify callback
// fires, debounced, whenever the database or a sidecar is written.
func New(dbPath string, notify func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(dbPath)
	if err != nil {
		abs = dbPath
	}
	abs = filepath.Clean(abs)

	return &Watcher{
		dbPath: abs,
		dir:    filepath.Dir(abs),
		notify: notify,
		fsw:    fsw,
		done:   make(chan struct{}),
	}, nil
}

// Start arms the directory watch and launches the event loop. Calling
// Start on a running watcher is a no-op.
func (w *Watcher) Start() error {
	w.startMu.Lock()
	defer w.startMu.Unlock()
	if w.started {
		return nil
	}
	w.started = true

	if err := w.rearm(); err != nil {
		log.Warn().Err(err).Str("dir", w.dir).Msg("Directory watch unavailable")
		// The loop rearms when the directory reappears.
	}

	go w.run()
	return nil
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) rearm() error {
	if _, err := os.Stat(w.dir); err != nil {
		return err
	}
	return w.fsw.Add(w.dir)
}

// watched reports whether path is the database or one of its SQLite
// sidecars (-wal, -shm, -journal).
func (w *Watcher) watched(path string) bool {
	p := filepath.Clean(path)
	return p == w.dbPath || strings.HasPrefix(p, w.dbPath+"-")
}

func (w *Watcher) run() {
	// The timer starts stopped and is reset on every relevant event, so
	// a burst of writes produces a single callback.
	pending := time.NewTimer(debounceDelay)
	if !pending.Stop() {
		<-pending.C
	}
	defer pending.Stop()

	for {
		select {
		case <-w.done:
			return

		case <-pending.C:
			log.Debug().Str("path", w.dbPath).Msg("Database changed on disk")
			if w.notify != nil {
				w.notify()
			}

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == w.dir && ev.Op.Has(fsnotify.Create) {
				_ = w.rearm()
				continue
			}
			if !w.watched(ev.Name) {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Remove) {
				continue
			}
			pending.Reset(debounceDelay)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}
