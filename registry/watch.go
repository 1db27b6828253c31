package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long a path must stay quiet before it is reloaded.
const DefaultDebounce = 100 * time.Millisecond

type ChangeOp int

const (
	Reloaded ChangeOp = iota
	Unloaded
)

func (op ChangeOp) String() string {
	if op == Unloaded {
		return "unloaded"
	}
	return "reloaded"
}

type Change struct {
	Op      ChangeOp
	Path    string
	Tileset string
}

// Watcher reloads tileset documents into a Registry as they change on disk.
// A document that fails to parse leaves the previous version loaded.
type Watcher struct {
	reg      *Registry
	watcher  *fsnotify.Watcher
	log      zerolog.Logger
	debounce time.Duration
	Changes  chan Change
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

func NewWatcher(reg *Registry, dirs ...string) (*Watcher, error) {
	return newWatcher(reg, DefaultDebounce, dirs...)
}

func newWatcher(reg *Registry, debounce time.Duration, dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		reg:      reg,
		watcher:  w,
		log:      reg.log.With().Str("component", "watcher").Logger(),
		debounce: debounce,
		Changes:  make(chan Change, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and closes Changes and Errors. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Changes)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isTilesetFile(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)
		case <-timer.C:
			for p := range pending {
				w.apply(p)
			}
			clear(pending)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) apply(path string) {
	origin := filepath.ToSlash(path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		for _, name := range w.reg.UnloadOrigin(origin) {
			w.log.Info().Str("tileset", name).Str("path", path).Msg("tileset removed")
			w.emit(Change{Op: Unloaded, Path: path, Tileset: name})
		}
		return
	}

	ts, err := w.reg.LoadFile(path)
	if err != nil {
		w.log.Error().Err(err).Str("path", path).Msg("tileset reload failed")
		w.report(err)
		return
	}
	w.log.Info().Str("tileset", ts.Name()).Str("path", path).Msg("tileset reloaded")
	w.emit(Change{Op: Reloaded, Path: path, Tileset: ts.Name()})
}

func (w *Watcher) emit(c Change) {
	select {
	case w.Changes <- c:
	case <-w.closeCh:
	}
}

// report drops errors nobody is reading; they are logged regardless.
func (w *Watcher) report(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}

func isTilesetFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".tsx"
}
