// Package registry keeps loaded tilesets addressable by name and resolves
// (tileset, local id) pairs to tile descriptors.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/milk9111/tilesets/logging"
	"github.com/milk9111/tilesets/tileset"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("duplicate tileset name")
)

// NotFoundError is returned by Lookup. Loaded reports whether the tileset
// itself was present.
type NotFoundError struct {
	Tileset string
	ID      int
	Loaded  bool
}

func (e *NotFoundError) Error() string {
	if !e.Loaded {
		return fmt.Sprintf("registry: tileset %q not loaded", e.Tileset)
	}
	return fmt.Sprintf("registry: tileset %q has no tile %d", e.Tileset, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Ref addresses one tile.
type Ref struct {
	Tileset string
	ID      int
}

type Registry struct {
	mu   sync.RWMutex
	sets map[string]*tileset.Tileset
	log  zerolog.Logger
}

type Option func(*Registry)

func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

func New(opts ...Option) *Registry {
	r := &Registry{
		sets: make(map[string]*tileset.Tileset),
		log:  logging.WithComponent("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load decodes a document and stores it under its name, replacing any
// tileset already loaded with that name. On error the registry is unchanged.
func (r *Registry) Load(src io.Reader) (*tileset.Tileset, error) {
	ts, err := tileset.Decode(src)
	if err != nil {
		return nil, err
	}
	r.Add(ts)
	return ts, nil
}

func (r *Registry) LoadFile(filename string) (*tileset.Tileset, error) {
	ts, err := tileset.DecodeFile(filename)
	if err != nil {
		return nil, err
	}
	r.Add(ts)
	return ts, nil
}

func (r *Registry) LoadFS(fsys fs.FS, name string) (*tileset.Tileset, error) {
	ts, err := tileset.DecodeFS(fsys, name)
	if err != nil {
		return nil, err
	}
	r.Add(ts)
	return ts, nil
}

// LoadDir decodes every *.tsx in dir of fsys concurrently. Either all of them
// are inserted or, on the first error, none are.
func (r *Registry) LoadDir(ctx context.Context, fsys fs.FS, dir string) ([]*tileset.Tileset, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.tsx"))
	if err != nil {
		return nil, fmt.Errorf("registry: scan %s: %w", dir, err)
	}
	return r.loadBatch(ctx, files, func(f string) (*tileset.Tileset, error) {
		return tileset.DecodeFS(fsys, f)
	})
}

// LoadPath is LoadDir for a directory on disk. Origins are the joined file
// paths, matching what LoadFile and the Watcher record.
func (r *Registry) LoadPath(ctx context.Context, dir string) ([]*tileset.Tileset, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.tsx"))
	if err != nil {
		return nil, fmt.Errorf("registry: scan %s: %w", dir, err)
	}
	return r.loadBatch(ctx, files, tileset.DecodeFile)
}

func (r *Registry) loadBatch(ctx context.Context, files []string, decode func(string) (*tileset.Tileset, error)) ([]*tileset.Tileset, error) {
	slices.Sort(files)

	decoded := make([]*tileset.Tileset, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ts, err := decode(f)
			if err != nil {
				return fmt.Errorf("registry: load %s: %w", f, err)
			}
			decoded[i] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(decoded))
	for _, ts := range decoded {
		if prev, ok := byName[ts.Name()]; ok {
			return nil, fmt.Errorf("registry: %s and %s both define %q: %w", prev, ts.Origin(), ts.Name(), ErrDuplicateName)
		}
		byName[ts.Name()] = ts.Origin()
	}

	r.mu.Lock()
	results := make([]putResult, len(decoded))
	for i, ts := range decoded {
		results[i] = r.putLocked(ts)
	}
	r.mu.Unlock()

	for i, ts := range decoded {
		r.logLoaded(ts, results[i])
	}
	return decoded, nil
}

// Add stores an already decoded tileset. A tileset read from a file replaces
// whatever was previously read from that file, even under another name.
func (r *Registry) Add(ts *tileset.Tileset) {
	r.mu.Lock()
	res := r.putLocked(ts)
	r.mu.Unlock()

	r.logLoaded(ts, res)
}

type putResult struct {
	replaced   bool
	superseded []string
}

// putLocked inserts ts and drops other entries sharing its origin.
// Callers hold r.mu.
func (r *Registry) putLocked(ts *tileset.Tileset) putResult {
	var res putResult
	if origin := ts.Origin(); origin != "" {
		for name, prev := range r.sets {
			if name != ts.Name() && prev.Origin() == origin {
				delete(r.sets, name)
				res.superseded = append(res.superseded, name)
			}
		}
		slices.Sort(res.superseded)
	}
	_, res.replaced = r.sets[ts.Name()]
	r.sets[ts.Name()] = ts
	return res
}

func (r *Registry) logLoaded(ts *tileset.Tileset, res putResult) {
	r.log.Debug().
		Str("tileset", ts.Name()).
		Str("origin", ts.Origin()).
		Int("tiles", ts.Len()).
		Bool("replaced", res.replaced).
		Msg("tileset loaded")
	for _, old := range res.superseded {
		r.log.Info().
			Str("tileset", old).
			Str("renamed_to", ts.Name()).
			Str("origin", ts.Origin()).
			Msg("tileset superseded")
	}
	for _, w := range ts.Warnings() {
		r.log.Warn().Str("tileset", ts.Name()).Str("origin", ts.Origin()).Msg(w)
	}
}

// Lookup returns the descriptor for a tile.
func (r *Registry) Lookup(name string, id int) (tileset.Tile, error) {
	r.mu.RLock()
	ts, ok := r.sets[name]
	r.mu.RUnlock()
	if !ok {
		return tileset.Tile{}, &NotFoundError{Tileset: name, ID: id}
	}
	t, ok := ts.Tile(id)
	if !ok {
		return tileset.Tile{}, &NotFoundError{Tileset: name, ID: id, Loaded: true}
	}
	return t, nil
}

// Unload removes a tileset. Unloading an unknown name is a no-op.
func (r *Registry) Unload(name string) {
	r.mu.Lock()
	_, ok := r.sets[name]
	delete(r.sets, name)
	r.mu.Unlock()

	if ok {
		r.log.Debug().Str("tileset", name).Msg("tileset unloaded")
	}
}

// UnloadOrigin removes every tileset that was read from origin and returns
// their names, sorted.
func (r *Registry) UnloadOrigin(origin string) []string {
	if origin == "" {
		return nil
	}
	r.mu.Lock()
	var names []string
	for n, ts := range r.sets {
		if ts.Origin() == origin {
			delete(r.sets, n)
			names = append(names, n)
		}
	}
	r.mu.Unlock()

	slices.Sort(names)
	for _, name := range names {
		r.log.Debug().Str("tileset", name).Str("origin", origin).Msg("tileset unloaded")
	}
	return names
}

func (r *Registry) Get(name string) (*tileset.Tileset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.sets[name]
	return ts, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sets)
}

// Names returns the loaded tileset names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.sets))
	for n := range r.sets {
		names = append(names, n)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Snapshot returns the loaded tilesets sorted by name. Tilesets are immutable
// so the result stays valid after later loads and unloads.
func (r *Registry) Snapshot() []*tileset.Tileset {
	r.mu.RLock()
	out := make([]*tileset.Tileset, 0, len(r.sets))
	for _, ts := range r.sets {
		out = append(out, ts)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *tileset.Tileset) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}

// FindClass returns every tile tagged with cls across all loaded tilesets.
func (r *Registry) FindClass(cls string) []Ref {
	var refs []Ref
	for _, ts := range r.Snapshot() {
		for _, t := range ts.Tiles() {
			if t.Class == cls {
				refs = append(refs, Ref{Tileset: ts.Name(), ID: t.ID})
			}
		}
	}
	return refs
}
