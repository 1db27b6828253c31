// Package tileset models the editor's tileset documents: a named set of tiles,
// each tagged with an opaque cls string and an image reference.
package tileset

import (
	"fmt"
	"path"
	"slices"
)

// ClassProperty is the tile property holding the semantic class.
const ClassProperty = "cls"

type Property struct {
	Name  string
	Type  string
	Value string
}

type Image struct {
	Source string
	Width  int
	Height int
}

// Tile is the descriptor of one tile. Class is never interpreted here.
type Tile struct {
	ID         int
	Class      string
	Image      Image
	Properties []Property
}

// Property returns the value of the named property.
func (t Tile) Property(name string) (string, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func (t Tile) clone() Tile {
	t.Properties = slices.Clone(t.Properties)
	return t
}

// Tileset is an immutable, validated tileset document.
type Tileset struct {
	name       string
	tileWidth  int
	tileHeight int
	tileCount  int
	tiles      []Tile
	index      map[int]int
	origin     string
	warnings   []string
}

// New validates tiles against the header and returns the tileset. The cls
// property is kept in sync with Tile.Class.
func New(name string, tileWidth, tileHeight, tileCount int, tiles []Tile) (*Tileset, error) {
	if name == "" {
		return nil, rootErr(name, "name", ErrMissingAttr)
	}
	header := []struct {
		attr string
		v    int
	}{{"tilewidth", tileWidth}, {"tileheight", tileHeight}, {"tilecount", tileCount}}
	for _, h := range header {
		if h.v <= 0 {
			return nil, rootErr(name, h.attr, ErrMissingAttr)
		}
	}

	ts := &Tileset{
		name:       name,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		tileCount:  tileCount,
		tiles:      make([]Tile, 0, len(tiles)),
		index:      make(map[int]int, len(tiles)),
	}

	for _, t := range tiles {
		if t.ID < 0 || t.ID >= tileCount {
			return nil, tileErr(name, t.ID, "id", ErrIDOutOfRange)
		}
		if _, dup := ts.index[t.ID]; dup {
			return nil, tileErr(name, t.ID, "id", ErrDuplicateID)
		}
		if t.Class == "" {
			return nil, tileErr(name, t.ID, ClassProperty, ErrMissingClass)
		}
		if t.Image.Source == "" {
			return nil, tileErr(name, t.ID, "image.source", ErrMissingImage)
		}
		if t.Image.Width <= 0 {
			return nil, tileErr(name, t.ID, "image.width", ErrMissingImage)
		}
		if t.Image.Height <= 0 {
			return nil, tileErr(name, t.ID, "image.height", ErrMissingImage)
		}
		t = withClassProperty(t.clone())
		ts.index[t.ID] = len(ts.tiles)
		ts.tiles = append(ts.tiles, t)
	}

	slices.SortFunc(ts.tiles, func(a, b Tile) int { return a.ID - b.ID })
	for i, t := range ts.tiles {
		ts.index[t.ID] = i
	}

	if len(ts.tiles) != tileCount {
		ts.warnings = append(ts.warnings,
			fmt.Sprintf("tilecount is %d but %d tiles are defined", tileCount, len(ts.tiles)))
	}
	return ts, nil
}

func withClassProperty(t Tile) Tile {
	for i, p := range t.Properties {
		if p.Name == ClassProperty {
			t.Properties[i].Value = t.Class
			return t
		}
	}
	t.Properties = append([]Property{{Name: ClassProperty, Value: t.Class}}, t.Properties...)
	return t
}

func (ts *Tileset) Name() string    { return ts.name }
func (ts *Tileset) TileWidth() int  { return ts.tileWidth }
func (ts *Tileset) TileHeight() int { return ts.tileHeight }
func (ts *Tileset) TileCount() int  { return ts.tileCount }

// Origin is the slash-separated path the document was read from, if any.
func (ts *Tileset) Origin() string { return ts.origin }

// Warnings lists non-fatal problems found while loading.
func (ts *Tileset) Warnings() []string { return slices.Clone(ts.warnings) }

// Len is the number of defined tiles, which may be less than TileCount.
func (ts *Tileset) Len() int { return len(ts.tiles) }

// Tile returns the descriptor for a local id.
func (ts *Tileset) Tile(id int) (Tile, bool) {
	i, ok := ts.index[id]
	if !ok {
		return Tile{}, false
	}
	return ts.tiles[i].clone(), true
}

// Tiles returns every descriptor in ascending id order.
func (ts *Tileset) Tiles() []Tile {
	out := make([]Tile, len(ts.tiles))
	for i, t := range ts.tiles {
		out[i] = t.clone()
	}
	return out
}

func (ts *Tileset) IDs() []int {
	ids := make([]int, len(ts.tiles))
	for i, t := range ts.tiles {
		ids[i] = t.ID
	}
	return ids
}

// Classes returns the distinct cls values, sorted.
func (ts *Tileset) Classes() []string {
	seen := make(map[string]struct{}, len(ts.tiles))
	out := make([]string, 0, len(ts.tiles))
	for _, t := range ts.tiles {
		if _, ok := seen[t.Class]; ok {
			continue
		}
		seen[t.Class] = struct{}{}
		out = append(out, t.Class)
	}
	slices.Sort(out)
	return out
}

// ImagePath resolves a tile's image source against the directory of the
// document's origin. Without an origin the source is returned unchanged.
func (ts *Tileset) ImagePath(id int) (string, bool) {
	i, ok := ts.index[id]
	if !ok {
		return "", false
	}
	src := ts.tiles[i].Image.Source
	if ts.origin == "" || path.IsAbs(src) {
		return src, true
	}
	return path.Join(path.Dir(ts.origin), src), true
}

// WithOrigin returns a copy of ts that records where it was read from.
func (ts *Tileset) WithOrigin(origin string) *Tileset {
	cp := *ts
	cp.origin = origin
	return &cp
}
