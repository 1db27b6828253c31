package registry

import (
	"cmp"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/milk9111/tilesets/tileset"
)

// Flip flags the map editor stores in the high bits of a global tile id.
const (
	FlipHorizontal uint32 = 0x80000000
	FlipVertical   uint32 = 0x40000000
	FlipDiagonal   uint32 = 0x20000000

	flipMask = FlipHorizontal | FlipVertical | FlipDiagonal
)

var ErrBadFirstGID = errors.New("invalid firstgid")

// GIDRef binds a tileset to the first global id it occupies in a map.
type GIDRef struct {
	FirstGID uint32
	Tileset  string
}

// GIDTable translates a map's global tile ids into registry refs.
type GIDTable struct {
	refs []GIDRef
}

func NewGIDTable(refs ...GIDRef) (*GIDTable, error) {
	sorted := slices.Clone(refs)
	slices.SortFunc(sorted, func(a, b GIDRef) int { return cmp.Compare(a.FirstGID, b.FirstGID) })
	for i, ref := range sorted {
		if ref.FirstGID == 0 || ref.FirstGID&flipMask != 0 {
			return nil, fmt.Errorf("registry: tileset %q firstgid %d: %w", ref.Tileset, ref.FirstGID, ErrBadFirstGID)
		}
		if i > 0 && sorted[i-1].FirstGID == ref.FirstGID {
			return nil, fmt.Errorf("registry: tilesets %q and %q share firstgid %d: %w",
				sorted[i-1].Tileset, ref.Tileset, ref.FirstGID, ErrBadFirstGID)
		}
	}
	return &GIDTable{refs: sorted}, nil
}

// Resolve strips flip flags from gid and returns the owning tileset and local
// id. Zero is an empty cell and never resolves.
func (g *GIDTable) Resolve(gid uint32) (Ref, bool) {
	gid &^= flipMask
	if gid == 0 {
		return Ref{}, false
	}
	i, found := slices.BinarySearchFunc(g.refs, gid, func(r GIDRef, target uint32) int {
		return cmp.Compare(r.FirstGID, target)
	})
	if !found {
		i--
	}
	if i < 0 {
		return Ref{}, false
	}
	ref := g.refs[i]
	return Ref{Tileset: ref.Tileset, ID: int(gid - ref.FirstGID)}, true
}

// Lookup resolves gid and fetches its descriptor from reg.
func (g *GIDTable) Lookup(reg *Registry, gid uint32) (tileset.Tile, error) {
	ref, ok := g.Resolve(gid)
	if !ok {
		return tileset.Tile{}, &NotFoundError{ID: int(gid &^ flipMask)}
	}
	return reg.Lookup(ref.Tileset, ref.ID)
}

type xmlMap struct {
	XMLName  xml.Name `xml:"map"`
	Tilesets []struct {
		FirstGID uint32 `xml:"firstgid,attr"`
		Source   string `xml:"source,attr"`
		Name     string `xml:"name,attr"`
	} `xml:"tileset"`
}

// ParseMapTilesets reads the tileset references of a map document. External
// references are named after their file, so "../tilesets/doors.tsx" binds to
// the "doors" tileset.
func ParseMapTilesets(r io.Reader) (*GIDTable, error) {
	var m xmlMap
	if err := xml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("registry: parse map: %w", err)
	}
	refs := make([]GIDRef, 0, len(m.Tilesets))
	for _, ts := range m.Tilesets {
		name := ts.Name
		if ts.Source != "" {
			base := path.Base(strings.ReplaceAll(ts.Source, `\`, "/"))
			name = strings.TrimSuffix(base, path.Ext(base))
		}
		refs = append(refs, GIDRef{FirstGID: ts.FirstGID, Tileset: name})
	}
	return NewGIDTable(refs...)
}
