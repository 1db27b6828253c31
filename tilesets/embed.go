// Package tilesets embeds the game's tileset documents.
package tilesets

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/milk9111/tilesets/tileset"
)

//go:embed *.tsx
var FS embed.FS

const (
	Doors    = "doors"
	Enemies  = "enemies"
	Powerups = "powerups"
)

// Loader is satisfied by *registry.Registry.
type Loader interface {
	LoadFS(fsys fs.FS, name string) (*tileset.Tileset, error)
}

// Files lists the embedded document file names, sorted.
func Files() []string {
	matches, err := fs.Glob(FS, "*.tsx")
	if err != nil {
		return nil
	}
	slices.Sort(matches)
	return matches
}

// Names lists the embedded tileset names derived from their file names.
func Names() []string {
	files := Files()
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = strings.TrimSuffix(f, ".tsx")
	}
	return out
}

func LoadTilesetFromFS(name string) (*tileset.Tileset, error) {
	file := name
	if !strings.HasSuffix(file, ".tsx") {
		file += ".tsx"
	}
	ts, err := tileset.DecodeFS(FS, file)
	if err != nil {
		return nil, fmt.Errorf("tilesets: load %s: %w", name, err)
	}
	return ts, nil
}

// LoadInto loads every embedded document into l.
func LoadInto(l Loader) error {
	for _, f := range Files() {
		if _, err := l.LoadFS(FS, f); err != nil {
			return fmt.Errorf("tilesets: load %s: %w", f, err)
		}
	}
	return nil
}
