package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/tilesets/tileset"
)

type tileView struct {
	Tileset    string            `yaml:"tileset,omitempty" json:"tileset,omitempty"`
	ID         int               `yaml:"id" json:"id"`
	Class      string            `yaml:"cls" json:"cls"`
	Source     string            `yaml:"source" json:"source"`
	Width      int               `yaml:"width" json:"width"`
	Height     int               `yaml:"height" json:"height"`
	Properties map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
}

type tilesetView struct {
	Name       string     `yaml:"name" json:"name"`
	TileWidth  int        `yaml:"tilewidth" json:"tilewidth"`
	TileHeight int        `yaml:"tileheight" json:"tileheight"`
	TileCount  int        `yaml:"tilecount" json:"tilecount"`
	Tiles      []tileView `yaml:"tiles" json:"tiles"`
}

func newTileView(set string, t tileset.Tile) tileView {
	v := tileView{
		Tileset: set,
		ID:      t.ID,
		Class:   t.Class,
		Source:  t.Image.Source,
		Width:   t.Image.Width,
		Height:  t.Image.Height,
	}
	for _, p := range t.Properties {
		if p.Name == tileset.ClassProperty {
			continue
		}
		if v.Properties == nil {
			v.Properties = map[string]string{}
		}
		v.Properties[p.Name] = p.Value
	}
	return v
}

func newTilesetView(ts *tileset.Tileset) tilesetView {
	v := tilesetView{
		Name:       ts.Name(),
		TileWidth:  ts.TileWidth(),
		TileHeight: ts.TileHeight(),
		TileCount:  ts.TileCount(),
	}
	for _, t := range ts.Tiles() {
		v.Tiles = append(v.Tiles, newTileView("", t))
	}
	return v
}

func writeAs(w io.Writer, format string, v any) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown format %q", format)
}
