package tileset

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

type xmlOutTileset struct {
	XMLName    xml.Name     `xml:"tileset"`
	Name       string       `xml:"name,attr"`
	TileWidth  int          `xml:"tilewidth,attr"`
	TileHeight int          `xml:"tileheight,attr"`
	TileCount  int          `xml:"tilecount,attr"`
	Tiles      []xmlOutTile `xml:"tile"`
}

type xmlOutTile struct {
	ID         int           `xml:"id,attr"`
	Properties []xmlProperty `xml:"properties>property"`
	Image      xmlImage      `xml:"image"`
}

// Encode writes ts in the same format Decode reads.
func (ts *Tileset) Encode(w io.Writer) error {
	doc := xmlOutTileset{
		Name:       ts.name,
		TileWidth:  ts.tileWidth,
		TileHeight: ts.tileHeight,
		TileCount:  ts.tileCount,
		Tiles:      make([]xmlOutTile, 0, len(ts.tiles)),
	}
	for _, t := range ts.tiles {
		out := xmlOutTile{
			ID: t.ID,
			Image: xmlImage{
				Width:  strconv.Itoa(t.Image.Width),
				Height: strconv.Itoa(t.Image.Height),
				Source: t.Image.Source,
			},
		}
		for _, p := range t.Properties {
			out.Properties = append(out.Properties, xmlProperty(p))
		}
		doc.Tiles = append(doc.Tiles, out)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("tileset: encode %s: %w", ts.name, err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("tileset: encode %s: %w", ts.name, err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("tileset: encode %s: %w", ts.name, err)
	}
	return nil
}

func (ts *Tileset) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := ts.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
