package tileset

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Attributes are read as strings so a missing value can be told apart from 0.
type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr,omitempty"`
	Value string `xml:"value,attr"`
}

type xmlImage struct {
	Width  string `xml:"width,attr"`
	Height string `xml:"height,attr"`
	Source string `xml:"source,attr"`
}

type xmlTile struct {
	ID         string        `xml:"id,attr"`
	Properties []xmlProperty `xml:"properties>property"`
	Image      *xmlImage     `xml:"image"`
}

type xmlTileset struct {
	XMLName    xml.Name  `xml:"tileset"`
	Name       string    `xml:"name,attr"`
	TileWidth  string    `xml:"tilewidth,attr"`
	TileHeight string    `xml:"tileheight,attr"`
	TileCount  string    `xml:"tilecount,attr"`
	Tiles      []xmlTile `xml:"tile"`
}

// Decode parses a tileset document.
func Decode(r io.Reader) (*Tileset, error) {
	var doc xmlTileset
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		var unexpected xml.UnmarshalError
		if errors.As(err, &unexpected) && strings.Contains(string(unexpected), "expected element type") {
			return nil, rootErr("", "", ErrNotTileset)
		}
		return nil, rootErr("", "", fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if err := expectEOF(dec); err != nil {
		return nil, rootErr(strings.TrimSpace(doc.Name), "", err)
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" {
		return nil, rootErr("", "name", ErrMissingAttr)
	}
	tw, err := positive(doc.TileWidth)
	if err != nil {
		return nil, rootErr(name, "tilewidth", err)
	}
	th, err := positive(doc.TileHeight)
	if err != nil {
		return nil, rootErr(name, "tileheight", err)
	}
	tc, err := positive(doc.TileCount)
	if err != nil {
		return nil, rootErr(name, "tilecount", err)
	}

	tiles := make([]Tile, 0, len(doc.Tiles))
	for i, raw := range doc.Tiles {
		t, err := decodeTile(name, i, raw)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}

	return New(name, tw, th, tc, tiles)
}

// expectEOF allows only whitespace, comments and processing instructions after
// the root element.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch tok := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(tok)) > 0 {
				return fmt.Errorf("%w: text after root element", ErrMalformed)
			}
		default:
			return fmt.Errorf("%w: content after root element", ErrMalformed)
		}
	}
}

func decodeTile(name string, pos int, raw xmlTile) (Tile, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw.ID))
	if err != nil {
		return Tile{}, rootErr(name, fmt.Sprintf("tile[%d].id", pos), ErrMissingAttr)
	}
	if id < 0 {
		return Tile{}, tileErr(name, id, "id", ErrIDOutOfRange)
	}

	t := Tile{ID: id}
	for _, p := range raw.Properties {
		t.Properties = append(t.Properties, Property{Name: p.Name, Type: p.Type, Value: p.Value})
		if p.Name == ClassProperty && t.Class == "" {
			t.Class = p.Value
		}
	}
	if t.Class == "" {
		return Tile{}, tileErr(name, id, ClassProperty, ErrMissingClass)
	}

	if raw.Image == nil {
		return Tile{}, tileErr(name, id, "image", ErrMissingImage)
	}
	t.Image.Source = raw.Image.Source
	if t.Image.Width, err = positive(raw.Image.Width); err != nil {
		return Tile{}, tileErr(name, id, "image.width", ErrMissingImage)
	}
	if t.Image.Height, err = positive(raw.Image.Height); err != nil {
		return Tile{}, tileErr(name, id, "image.height", ErrMissingImage)
	}
	return t, nil
}

func positive(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return 0, ErrMissingAttr
	}
	return v, nil
}

// DecodeFile reads and parses the document at path, recording path as origin.
func DecodeFile(path string) (*Tileset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tileset: read %s: %w", path, err)
	}
	ts, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ts.WithOrigin(filepath.ToSlash(path)), nil
}

// DecodeFS is DecodeFile for an fs.FS.
func DecodeFS(fsys fs.FS, name string) (*Tileset, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("tileset: read %s: %w", name, err)
	}
	ts, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return ts.WithOrigin(name), nil
}
