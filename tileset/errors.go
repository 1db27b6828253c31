package tileset

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed    = errors.New("malformed document")
	ErrNotTileset   = errors.New("root element is not a tileset")
	ErrMissingAttr  = errors.New("missing or invalid attribute")
	ErrDuplicateID  = errors.New("duplicate tile id")
	ErrIDOutOfRange = errors.New("tile id out of range")
	ErrMissingClass = errors.New("tile has no cls property")
	ErrMissingImage = errors.New("tile has no image")
)

// ParseError reports why a tileset document was rejected. Tile is -1 when the
// problem is on the root element.
type ParseError struct {
	Tileset string
	Tile    int
	Attr    string
	Err     error
}

func (e *ParseError) Error() string {
	name := e.Tileset
	if name == "" {
		name = "<unnamed>"
	}
	msg := fmt.Sprintf("tileset %s", name)
	if e.Tile >= 0 {
		msg += fmt.Sprintf(" tile %d", e.Tile)
	}
	if e.Attr != "" {
		msg += fmt.Sprintf(" %s", e.Attr)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func rootErr(name, attr string, err error) *ParseError {
	return &ParseError{Tileset: name, Tile: -1, Attr: attr, Err: err}
}

func tileErr(name string, id int, attr string, err error) *ParseError {
	return &ParseError{Tileset: name, Tile: id, Attr: attr, Err: err}
}
