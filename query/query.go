// Package query filters tile descriptors with Tengo expressions such as
//
//	cls == "bat" || (width >= 32 && text.has_prefix(source, "../images/objects/enemies"))
//
// Expressions see tileset, id, cls, source, width, height and props (a map of
// every tile property), and may use the "text" module directly.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/tilesets/tileset"
)

var ErrNotBool = errors.New("expression did not evaluate to a bool")

const resultVar = "__match"

var inputs = []string{"tileset", "id", "cls", "source", "width", "height", "props"}

type Filter struct {
	expr     string
	compiled *tengo.Compiled
}

type Match struct {
	Tileset string
	Tile    tileset.Tile
}

func Compile(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("query: empty expression")
	}

	src := "text := import(\"text\")\n" + resultVar + " := (" + expr + ")\n"
	script := tengo.NewScript([]byte(src))
	for _, name := range inputs {
		var zero any
		switch name {
		case "id", "width", "height":
			zero = 0
		case "props":
			zero = map[string]any{}
		default:
			zero = ""
		}
		if err := script.Add(name, zero); err != nil {
			return nil, fmt.Errorf("query: declare %s: %w", name, err)
		}
	}
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("query: compile %q: %w", expr, err)
	}
	return &Filter{expr: expr, compiled: compiled}, nil
}

func (f *Filter) String() string { return f.expr }

// Match evaluates the filter for one tile. It is safe for concurrent use.
func (f *Filter) Match(ctx context.Context, setName string, t tileset.Tile) (bool, error) {
	c := f.compiled.Clone()

	props := make(map[string]any, len(t.Properties))
	for _, p := range t.Properties {
		props[p.Name] = p.Value
	}
	values := map[string]any{
		"tileset": setName,
		"id":      t.ID,
		"cls":     t.Class,
		"source":  t.Image.Source,
		"width":   t.Image.Width,
		"height":  t.Image.Height,
		"props":   props,
	}
	for _, name := range inputs {
		if err := c.Set(name, values[name]); err != nil {
			return false, fmt.Errorf("query: set %s: %w", name, err)
		}
	}

	if err := c.RunContext(ctx); err != nil {
		return false, fmt.Errorf("query: run %q: %w", f.expr, err)
	}
	v := c.Get(resultVar)
	if v.ValueType() != "bool" {
		return false, fmt.Errorf("query: %q gave %s: %w", f.expr, v.ValueType(), ErrNotBool)
	}
	return v.Bool(), nil
}

// Select returns the matching tiles of sets in the order given, tiles by id.
func Select(ctx context.Context, f *Filter, sets []*tileset.Tileset) ([]Match, error) {
	var out []Match
	for _, ts := range sets {
		for _, t := range ts.Tiles() {
			ok, err := f.Match(ctx, ts.Name(), t)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, Match{Tileset: ts.Name(), Tile: t})
			}
		}
	}
	return out, nil
}
