// Package sprites resolves tile image references and checks them against the
// image files they point at.
package sprites

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/milk9111/tilesets/tileset"
)

var (
	ErrImageMissing = errors.New("image file missing")
	ErrUndecodable  = errors.New("image cannot be decoded")
	ErrSizeMismatch = errors.New("image size does not match descriptor")
)

// Resolver maps a tile to the path of its image inside an fs.FS.
type Resolver func(ts *tileset.Tileset, t tileset.Tile) string

// OriginResolver resolves sources against the tileset document's directory.
func OriginResolver(ts *tileset.Tileset, t tileset.Tile) string {
	p, _ := ts.ImagePath(t.ID)
	return p
}

// RootResolver resolves sources against root instead of the document's
// directory.
func RootResolver(root string) Resolver {
	root = filepath.ToSlash(root)
	return func(_ *tileset.Tileset, t tileset.Tile) string {
		return path.Join(root, t.Image.Source)
	}
}

// DiskFS opens OS paths as given, relative or absolute. It exists because
// tileset origins loaded from disk are OS paths rather than fs.FS names.
type DiskFS struct{}

func (DiskFS) Open(name string) (fs.File, error) {
	return os.Open(filepath.FromSlash(name))
}

type Problem struct {
	Tileset string
	ID      int
	Path    string
	Want    image.Point
	Got     image.Point
	Err     error
}

func (p Problem) Error() string {
	if errors.Is(p.Err, ErrSizeMismatch) {
		return fmt.Sprintf("%s tile %d: %s is %dx%d, descriptor says %dx%d",
			p.Tileset, p.ID, p.Path, p.Got.X, p.Got.Y, p.Want.X, p.Want.Y)
	}
	return fmt.Sprintf("%s tile %d: %s: %v", p.Tileset, p.ID, p.Path, p.Err)
}

func (p Problem) Unwrap() error { return p.Err }

// Verify checks that every tile's image exists and has the declared size.
// Images shared by several tiles are read once. A nil resolve means
// OriginResolver.
func Verify(fsys fs.FS, ts *tileset.Tileset, resolve Resolver) []Problem {
	if resolve == nil {
		resolve = OriginResolver
	}

	type result struct {
		size image.Point
		err  error
	}
	seen := make(map[string]result)

	var problems []Problem
	for _, t := range ts.Tiles() {
		p := resolve(ts, t)
		res, ok := seen[p]
		if !ok {
			res.size, res.err = decodeSize(fsys, p)
			seen[p] = res
		}

		want := image.Pt(t.Image.Width, t.Image.Height)
		switch {
		case res.err != nil:
			problems = append(problems, Problem{Tileset: ts.Name(), ID: t.ID, Path: p, Want: want, Err: res.err})
		case res.size != want:
			problems = append(problems, Problem{Tileset: ts.Name(), ID: t.ID, Path: p, Want: want, Got: res.size, Err: ErrSizeMismatch})
		}
	}
	return problems
}

func decodeSize(fsys fs.FS, p string) (image.Point, error) {
	f, err := fsys.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return image.Point{}, fmt.Errorf("%w: %v", ErrImageMissing, err)
		}
		return image.Point{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}
