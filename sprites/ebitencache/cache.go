// Package ebitencache turns tile images into *ebiten.Image values. It lives
// apart from sprites so headless tools can verify images without linking a
// graphics driver.
package ebitencache

import (
	"fmt"
	"image"
	"io/fs"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/tilesets/sprites"
	"github.com/milk9111/tilesets/tileset"
)

type entry struct {
	img    *ebiten.Image
	owners map[string]struct{} // tileset names holding img
}

// Cache keys images by resolved path so tiles that share art share one image,
// across tilesets too. An image is deallocated once no tileset holds it.
type Cache struct {
	mu      sync.Mutex
	fsys    fs.FS
	resolve sprites.Resolver
	images  map[string]*entry

	upload  func(image.Image) *ebiten.Image
	release func(*ebiten.Image)
}

func New(fsys fs.FS, resolve sprites.Resolver) *Cache {
	if resolve == nil {
		resolve = sprites.OriginResolver
	}
	return &Cache{
		fsys:    fsys,
		resolve: resolve,
		images:  map[string]*entry{},
		upload:  ebiten.NewImageFromImage,
		release: (*ebiten.Image).Deallocate,
	}
}

// Image returns the image for tile id of ts, decoding it on first use.
func (c *Cache) Image(ts *tileset.Tileset, id int) (*ebiten.Image, error) {
	t, ok := ts.Tile(id)
	if !ok {
		return nil, fmt.Errorf("ebitencache: %s has no tile %d", ts.Name(), id)
	}
	key := c.resolve(ts, t)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.images[key]; e != nil {
		e.owners[ts.Name()] = struct{}{}
		return e.img, nil
	}

	img, err := c.decode(key)
	if err != nil {
		return nil, fmt.Errorf("ebitencache: %s tile %d: %w", ts.Name(), id, err)
	}
	c.images[key] = &entry{img: img, owners: map[string]struct{}{ts.Name(): {}}}
	return img, nil
}

func (c *Cache) decode(p string) (*ebiten.Image, error) {
	f, err := c.fsys.Open(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sprites.ErrImageMissing, err)
	}
	defer f.Close()

	im, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sprites.ErrUndecodable, err)
	}
	return c.upload(im), nil
}

// Len reports how many distinct images are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// Forget releases ts's hold on its images, e.g. after a reload or unload.
// Images another tileset still holds stay allocated.
func (c *Cache) Forget(ts *tileset.Tileset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range ts.Tiles() {
		key := c.resolve(ts, t)
		e := c.images[key]
		if e == nil {
			continue
		}
		delete(e.owners, ts.Name())
		if len(e.owners) == 0 {
			c.release(e.img)
			delete(c.images, key)
		}
	}
}
