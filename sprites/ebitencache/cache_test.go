package ebitencache

import (
	"bytes"
	"image"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/tilesets/sprites"
	"github.com/milk9111/tilesets/tileset"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func orbSet(t *testing.T, name string, classes ...string) *tileset.Tileset {
	t.Helper()
	tiles := make([]tileset.Tile, 0, len(classes))
	for i, cls := range classes {
		tiles = append(tiles, tileset.Tile{
			ID:    i,
			Class: cls,
			Image: tileset.Image{Source: "../images/life_orb-0.png", Width: 16, Height: 16},
		})
	}
	ts, err := tileset.New(name, 16, 16, len(classes), tiles)
	require.NoError(t, err)
	return ts.WithOrigin("data/tilesets/" + name + ".tsx")
}

// newTestCache swaps GPU upload and release for bookkeeping so the cache
// runs without a graphics driver.
func newTestCache(fsys fstest.MapFS) (*Cache, map[*ebiten.Image]int) {
	released := map[*ebiten.Image]int{}
	c := New(fsys, nil)
	c.upload = func(image.Image) *ebiten.Image { return new(ebiten.Image) }
	c.release = func(img *ebiten.Image) { released[img]++ }
	return c, released
}

func TestSharedImageAcrossTilesets(t *testing.T) {
	fsys := fstest.MapFS{"data/images/life_orb-0.png": {Data: pngOf(t, 16, 16)}}
	powerups := orbSet(t, "powerups", "life_orb", "atomic_compressor")
	pickups := orbSet(t, "pickups", "orb")
	c, released := newTestCache(fsys)

	a, err := c.Image(powerups, 0)
	require.NoError(t, err)
	b, err := c.Image(powerups, 1)
	require.NoError(t, err)
	p, err := c.Image(pickups, 0)
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Same(t, a, p)
	require.Equal(t, 1, c.Len())

	c.Forget(powerups)
	assert.Zero(t, released[a], "image still held by pickups")
	assert.Equal(t, 1, c.Len())

	again, err := c.Image(pickups, 0)
	require.NoError(t, err)
	require.Same(t, a, again)

	c.Forget(pickups)
	assert.Equal(t, 1, released[a])
	assert.Zero(t, c.Len())

	// Forgetting twice never releases twice.
	c.Forget(pickups)
	assert.Equal(t, 1, released[a])
}

func TestForgetThenReload(t *testing.T) {
	fsys := fstest.MapFS{"data/images/life_orb-0.png": {Data: pngOf(t, 16, 16)}}
	powerups := orbSet(t, "powerups", "life_orb")
	c, released := newTestCache(fsys)

	first, err := c.Image(powerups, 0)
	require.NoError(t, err)
	c.Forget(powerups)
	require.Equal(t, 1, released[first])

	second, err := c.Image(powerups, 0)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 1, c.Len())
}

func TestCacheErrors(t *testing.T) {
	fsys := fstest.MapFS{"data/images/life_orb-0.png": {Data: []byte("junk")}}
	ts, err := tileset.New("powerups", 24, 16, 2, []tileset.Tile{
		{ID: 0, Class: "etank", Image: tileset.Image{Source: "../images/etank.png", Width: 24, Height: 8}},
		{ID: 1, Class: "life_orb", Image: tileset.Image{Source: "../images/life_orb-0.png", Width: 16, Height: 16}},
	})
	require.NoError(t, err)
	ts = ts.WithOrigin("data/tilesets/powerups.tsx")
	c, _ := newTestCache(fsys)

	_, err = c.Image(ts, 99)
	require.Error(t, err)

	_, err = c.Image(ts, 0)
	require.ErrorIs(t, err, sprites.ErrImageMissing)

	_, err = c.Image(ts, 1)
	require.ErrorIs(t, err, sprites.ErrUndecodable)
	assert.Zero(t, c.Len())
}
