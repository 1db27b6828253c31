package sprites

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/milk9111/tilesets/tileset"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func bmpOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func powerups(t *testing.T, fsys fstest.MapFS) *tileset.Tileset {
	t.Helper()
	ts, err := tileset.New("powerups", 24, 16, 4, []tileset.Tile{
		{ID: 0, Class: "etank", Image: tileset.Image{Source: "../images/etank.png", Width: 24, Height: 8}},
		{ID: 1, Class: "life_orb", Image: tileset.Image{Source: "../images/life_orb-0.png", Width: 16, Height: 16}},
		{ID: 2, Class: "atomic_compressor", Image: tileset.Image{Source: "../images/life_orb-0.png", Width: 16, Height: 16}},
		{ID: 3, Class: "map_disk", Image: tileset.Image{Source: "../images/map_disk.bmp", Width: 16, Height: 16}},
	})
	require.NoError(t, err)
	return ts.WithOrigin("data/tilesets/powerups.tsx")
}

func TestVerifyClean(t *testing.T) {
	fsys := fstest.MapFS{
		"data/images/etank.png":      {Data: pngOf(t, 24, 8)},
		"data/images/life_orb-0.png": {Data: pngOf(t, 16, 16)},
		"data/images/map_disk.bmp":   {Data: bmpOf(t, 16, 16)},
	}
	assert.Empty(t, Verify(fsys, powerups(t, fsys), nil))
}

func TestVerifyProblems(t *testing.T) {
	fsys := fstest.MapFS{
		"data/images/etank.png":      {Data: pngOf(t, 24, 9)},
		"data/images/life_orb-0.png": {Data: []byte("not an image")},
	}
	problems := Verify(fsys, powerups(t, fsys), nil)
	require.Len(t, problems, 4)

	assert.ErrorIs(t, problems[0], ErrSizeMismatch)
	assert.Equal(t, image.Pt(24, 9), problems[0].Got)
	assert.Equal(t, image.Pt(24, 8), problems[0].Want)
	assert.Contains(t, problems[0].Error(), "is 24x9, descriptor says 24x8")

	// Shared art reports against each tile that uses it.
	assert.ErrorIs(t, problems[1], ErrUndecodable)
	assert.ErrorIs(t, problems[2], ErrUndecodable)
	assert.Equal(t, 2, problems[2].ID)

	assert.ErrorIs(t, problems[3], ErrImageMissing)
	assert.Equal(t, "data/images/map_disk.bmp", problems[3].Path)
}

func TestRootResolver(t *testing.T) {
	fsys := fstest.MapFS{
		"art/images/etank.png":      {Data: pngOf(t, 24, 8)},
		"art/images/life_orb-0.png": {Data: pngOf(t, 16, 16)},
		"art/images/map_disk.bmp":   {Data: bmpOf(t, 16, 16)},
	}
	assert.Empty(t, Verify(fsys, powerups(t, fsys), RootResolver("art/tilesets")))
}

func TestDiskFS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "bat.png"), pngOf(t, 16, 16), 0o644))

	ts, err := tileset.New("enemies", 16, 16, 1, []tileset.Tile{
		{ID: 0, Class: "bat", Image: tileset.Image{Source: "../images/bat.png", Width: 16, Height: 16}},
	})
	require.NoError(t, err)
	ts = ts.WithOrigin(filepath.ToSlash(filepath.Join(dir, "tilesets", "enemies.tsx")))

	assert.Empty(t, Verify(DiskFS{}, ts, nil))
}
