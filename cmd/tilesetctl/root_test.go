package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/tilesets/config"
	"github.com/milk9111/tilesets/registry"
	"github.com/milk9111/tilesets/tileset"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvDirs, "")
	t.Setenv(config.EnvLogLevel, "")
	t.Setenv(config.EnvWatch, "")

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

const batsTSX = `<?xml version="1.0" encoding="UTF-8"?>
<tileset name="bats" tilewidth="16" tileheight="16" tilecount="2">
 <tile id="0">
  <properties><property name="cls" value="bat"/></properties>
  <image width="16" height="16" source="../images/bat.png"/>
 </tile>
 <tile id="1">
  <properties><property name="cls" value="bat_king"/></properties>
  <image width="32" height="32" source="../images/bat.png"/>
 </tile>
</tileset>
`

func writeTileset(t *testing.T, root string) string {
	t.Helper()
	dir := filepath.Join(root, "tilesets")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bats.tsx"), []byte(batsTSX), 0o644))
	return dir
}

func TestLookup(t *testing.T) {
	out, err := run(t, "lookup", "doors", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "cls: door_left")
	assert.Contains(t, out, "width: 8")
	assert.Contains(t, out, "height: 64")
	assert.Contains(t, out, "source: ../images/objects/doors/regular_left.png")

	out, err = run(t, "lookup", "powerups", "4", "-o", "json")
	require.NoError(t, err)
	var v tileView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "atomic_compressor", v.Class)
	assert.Equal(t, "powerups", v.Tileset)
	assert.True(t, strings.HasSuffix(v.Source, "life_orb-0.png"))
}

func TestLookupErrors(t *testing.T) {
	_, err := run(t, "lookup", "doors", "6")
	require.ErrorIs(t, err, registry.ErrNotFound)

	_, err = run(t, "lookup", "stones", "0")
	require.ErrorIs(t, err, registry.ErrNotFound)

	_, err = run(t, "lookup", "doors", "two")
	require.Error(t, err)

	_, err = run(t, "lookup", "doors", "1", "-o", "toml")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ok   embedded:doors.tsx: doors (6 tiles)")
	assert.Contains(t, out, "ok   embedded:powerups.tsx: powerups (7 tiles)")

	root := t.TempDir()
	dir := writeTileset(t, root)
	broken := filepath.Join(dir, "broken.tsx")
	require.NoError(t, os.WriteFile(broken, []byte(strings.Replace(batsTSX, `id="1"`, `id="0"`, 1)), 0o644))

	out, err = run(t, "validate", "--dir", dir)
	require.ErrorIs(t, err, errValidation)
	assert.Contains(t, out, "FAIL "+broken)
	assert.Contains(t, out, "duplicate tile id")
	assert.Contains(t, out, "bats (2 tiles)")
}

func TestDumpRoundTrips(t *testing.T) {
	out, err := run(t, "dump", "powerups")
	require.NoError(t, err)

	ts, err := tileset.Decode(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "powerups", ts.Name())
	assert.Equal(t, 7, ts.Len())

	out, err = run(t, "dump", "enemies", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: enemies")
	assert.Contains(t, out, "cls: hedgehog")

	_, err = run(t, "dump", "nothing")
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestFindAndClasses(t *testing.T) {
	out, err := run(t, "find", `text.has_suffix(source, "life_orb-0.png")`, "-o", "json")
	require.NoError(t, err)
	var views []tileView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 3)
	assert.Equal(t, "life_orb", views[0].Class)

	_, err = run(t, "find", `cls ==`)
	require.Error(t, err)

	out, err = run(t, "classes", "bat")
	require.NoError(t, err)
	assert.Equal(t, "enemies\t0\n", out)

	out, err = run(t, "classes")
	require.NoError(t, err)
	assert.Contains(t, out, "doors\tdoor_left\n")

	_, err = run(t, "classes", "dragon")
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestCheckImages(t *testing.T) {
	root := t.TempDir()
	dir := writeTileset(t, root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))
	f, err := os.Create(filepath.Join(root, "images", "bat.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 16, 16))))
	require.NoError(t, f.Close())

	out, err := run(t, "check-images", "--dir", dir)
	require.ErrorIs(t, err, errImageProblems)
	assert.Contains(t, out, "bats tile 1")
	assert.Contains(t, out, "is 16x16, descriptor says 32x32")
	assert.NotContains(t, out, "bats tile 0")
}

func TestWatchNeedsDirs(t *testing.T) {
	_, err := run(t, "watch")
	require.ErrorIs(t, err, errWatchNeedsDirs)
}

func TestMissingDir(t *testing.T) {
	_, err := run(t, "lookup", "--dir", filepath.Join(t.TempDir(), "absent"), "doors", "0")
	require.Error(t, err)
}

func TestGID(t *testing.T) {
	tmx := filepath.Join(t.TempDir(), "room.tmx")
	require.NoError(t, os.WriteFile(tmx, []byte(`<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" width="4" height="4" tilewidth="32" tileheight="32">
 <tileset firstgid="1" source="../tilesets/doors.tsx"/>
 <tileset firstgid="7" source="../tilesets/powerups.tsx"/>
</map>
`), 0o644))

	out, err := run(t, "gid", tmx, "3")
	require.NoError(t, err)
	assert.Contains(t, out, "cls: door_left")

	// horizontally flipped powerups id 4
	out, err = run(t, "gid", tmx, "2147483659", "-o", "json")
	require.NoError(t, err)
	var v tileView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "powerups", v.Tileset)
	assert.Equal(t, "atomic_compressor", v.Class)

	_, err = run(t, "gid", tmx, "0")
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestDirFlagOverridesStaleConfig(t *testing.T) {
	root := t.TempDir()
	dir := writeTileset(t, root)
	cfgFile := filepath.Join(root, "tilesets.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("tileset_dirs: [moved]\nwatch: true\n"), 0o644))

	_, err := run(t, "--config", cfgFile, "lookup", "bats", "0")
	require.ErrorIs(t, err, os.ErrNotExist)

	out, err := run(t, "--config", cfgFile, "--dir", dir, "lookup", "bats", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "cls: bat")
}
