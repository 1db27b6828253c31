// Package config loads tilesetctl settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	EnvLogLevel = "TILESETS_LOG_LEVEL"
	EnvDirs     = "TILESETS_DIRS"
	EnvWatch    = "TILESETS_WATCH"
)

type Config struct {
	// TilesetDirs are scanned for *.tsx documents. Empty means the embedded set.
	TilesetDirs []string `yaml:"tileset_dirs"`
	// ImageRoot overrides the directory image sources are resolved against.
	ImageRoot string `yaml:"image_root"`
	LogLevel  string `yaml:"log_level"`
	Watch     bool   `yaml:"watch"`
}

func Default() Config {
	return Config{LogLevel: "info"}
}

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := os.ReadFile(filename)
	if err != nil {
		return zero, fmt.Errorf("config: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("config: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// Load reads filename over the defaults and applies environment overrides.
// A missing file is not an error when filename is empty. The result is not
// validated, so callers can layer flags on top and call Validate once.
func Load(filename string) (Config, error) {
	cfg := Default()
	if filename != "" {
		fromFile, err := LoadSpec[Config](filename)
		if err != nil {
			return Config{}, err
		}
		merge(&cfg, fromFile)
		base := filepath.Dir(filename)
		for i, d := range cfg.TilesetDirs {
			if !filepath.IsAbs(d) {
				cfg.TilesetDirs[i] = filepath.Join(base, d)
			}
		}
		if cfg.ImageRoot != "" && !filepath.IsAbs(cfg.ImageRoot) {
			cfg.ImageRoot = filepath.Join(base, cfg.ImageRoot)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func merge(dst *Config, src Config) {
	if len(src.TilesetDirs) > 0 {
		dst.TilesetDirs = src.TilesetDirs
	}
	if src.ImageRoot != "" {
		dst.ImageRoot = src.ImageRoot
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	dst.Watch = dst.Watch || src.Watch
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvDirs); v != "" {
		cfg.TilesetDirs = filepath.SplitList(v)
	}
	if v := os.Getenv(EnvWatch); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvWatch, err)
		}
		cfg.Watch = b
	}
	return nil
}

var ErrNotDir = errors.New("not a directory")

// Validate checks that every configured directory exists.
func (c Config) Validate() error {
	for _, d := range c.TilesetDirs {
		info, err := os.Stat(d)
		if err != nil {
			return fmt.Errorf("config: tileset dir %s: %w", d, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("config: tileset dir %s: %w", d, ErrNotDir)
		}
	}
	if c.Watch && len(c.TilesetDirs) == 0 {
		return fmt.Errorf("config: watch needs at least one tileset dir: %w", fs.ErrInvalid)
	}
	return nil
}
