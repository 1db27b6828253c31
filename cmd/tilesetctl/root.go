package main

import (
	"errors"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/milk9111/tilesets/config"
	"github.com/milk9111/tilesets/logging"
	"github.com/milk9111/tilesets/registry"
	"github.com/milk9111/tilesets/sprites"
	"github.com/milk9111/tilesets/tilesets"
)

type app struct {
	cfgFile  string
	dirs     []string
	logLevel string

	cfg config.Config
	reg *registry.Registry
	log zerolog.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "tilesetctl",
		Short:         "Inspect and validate tileset documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "YAML config file")
	flags.StringSliceVar(&a.dirs, "dir", nil, "directory of *.tsx documents (repeatable; default: embedded tilesets)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newValidateCmd(a),
		newLookupCmd(a),
		newDumpCmd(a),
		newFindCmd(a),
		newClassesCmd(a),
		newGIDCmd(a),
		newCheckImagesCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if len(a.dirs) > 0 {
		cfg.TilesetDirs = a.dirs
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logging.Configure(logging.Config{Level: cfg.LogLevel, Output: cmd.ErrOrStderr(), Console: true})
	a.log = logging.WithComponent("tilesetctl")
	a.reg = registry.New(registry.WithLogger(logging.WithComponent("registry")))
	return nil
}

// load fills the registry from the configured directories, or from the
// embedded documents when none are configured.
func (a *app) load(cmd *cobra.Command) error {
	if len(a.cfg.TilesetDirs) == 0 {
		return tilesets.LoadInto(a.reg)
	}
	for _, dir := range a.cfg.TilesetDirs {
		loaded, err := a.reg.LoadPath(cmd.Context(), dir)
		if err != nil {
			return err
		}
		a.log.Debug().Str("dir", dir).Int("tilesets", len(loaded)).Msg("directory loaded")
	}
	if a.reg.Len() == 0 {
		return errNoTilesets
	}
	return nil
}

var errNoTilesets = errors.New("no tileset documents found")

// imageSource picks where check-images reads image files from.
func (a *app) imageSource() (fs.FS, sprites.Resolver) {
	if a.cfg.ImageRoot != "" {
		return sprites.DiskFS{}, sprites.RootResolver(a.cfg.ImageRoot)
	}
	if len(a.cfg.TilesetDirs) == 0 {
		return tilesets.FS, nil
	}
	return sprites.DiskFS{}, nil
}
