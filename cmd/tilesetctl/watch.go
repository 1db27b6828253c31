package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milk9111/tilesets/registry"
)

var errWatchNeedsDirs = errors.New("watch needs --dir or tileset_dirs")

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Load the tileset directories and reload documents as they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(a.cfg.TilesetDirs) == 0 {
				return errWatchNeedsDirs
			}
			if err := a.load(cmd); err != nil {
				return err
			}

			w, err := registry.NewWatcher(a.reg, a.cfg.TilesetDirs...)
			if err != nil {
				return err
			}
			defer w.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "watching %d tilesets in %v\n", a.reg.Len(), a.cfg.TilesetDirs)
			for {
				select {
				case c, ok := <-w.Changes:
					if !ok {
						return nil
					}
					fmt.Fprintf(out, "%s %s (%s)\n", c.Op, c.Tileset, c.Path)
				case err, ok := <-w.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(out, "error %v\n", err)
				case <-cmd.Context().Done():
					return nil
				}
			}
		},
	}
}
