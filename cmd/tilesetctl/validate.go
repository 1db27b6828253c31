package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/milk9111/tilesets/tileset"
	"github.com/milk9111/tilesets/tilesets"
)

var errValidation = errors.New("validation failed")

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file.tsx...]",
		Short: "Parse documents and report structural errors",
		Long: "Parse each document and report structural errors and warnings.\n" +
			"Without arguments every document of the configured directories is checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.validateTargets(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failed := 0
			for _, f := range files {
				ts, err := decodeTarget(f)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", f, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s: %s (%d tiles)\n", f, ts.Name(), ts.Len())
				for _, w := range ts.Warnings() {
					fmt.Fprintf(out, "warn %s: %s\n", f, w)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents: %w", failed, len(files), errValidation)
			}
			return nil
		},
	}
}

// Embedded documents are addressed as "embedded:<file>".
const embeddedPrefix = "embedded:"

func (a *app) validateTargets(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(a.cfg.TilesetDirs) == 0 {
		var out []string
		for _, f := range tilesets.Files() {
			out = append(out, embeddedPrefix+f)
		}
		return out, nil
	}
	var out []string
	for _, dir := range a.cfg.TilesetDirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.tsx"))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	if len(out) == 0 {
		return nil, errNoTilesets
	}
	return out, nil
}

func decodeTarget(target string) (*tileset.Tileset, error) {
	if name, ok := strings.CutPrefix(target, embeddedPrefix); ok {
		return tileset.DecodeFS(tilesets.FS, name)
	}
	return tileset.DecodeFile(target)
}
