package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/milk9111/tilesets/query"
	"github.com/milk9111/tilesets/registry"
)

func newLookupCmd(a *app) *cobra.Command {
	format := "yaml"
	cmd := &cobra.Command{
		Use:   "lookup <tileset> <id>",
		Short: "Print the descriptor of one tile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("tile id %q: %w", args[1], err)
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			tile, err := a.reg.Lookup(args[0], id)
			if err != nil {
				return err
			}
			return writeAs(cmd.OutOrStdout(), format, newTileView(args[0], tile))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", format, "output format: yaml or json")
	return cmd
}

func newFindCmd(a *app) *cobra.Command {
	format := "yaml"
	cmd := &cobra.Command{
		Use:   "find <expression>",
		Short: "List tiles matching a Tengo expression",
		Long: "List tiles matching a Tengo expression. Variables: tileset, id, cls,\n" +
			"source, width, height, props. Example:\n\n" +
			"  tilesetctl find 'cls == \"bat\" || text.has_suffix(source, \"life_orb-0.png\")'",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := query.Compile(args[0])
			if err != nil {
				return err
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			matches, err := query.Select(cmd.Context(), f, a.reg.Snapshot())
			if err != nil {
				return err
			}
			views := make([]tileView, 0, len(matches))
			for _, m := range matches {
				views = append(views, newTileView(m.Tileset, m.Tile))
			}
			return writeAs(cmd.OutOrStdout(), format, views)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", format, "output format: yaml or json")
	return cmd
}

func newClassesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classes [cls]",
		Short: "List cls values per tileset, or where one cls is used",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				refs := a.reg.FindClass(args[0])
				if len(refs) == 0 {
					return fmt.Errorf("no tile has cls %q: %w", args[0], registry.ErrNotFound)
				}
				for _, r := range refs {
					fmt.Fprintf(out, "%s\t%d\n", r.Tileset, r.ID)
				}
				return nil
			}
			for _, ts := range a.reg.Snapshot() {
				for _, cls := range ts.Classes() {
					fmt.Fprintf(out, "%s\t%s\n", ts.Name(), cls)
				}
			}
			return nil
		},
	}
}

func newGIDCmd(a *app) *cobra.Command {
	format := "yaml"
	cmd := &cobra.Command{
		Use:   "gid <map.tmx> <gid>",
		Short: "Resolve a map's global tile id to its tileset descriptor",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gid, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("gid %q: %w", args[1], err)
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open map: %w", err)
			}
			defer f.Close()
			table, err := registry.ParseMapTilesets(f)
			if err != nil {
				return err
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			ref, ok := table.Resolve(uint32(gid))
			if !ok {
				return fmt.Errorf("gid %d is not covered by %s: %w", gid, args[0], registry.ErrNotFound)
			}
			tile, err := table.Lookup(a.reg, uint32(gid))
			if err != nil {
				return err
			}
			return writeAs(cmd.OutOrStdout(), format, newTileView(ref.Tileset, tile))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", format, "output format: yaml or json")
	return cmd
}
