package main

import (
	"github.com/spf13/cobra"

	"github.com/milk9111/tilesets/registry"
)

func newDumpCmd(a *app) *cobra.Command {
	format := "xml"
	cmd := &cobra.Command{
		Use:   "dump <tileset>",
		Short: "Re-encode a loaded tileset as xml, yaml or json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			ts, ok := a.reg.Get(args[0])
			if !ok {
				return &registry.NotFoundError{Tileset: args[0]}
			}
			if format == "xml" {
				return ts.Encode(cmd.OutOrStdout())
			}
			return writeAs(cmd.OutOrStdout(), format, newTilesetView(ts))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", format, "output format: xml, yaml or json")
	return cmd
}
