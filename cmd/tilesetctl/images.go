package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milk9111/tilesets/sprites"
)

var errImageProblems = errors.New("image check failed")

func newCheckImagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-images",
		Short: "Check that tile images exist and match their declared size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			fsys, resolve := a.imageSource()
			out := cmd.OutOrStdout()
			total := 0
			for _, ts := range a.reg.Snapshot() {
				problems := sprites.Verify(fsys, ts, resolve)
				for _, p := range problems {
					fmt.Fprintln(out, p.Error())
				}
				total += len(problems)
			}
			if total > 0 {
				return fmt.Errorf("%d problems: %w", total, errImageProblems)
			}
			fmt.Fprintln(out, "all images ok")
			return nil
		},
	}
}
