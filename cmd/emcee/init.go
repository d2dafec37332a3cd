package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/taigrr/emcee/pkg/world"
)

func newInitCmd(_ *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init <world.yaml>",
		Short: "Write the demo world to a file to start editing from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			w, _ := world.Demo()
			if err := world.SaveYAML(path, w); err != nil {
				return fmt.Errorf("write world: %w", err)
			}
			slog.Info("demo world written", "path", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
