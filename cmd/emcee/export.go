package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/taigrr/emcee/pkg/export"
	"github.com/taigrr/emcee/pkg/world"
)

func newExportCmd(opts *options) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "export <out.glb>",
		Short: "Write the rooms reachable from the camera room as a binary glTF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, cam, err := opts.loadWorld()
			if err != nil {
				return err
			}
			rootID, err := exportRoot(w, cam, root)
			if err != nil {
				return err
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := export.WriteGLB(f, w, rootID); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			slog.Info("world exported", "path", args[0], "root", rootID)
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "room placed at the origin (default: the camera's room)")
	return cmd
}

// exportRoot resolves the --root flag, falling back to the camera's room
// and then the first room.
func exportRoot(w *world.World, cam world.CameraID, flag string) (world.RoomID, error) {
	if flag != "" {
		var id world.RoomID
		if err := id.UnmarshalText([]byte(flag)); err != nil {
			return world.RoomID{}, fmt.Errorf("--root: %w", err)
		}
		return id, nil
	}
	if c, ok := w.Camera(cam); ok {
		if id, ok := c.Room(); ok {
			return id, nil
		}
	}
	id, ok := w.FirstRoom()
	if !ok {
		return world.RoomID{}, fmt.Errorf("export: world has no rooms")
	}
	return id, nil
}
