package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taigrr/emcee/pkg/gpu/soft"
	"github.com/taigrr/emcee/pkg/render"
	"github.com/taigrr/emcee/pkg/world"
)

func newSnapshotCmd(opts *options) *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "snapshot <out.png>",
		Short: "Render one frame to a PNG with the software rasterizer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, cam, err := opts.loadWorld()
			if err != nil {
				return err
			}
			fb := soft.NewFramebuffer(width, height)
			if err := snapshot(w, cam, fb, opts); err != nil {
				return err
			}
			if err := fb.SavePNG(args[0]); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
			slog.Info("snapshot written", "path", args[0], "width", width, "height", height)
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 640, "image width")
	cmd.Flags().IntVar(&height, "height", 480, "image height")
	return cmd
}

func snapshot(w *world.World, cam world.CameraID, fb *soft.Framebuffer, opts *options) error {
	if fb.Width <= 0 || fb.Height <= 0 {
		return fmt.Errorf("snapshot size %dx%d", fb.Width, fb.Height)
	}
	dev := soft.NewDevice()
	wr, err := render.New(world.NewStore(w), dev, opts.shaders())
	if err != nil {
		return err
	}
	defer wr.Close()

	fb.Clear(background)
	wr.DrawWorld(cam, fb.Bounds(), fb)
	st := wr.Stats()
	slog.Debug("snapshot drawn",
		"draws", st.Draws,
		"skipped_portals", st.SkippedPortals,
		"triangles", dev.Stats.Triangles,
		"fragments", dev.Stats.FragmentsDrawn)
	return nil
}
