package main

import (
	"context"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/taigrr/emcee/pkg/gpu"
	"github.com/taigrr/emcee/pkg/gpu/glgpu"
	"github.com/taigrr/emcee/pkg/input"
	"github.com/taigrr/emcee/pkg/render"
)

func newWindowCmd(opts *options) *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Explore the world in an OpenGL window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWindow(cmd.Context(), opts, width, height)
		},
	}
	cmd.Flags().IntVar(&width, "width", 1280, "window width")
	cmd.Flags().IntVar(&height, "height", 720, "window height")
	return cmd
}

// runWindow must run on the main thread; glgpu locks it at init.
func runWindow(ctx context.Context, opts *options, width, height int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := opts.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.close()

	win, err := glgpu.OpenWindow(width, height, "emcee")
	if err != nil {
		return err
	}
	defer win.Close()

	dev := glgpu.NewDevice()
	wr, err := render.New(s.store, dev, opts.shaders())
	if err != nil {
		return err
	}
	defer wr.Close()

	tick := time.NewTicker(s.cfg.RefreshRate)
	defer tick.Stop()
	for !win.ShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		for _, ev := range win.Poll() {
			if k, ok := ev.(uv.KeyPressEvent); ok && k.MatchString("escape") {
				win.SetShouldClose()
			}
			s.handle(ev)
		}
		select {
		case <-tick.C:
			s.handle(input.Tick{})
		default:
		}
		s.betweenFrames()

		bounds := win.Bounds()
		dev.Clear(win, bounds, gpu.ClearColor|gpu.ClearDepth|gpu.ClearStencil, background)
		if !bounds.Empty() {
			wr.DrawWorld(s.camera, bounds, win)
		}
		win.Swap()
	}
	return nil
}
