package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/taigrr/emcee/pkg/gpu/soft"
	"github.com/taigrr/emcee/pkg/input"
	"github.com/taigrr/emcee/pkg/render"
)

var background = color.RGBA{R: 30, G: 30, B: 40, A: 255}

func newViewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Explore the world in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.silenceStderr()
			return runView(cmd.Context(), opts)
		},
	}
}

func runView(ctx context.Context, opts *options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := opts.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer s.close()

	dev := soft.NewDevice()
	wr, err := render.New(s.store, dev, opts.shaders())
	if err != nil {
		return err
	}
	defer wr.Close()

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// any-event mouse tracking in SGR mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h")
	fmt.Fprint(os.Stdout, "\x1b[?1006h")
	defer func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	// two framebuffer rows per terminal cell
	fb := soft.NewFramebuffer(width, height*2)

	events := make(chan uv.Event, 64)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.RefreshRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				fb.Resize(width, height*2)
			case uv.KeyPressEvent:
				if ev.MatchString("escape", "ctrl+c") {
					return nil
				}
				s.handle(ev)
			default:
				s.handle(ev)
			}
		case <-ticker.C:
			s.handle(input.Tick{})
			s.betweenFrames()

			fb.Clear(background)
			dev.ResetStats()
			wr.DrawWorld(s.camera, fb.Bounds(), fb)
			fb.Draw(term, term.Bounds())
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}
