// emcee - portal world viewer
//
// Draws a world of box rooms joined by portals, either in the terminal
// with the software rasterizer or in an OpenGL window.
//
// Controls (view and window):
//
//	Right mouse   - Hold to look around and move
//	W/S/A/D       - Move forward/back/left/right
//	Shift/Ctrl    - Move up/down
//	Esc, Ctrl+C   - Quit
package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/emcee/pkg/config"
	"github.com/taigrr/emcee/pkg/render"
)

var version = "dev"

type options struct {
	logFile   string
	logLevel  string
	assetsDir string
	config    string
	world     string

	logOut io.Closer
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "emcee",
		Short: "View portal-linked room worlds",
		Long:  "emcee draws worlds of box rooms joined by portals in the terminal or an OpenGL window.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setupLogging()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.logOut != nil {
				opts.logOut.Close()
			}
		},
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.logFile, "log", "", "write logs to this file instead of stderr")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	f.StringVar(&opts.assetsDir, "assets", "", "directory with shader overrides")
	f.StringVar(&opts.config, "config", "", "config file (default ~/.config/emcee/config.yaml)")
	f.StringVarP(&opts.world, "world", "w", "", "world file (default: the demo world)")

	root.AddCommand(
		newViewCmd(opts),
		newWindowCmd(opts),
		newSnapshotCmd(opts),
		newExportCmd(opts),
		newInitCmd(opts),
	)
	return root
}

func (o *options) setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	var out io.Writer = os.Stderr
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		out, o.logOut = f, f
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	render.SetLogger(logger)
	return nil
}

// silenceStderr drops log output when it would land on the terminal the
// view command draws into.
func (o *options) silenceStderr() {
	if o.logFile != "" {
		return
	}
	logger := slog.New(slog.DiscardHandler)
	slog.SetDefault(logger)
	render.SetLogger(logger)
}

func (o *options) shaders() fs.FS {
	if o.assetsDir == "" {
		return nil
	}
	return os.DirFS(o.assetsDir)
}

func (o *options) loadConfig() (config.Config, error) {
	path := o.config
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}
