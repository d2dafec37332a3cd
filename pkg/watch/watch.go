// Package watch reloads a world file when it changes on disk. Reloaded
// worlds are handed to the frame loop, which swaps them in between
// frames.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/taigrr/emcee/pkg/world"
)

// DefaultSettle is how long the file must stay quiet before it is read.
const DefaultSettle = 100 * time.Millisecond

// Reloader watches one world file.
type Reloader struct {
	path    string
	settle  time.Duration
	log     *slog.Logger
	watcher *fsnotify.Watcher

	worlds chan *world.World
	errs   chan error
}

// New watches path. The parent directory is watched so that editors
// replacing the file by rename are seen. A nil log discards messages.
func New(path string, log *slog.Logger) (*Reloader, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Reloader{
		path:    abs,
		settle:  DefaultSettle,
		log:     log,
		watcher: w,
		worlds:  make(chan *world.World, 1),
		errs:    make(chan error, 1),
	}, nil
}

// SetSettle changes the quiet period. Call before Run.
func (r *Reloader) SetSettle(d time.Duration) { r.settle = d }

// Worlds delivers each successfully reloaded world. Only the newest
// pending world is kept.
func (r *Reloader) Worlds() <-chan *world.World { return r.worlds }

// Errors delivers reload failures. Only the newest pending error is kept.
func (r *Reloader) Errors() <-chan error { return r.errs }

// Run watches until ctx is done or the watcher is closed.
func (r *Reloader) Run(ctx context.Context) {
	var settle *time.Timer
	var fire <-chan time.Time
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			r.log.Debug("world file changed", "path", r.path, "op", event.Op.String())
			if settle == nil {
				settle = time.NewTimer(r.settle)
			} else {
				settle.Reset(r.settle)
			}
			fire = settle.C
		case <-fire:
			fire = nil
			r.reload()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.log.Error("world watcher error", "err", err)
			push(r.errs, err)
		}
	}
}

func (r *Reloader) reload() {
	w, err := world.LoadYAML(r.path)
	if err != nil {
		r.log.Warn("world reload failed, keeping the current world", "path", r.path, "err", err)
		push(r.errs, err)
		return
	}
	rooms, portals, _ := w.Len()
	r.log.Info("world reloaded", "path", r.path, "rooms", rooms, "portals", portals)
	push(r.worlds, w)
}

// Apply swaps a pending reloaded world into store, if there is one. The
// frame loop calls it between DrawWorld calls.
func (r *Reloader) Apply(store *world.Store) bool {
	select {
	case w := <-r.worlds:
		store.Replace(w)
		return true
	default:
		return false
	}
}

// Close stops watching.
func (r *Reloader) Close() error {
	return r.watcher.Close()
}

// push replaces whatever is pending in a one-slot channel with v.
func push[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
