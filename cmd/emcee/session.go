package main

import (
	"context"
	"fmt"
	"log/slog"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/emcee/pkg/config"
	"github.com/taigrr/emcee/pkg/input"
	"github.com/taigrr/emcee/pkg/watch"
	"github.com/taigrr/emcee/pkg/world"
)

// session is the state shared by the interactive front ends: the world,
// the camera being driven and the file watcher feeding reloads.
type session struct {
	cfg    config.Config
	store  *world.Store
	camera world.CameraID
	ctrl   *input.Controller
	reload *watch.Reloader
}

// loadWorld reads --world, or builds the demo world when it is unset.
func (o *options) loadWorld() (*world.World, world.CameraID, error) {
	if o.world == "" {
		w, cam := world.Demo()
		return w, cam, nil
	}
	w, err := world.LoadYAML(o.world)
	if err != nil {
		return nil, world.CameraID{}, fmt.Errorf("load world: %w", err)
	}
	return w, pickCamera(w), nil
}

// pickCamera returns the first camera of w, adding a default one to worlds
// without any.
func pickCamera(w *world.World) world.CameraID {
	if ids := w.CameraIDs(); len(ids) > 0 {
		return ids[0]
	}
	c := world.NewCamera()
	w.AddCamera(c)
	return c.ID
}

func (o *options) openSession(ctx context.Context, watchFile bool) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	w, cam, err := o.loadWorld()
	if err != nil {
		return nil, err
	}
	ctrl, err := input.NewController(cfg, cam)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, store: world.NewStore(w), camera: cam, ctrl: ctrl}
	if watchFile && o.world != "" {
		s.reload, err = watch.New(o.world, slog.Default())
		if err != nil {
			return nil, err
		}
		go s.reload.Run(ctx)
	}
	return s, nil
}

func (s *session) close() {
	if s.reload != nil {
		s.reload.Close()
	}
}

// handle feeds ev to the controller and applies the resulting action.
func (s *session) handle(ev uv.Event) {
	a, ok := s.ctrl.HandleInput(ev)
	if !ok {
		return
	}
	if err := input.Apply(s.store, a); err != nil {
		slog.Debug("camera action dropped", "action", a.Kind, "err", err)
	}
}

// betweenFrames swaps in a reloaded world. When the new world lost the
// driven camera the controller moves to the new world's first camera.
func (s *session) betweenFrames() {
	if s.reload == nil {
		return
	}
	select {
	case err := <-s.reload.Errors():
		slog.Warn("world reload failed, keeping the current world", "err", err)
	default:
	}
	if !s.reload.Apply(s.store) {
		return
	}
	var cam world.CameraID
	_ = s.store.Update(func(w *world.World) error {
		if _, ok := w.Camera(s.camera); ok {
			cam = s.camera
			return nil
		}
		cam = pickCamera(w)
		return nil
	})
	if cam == s.camera {
		return
	}
	ctrl, err := input.NewController(s.cfg, cam)
	if err != nil {
		slog.Error("rebuild input controller", "err", err)
		return
	}
	slog.Info("camera replaced by reload", "camera", cam)
	s.camera, s.ctrl = cam, ctrl
}
