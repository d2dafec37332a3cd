package input

import (
	"fmt"
	"unicode"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/emcee/pkg/config"
	"github.com/taigrr/emcee/pkg/math3d"
	"github.com/taigrr/emcee/pkg/world"
)

// Tick is delivered by the host once per refresh period. Held movement
// keys turn into a CameraMove on each Tick.
type Tick struct{}

// Controller maps terminal (or translated window) events to camera
// actions for one camera. While the camera move button is held the
// controller has focus: mouse motion looks around and held keys move.
type Controller struct {
	camera world.CameraID

	button    uv.MouseButton
	hasButton bool
	radPerPx  float64
	speed     float64
	bindings  map[string]math3d.Vec3

	focused  bool
	last     [2]int
	haveLast bool
	held     map[string]bool
	releases bool // the terminal reports key releases

	mover *Mover
}

// NewController builds a controller from cfg for camera. cfg must be
// normalized.
func NewController(cfg config.Config, camera world.CameraID) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	c := &Controller{
		camera:   camera,
		radPerPx: math3d.Radians(cfg.MouseSensitivity),
		speed:    cfg.MoveSpeed,
		bindings: map[string]math3d.Vec3{},
		held:     map[string]bool{},
	}
	switch cfg.CameraMoveButton {
	case config.ButtonLeft:
		c.button, c.hasButton = uv.MouseLeft, true
	case config.ButtonMiddle:
		c.button, c.hasButton = uv.MouseMiddle, true
	case config.ButtonRight:
		c.button, c.hasButton = uv.MouseRight, true
	}
	kb := cfg.Keybindings
	for name, dir := range map[string]math3d.Vec3{
		kb.MoveForward:  math3d.V3(0, 0, 1),
		kb.MoveBackward: math3d.V3(0, 0, -1),
		kb.MoveLeft:     math3d.V3(-1, 0, 0),
		kb.MoveRight:    math3d.V3(1, 0, 0),
		kb.MoveUp:       math3d.V3(0, 1, 0),
		kb.MoveDown:     math3d.V3(0, -1, 0),
	} {
		if name != "" {
			c.bindings[name] = dir
		}
	}
	if cfg.Smoothing {
		c.mover = NewMover(cfg.RefreshRate)
	}
	return c, nil
}

// Focused reports whether the camera move button is held.
func (c *Controller) Focused() bool { return c.focused }

// HandleInput consumes one event and returns the action it causes, if
// any.
func (c *Controller) HandleInput(ev uv.Event) (Action, bool) {
	switch ev := ev.(type) {
	case uv.MouseClickEvent:
		if c.hasButton && ev.Button == c.button {
			c.focused = true
			c.last, c.haveLast = [2]int{ev.X, ev.Y}, true
		}
	case uv.MouseReleaseEvent:
		if c.hasButton && ev.Button == c.button {
			c.focused = false
			c.haveLast = false
			clear(c.held)
		}
	case uv.MouseMotionEvent:
		if !c.focused {
			return Action{}, false
		}
		if !c.haveLast {
			c.last, c.haveLast = [2]int{ev.X, ev.Y}, true
			return Action{}, false
		}
		dx, dy := ev.X-c.last[0], ev.Y-c.last[1]
		c.last = [2]int{ev.X, ev.Y}
		if dx == 0 && dy == 0 {
			return Action{}, false
		}
		return Action{
			Kind:   CameraRotate,
			Camera: c.camera,
			Rotate: math3d.Euler{Yaw: c.radPerPx * float64(dx), Pitch: c.radPerPx * float64(dy)},
		}, true
	case uv.KeyPressEvent:
		if !c.focused {
			return Action{}, false
		}
		if name := keyName(ev.Code); name != "" {
			c.held[name] = true
		}
		if ev.Mod&uv.ModShift != 0 {
			c.held["shift"] = true
		}
		if ev.Mod&uv.ModCtrl != 0 {
			c.held["ctrl"] = true
		}
	case uv.KeyReleaseEvent:
		c.releases = true
		if name := keyName(ev.Code); name != "" {
			delete(c.held, name)
		}
	case Tick:
		return c.tick()
	}
	return Action{}, false
}

func (c *Controller) tick() (Action, bool) {
	var dir math3d.Vec3
	if c.focused {
		for name, d := range c.bindings {
			if c.held[name] {
				dir = dir.Add(d)
			}
		}
	}
	if !c.releases {
		// without release events a press only lasts until the next tick
		clear(c.held)
	}
	dir = dir.Scale(c.speed)

	if c.mover != nil {
		if dir == (math3d.Vec3{}) && c.mover.Resting() {
			c.mover.Stop()
			return Action{}, false
		}
		dir = c.mover.Step(dir)
	}
	if dir == (math3d.Vec3{}) {
		return Action{}, false
	}
	return Action{Kind: CameraMove, Camera: c.camera, Move: dir}, true
}

// keyName gives the binding name of a key code: the lower-case character
// for printable keys, or a fixed name for modifiers, arrows and space.
func keyName(code rune) string {
	switch code {
	case uv.KeyLeftShift, uv.KeyRightShift:
		return "shift"
	case uv.KeyLeftCtrl, uv.KeyRightCtrl:
		return "ctrl"
	case uv.KeyLeftAlt, uv.KeyRightAlt:
		return "alt"
	case uv.KeyUp:
		return "up"
	case uv.KeyDown:
		return "down"
	case uv.KeyLeft:
		return "left"
	case uv.KeyRight:
		return "right"
	case ' ':
		return "space"
	}
	if unicode.IsPrint(code) {
		return string(unicode.ToLower(code))
	}
	return ""
}
