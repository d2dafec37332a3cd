// Package input turns mouse and keyboard events into camera actions and
// applies them to a world store.
package input

import (
	"fmt"

	"github.com/taigrr/emcee/pkg/math3d"
	"github.com/taigrr/emcee/pkg/world"
)

// Kind tells camera actions apart.
type Kind int

const (
	// CameraMove translates the camera by Action.Move, in view terms:
	// X right, Y up, Z forward.
	CameraMove Kind = iota + 1
	// CameraRotate adds Action.Rotate to the camera orientation.
	CameraRotate
)

func (k Kind) String() string {
	switch k {
	case CameraMove:
		return "camera-move"
	case CameraRotate:
		return "camera-rotate"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Action is a camera change requested by input.
type Action struct {
	Kind   Kind
	Camera world.CameraID
	Move   math3d.Vec3
	Rotate math3d.Euler
}

// Apply performs a on its camera in store.
func Apply(store *world.Store, a Action) error {
	return store.Update(func(w *world.World) error {
		return w.UpdateCamera(a.Camera, func(c *world.Camera) {
			switch a.Kind {
			case CameraMove:
				c.Move(a.Move)
			case CameraRotate:
				c.Rotate(a.Rotate)
			}
		})
	})
}
