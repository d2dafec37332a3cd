package world

import (
	"math"

	"github.com/taigrr/emcee/pkg/math3d"
)

// Demo builds the editor's starter world: a 128³ room and a 64³ room
// joined by a 32×32 portal centred on the y=0 wall of each, with the
// default camera placed in the larger room, turned to face the portal.
func Demo() (*World, CameraID) {
	w, camID := NewEmpty()

	big := w.AddRoom(math3d.V3(128, 128, 128))
	small := w.AddRoom(math3d.V3(64, 64, 64))

	// Both placements are infallible: the rooms were just added.
	_, _ = w.AddPortal(math3d.V2(32, 32),
		big, RoomPortal{Pos: math3d.V3(64, 0, 32), Rot: math3d.QuatIdentity()},
		small, RoomPortal{Pos: math3d.V3(32, 0, 32), Rot: math3d.QuatIdentity()},
	)

	_ = w.UpdateCamera(camID, func(c *Camera) {
		c.InRoom = big
		c.Rot.Yaw = math.Pi
	})
	return w, camID
}
