package world

import "github.com/taigrr/emcee/pkg/math3d"

// Room is an axis-aligned box spanning (0,0,0) to Dims in its own Z-up
// frame. X runs along the width, Y along the depth and Z along the height.
type Room struct {
	ID      RoomID
	Dims    math3d.Vec3
	Portals []RoomPortal
}

// RoomPortal places a shared Portal inside one room's local frame.
type RoomPortal struct {
	Portal PortalID
	Pos    math3d.Vec3
	Rot    math3d.Quat
}

// Placement returns where the given portal sits in this room.
func (r Room) Placement(id PortalID) (RoomPortal, bool) {
	for _, rp := range r.Portals {
		if rp.Portal == id {
			return rp, true
		}
	}
	return RoomPortal{}, false
}
