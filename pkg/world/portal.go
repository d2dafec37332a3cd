package world

import "github.com/taigrr/emcee/pkg/math3d"

// Portal is a rectangular window linking exactly two distinct rooms. The
// links are unordered.
type Portal struct {
	ID    PortalID
	Dims  math3d.Vec2 // width, height
	Rooms [2]RoomID
}

// OtherRoom returns the room on the far side of the portal as seen from
// room. It reports false when room is not one of the two linked rooms.
func (p Portal) OtherRoom(room RoomID) (RoomID, bool) {
	switch room {
	case p.Rooms[0]:
		return p.Rooms[1], true
	case p.Rooms[1]:
		return p.Rooms[0], true
	default:
		return RoomID{}, false
	}
}

// Links reports whether the portal connects room.
func (p Portal) Links(room RoomID) bool {
	_, ok := p.OtherRoom(room)
	return ok
}
