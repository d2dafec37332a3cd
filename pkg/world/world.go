// Package world holds the room/portal graph the portal renderer draws.
//
// Entities live in an arena keyed by opaque IDs. Rooms refer to portals
// and portals refer to rooms only by ID, so the graph has no ownership
// cycles and every cross reference is a lookup that can miss.
package world

import (
	"fmt"
	"math"
	"slices"

	"github.com/taigrr/emcee/pkg/math3d"
)

// World is the aggregate of rooms, portals and cameras. Besides the maps,
// it remembers insertion order so iteration (and the fallback room choice)
// is deterministic.
type World struct {
	rooms   map[RoomID]*Room
	portals map[PortalID]*Portal
	cameras map[CameraID]*Camera

	roomOrder   []RoomID
	portalOrder []PortalID
	cameraOrder []CameraID
}

// New returns a world with no entities.
func New() *World {
	return &World{
		rooms:   make(map[RoomID]*Room),
		portals: make(map[PortalID]*Portal),
		cameras: make(map[CameraID]*Camera),
	}
}

// NewEmpty returns a world holding only a default camera.
func NewEmpty() (*World, CameraID) {
	w := New()
	cam := NewCamera()
	w.AddCamera(cam)
	return w, cam.ID
}

// Room looks a room up by ID.
func (w *World) Room(id RoomID) (Room, bool) {
	r, ok := w.rooms[id]
	if !ok {
		return Room{}, false
	}
	return *r, true
}

// Portal looks a portal up by ID.
func (w *World) Portal(id PortalID) (Portal, bool) {
	p, ok := w.portals[id]
	if !ok {
		return Portal{}, false
	}
	return *p, true
}

// Camera looks a camera up by ID.
func (w *World) Camera(id CameraID) (Camera, bool) {
	c, ok := w.cameras[id]
	if !ok {
		return Camera{}, false
	}
	return *c, true
}

// PortalsOf returns the portal placements of a room in stored order.
func (w *World) PortalsOf(id RoomID) ([]RoomPortal, bool) {
	r, ok := w.rooms[id]
	if !ok {
		return nil, false
	}
	return r.Portals, true
}

// RoomIDs returns every room ID in insertion order.
func (w *World) RoomIDs() []RoomID { return slices.Clone(w.roomOrder) }

// PortalIDs returns every portal ID in insertion order.
func (w *World) PortalIDs() []PortalID { return slices.Clone(w.portalOrder) }

// CameraIDs returns every camera ID in insertion order.
func (w *World) CameraIDs() []CameraID { return slices.Clone(w.cameraOrder) }

// FirstRoom returns the first room added to the world. Renderers fall
// back to it when a camera has not been placed.
func (w *World) FirstRoom() (RoomID, bool) {
	if len(w.roomOrder) == 0 {
		return RoomID{}, false
	}
	return w.roomOrder[0], true
}

// Len returns the number of rooms, portals and cameras.
func (w *World) Len() (rooms, portals, cameras int) {
	return len(w.rooms), len(w.portals), len(w.cameras)
}

// AddRoom creates a room with the given dimensions and no portals.
func (w *World) AddRoom(dims math3d.Vec3) RoomID {
	r := &Room{ID: NewRoomID(), Dims: dims}
	w.insertRoom(r)
	return r.ID
}

func (w *World) insertRoom(r *Room) {
	if _, ok := w.rooms[r.ID]; !ok {
		w.roomOrder = append(w.roomOrder, r.ID)
	}
	w.rooms[r.ID] = r
}

// AddPortal links rooms a and b with a new portal of the given width and
// height, placing it in each room's frame.
func (w *World) AddPortal(dims math3d.Vec2, a RoomID, inA RoomPortal, b RoomID, inB RoomPortal) (PortalID, error) {
	ra, ok := w.rooms[a]
	if !ok {
		return PortalID{}, fmt.Errorf("add portal: %w: %s", ErrRoomNotFound, a)
	}
	rb, ok := w.rooms[b]
	if !ok {
		return PortalID{}, fmt.Errorf("add portal: %w: %s", ErrRoomNotFound, b)
	}
	if a == b {
		return PortalID{}, fmt.Errorf("add portal: %w: portal links room %s to itself", ErrInvalidWorld, a)
	}

	p := &Portal{ID: NewPortalID(), Dims: dims, Rooms: [2]RoomID{a, b}}
	w.insertPortal(p)

	inA.Portal, inB.Portal = p.ID, p.ID
	ra.Portals = append(ra.Portals, inA)
	rb.Portals = append(rb.Portals, inB)
	return p.ID, nil
}

func (w *World) insertPortal(p *Portal) {
	if _, ok := w.portals[p.ID]; !ok {
		w.portalOrder = append(w.portalOrder, p.ID)
	}
	w.portals[p.ID] = p
}

// AddCamera stores c, replacing any camera with the same ID.
func (w *World) AddCamera(c Camera) {
	if _, ok := w.cameras[c.ID]; !ok {
		w.cameraOrder = append(w.cameraOrder, c.ID)
	}
	cc := c
	w.cameras[c.ID] = &cc
}

// UpdateCamera runs fn on the stored camera.
func (w *World) UpdateCamera(id CameraID, fn func(*Camera)) error {
	c, ok := w.cameras[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCameraNotFound, id)
	}
	fn(c)
	return nil
}

// Validate checks the graph invariants: positive dimensions, every
// placement refers to a known portal that links the placing room, every
// portal links two distinct known rooms, and every camera has a pitch in
// [-π/2, π/2], a yaw and roll in [0, 2π) and, once placed, a known room.
func (w *World) Validate() error {
	for _, id := range w.roomOrder {
		r := w.rooms[id]
		if r.Dims.X <= 0 || r.Dims.Y <= 0 || r.Dims.Z <= 0 {
			return fmt.Errorf("%w: room %s has non-positive dims %v", ErrInvalidWorld, id, r.Dims)
		}
		for i, rp := range r.Portals {
			p, ok := w.portals[rp.Portal]
			if !ok {
				return fmt.Errorf("%w: room %s portal %d: %w: %s", ErrInvalidWorld, id, i, ErrPortalNotFound, rp.Portal)
			}
			if !p.Links(id) {
				return fmt.Errorf("%w: room %s places portal %s which does not link it", ErrInvalidWorld, id, rp.Portal)
			}
		}
	}
	for _, id := range w.portalOrder {
		p := w.portals[id]
		if p.Dims.X <= 0 || p.Dims.Y <= 0 {
			return fmt.Errorf("%w: portal %s has non-positive dims %v", ErrInvalidWorld, id, p.Dims)
		}
		if p.Rooms[0] == p.Rooms[1] {
			return fmt.Errorf("%w: portal %s links room %s to itself", ErrInvalidWorld, id, p.Rooms[0])
		}
		for _, rid := range p.Rooms {
			if _, ok := w.rooms[rid]; !ok {
				return fmt.Errorf("%w: portal %s: %w: %s", ErrInvalidWorld, id, ErrRoomNotFound, rid)
			}
		}
	}
	for _, id := range w.cameraOrder {
		c := w.cameras[id]
		if !(c.FOV > 0 && c.FOV < math.Pi) {
			return fmt.Errorf("%w: camera %s fov %v out of (0, π)", ErrInvalidWorld, id, c.FOV)
		}
		if !(c.Near > 0 && c.Near < c.Far) {
			return fmt.Errorf("%w: camera %s clip planes near=%v far=%v", ErrInvalidWorld, id, c.Near, c.Far)
		}
		if !(c.Rot.Pitch >= -math.Pi/2 && c.Rot.Pitch <= math.Pi/2) {
			return fmt.Errorf("%w: camera %s pitch %v out of [-π/2, π/2]", ErrInvalidWorld, id, c.Rot.Pitch)
		}
		if !validTurn(c.Rot.Yaw) || !validTurn(c.Rot.Roll) {
			return fmt.Errorf("%w: camera %s yaw %v or roll %v out of [0, 2π)", ErrInvalidWorld, id, c.Rot.Yaw, c.Rot.Roll)
		}
		if room, ok := c.Room(); ok {
			if _, found := w.rooms[room]; !found {
				return fmt.Errorf("%w: camera %s: %w: %s", ErrInvalidWorld, id, ErrRoomNotFound, room)
			}
		}
	}
	for id := range w.rooms {
		// IDs are typed per kind; this only trips when two kinds were
		// decoded from the same UUID text.
		if _, ok := w.portals[PortalID(id)]; ok {
			return fmt.Errorf("%w: id %s used by a room and a portal", ErrInvalidWorld, id)
		}
		if _, ok := w.cameras[CameraID(id)]; ok {
			return fmt.Errorf("%w: id %s used by a room and a camera", ErrInvalidWorld, id)
		}
	}
	return nil
}

// validTurn reports whether a is a wrapped yaw or roll angle.
func validTurn(a float64) bool {
	return a >= 0 && a < 2*math.Pi
}

// Clone returns a deep copy of w.
func (w *World) Clone() *World {
	c := New()
	for _, id := range w.roomOrder {
		r := *w.rooms[id]
		r.Portals = slices.Clone(r.Portals)
		c.insertRoom(&r)
	}
	for _, id := range w.portalOrder {
		p := *w.portals[id]
		c.insertPortal(&p)
	}
	for _, id := range w.cameraOrder {
		c.AddCamera(*w.cameras[id])
	}
	return c
}
