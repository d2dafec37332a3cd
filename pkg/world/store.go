package world

import (
	"fmt"
	"sync"

	"github.com/taigrr/emcee/pkg/math3d"
)

// Store guards a World for hosts that touch it from more than one
// goroutine. Readers (the renderer) take View, writers take Update; a
// pose written through SetCameraPose is visible to the next View call.
type Store struct {
	mu sync.RWMutex
	w  *World
}

// NewStore wraps w. The store takes ownership of w.
func NewStore(w *World) *Store {
	if w == nil {
		w = New()
	}
	return &Store{w: w}
}

// View runs fn with shared access. fn must not keep w after returning.
func (s *Store) View(fn func(w *World)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.w)
}

// Update runs fn with exclusive access.
func (s *Store) Update(fn func(w *World) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.w)
}

// Replace swaps in a whole new world, e.g. after reloading it from disk.
func (s *Store) Replace(w *World) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current world.
func (s *Store) Snapshot() *World {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Clone()
}

// SetCameraPose overwrites a camera's position, orientation and room. A
// zero room leaves the camera unplaced.
func (s *Store) SetCameraPose(id CameraID, pos math3d.Vec3, rot math3d.Euler, room RoomID) error {
	return s.Update(func(w *World) error {
		if !room.IsZero() {
			if _, ok := w.rooms[room]; !ok {
				return fmt.Errorf("set camera pose: %w: %s", ErrRoomNotFound, room)
			}
		}
		return w.UpdateCamera(id, func(c *Camera) {
			c.Pos = pos
			c.Rot = rot
			c.InRoom = room
		})
	})
}
