package world

import (
	"math"

	"github.com/taigrr/emcee/pkg/math3d"
)

// Camera is a first-person viewpoint. Pos is expressed in the local frame
// of InRoom; a zero InRoom means the camera has not been placed yet.
type Camera struct {
	ID CameraID

	FOV  float64 // vertical field of view in radians, in (0, π)
	Near float64
	Far  float64

	Pos    math3d.Vec3
	Rot    math3d.Euler
	InRoom RoomID
}

// NewCamera creates an unplaced camera with the editor defaults.
func NewCamera() Camera {
	return Camera{
		ID:   NewCameraID(),
		FOV:  math3d.Radians(90),
		Near: 0.1,
		Far:  2048,
		Pos:  math3d.V3(96, 96, 96),
	}
}

// Room returns the room the camera is in, if it has been placed.
func (c Camera) Room() (RoomID, bool) {
	return c.InRoom, !c.InRoom.IsZero()
}

// Rotate adds delta to the orientation. Pitch is pinned to [-90°, 90°];
// yaw and roll wrap into [0°, 360°).
func (c *Camera) Rotate(delta math3d.Euler) {
	r := c.Rot.Add(delta)
	r.Pitch = math3d.Clamp(r.Pitch, -math.Pi/2, math.Pi/2)
	r.Yaw = math3d.WrapAngle(r.Yaw)
	r.Roll = math3d.WrapAngle(r.Roll)
	c.Rot = r
}

// Move translates the camera by dir, given in view terms: X is right,
// Y is up and Z is forward. See MoveDirection.
func (c *Camera) Move(dir math3d.Vec3) {
	c.Pos = c.Pos.Add(MoveDirection(c.Rot.Yaw, dir))
}

// MoveDirection rotates a view-relative movement into room space using the
// yaw alone, so looking up or down never changes where forward goes.
// Forward and right stay in the horizontal X/Y plane; up maps to room Z.
func MoveDirection(yaw float64, dir math3d.Vec3) math3d.Vec3 {
	s, c := math.Sincos(yaw)
	return math3d.V3(
		s*dir.Z+c*dir.X,
		c*dir.Z-s*dir.X,
		dir.Y,
	)
}
