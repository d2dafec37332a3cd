// Package projection builds the matrices that carry room-local geometry
// to clip space: the camera view, the perspective projection, and the
// per-portal transforms used to draw a neighbouring room through a
// portal.
//
// Rooms are Z-up. The view and projection work in a Y-up frame looking
// down -Z, so every room-space position passes through AxisInversion on
// its way to the camera.
package projection

import (
	"fmt"
	"image"
	"math"

	"github.com/taigrr/emcee/pkg/math3d"
	"github.com/taigrr/emcee/pkg/world"
)

// AxisInversion maps room coordinates (x, y, z) to view-frame
// coordinates (x, z, -y): room up becomes view up and room forward (+Y)
// becomes -Z.
var AxisInversion = math3d.M3(
	math3d.V3(1, 0, 0),
	math3d.V3(0, 0, -1),
	math3d.V3(0, 1, 0),
)

var axisInversion4 = AxisInversion.Mat4()

// halfTurn spins a far-side placement around the room's up axis so the
// neighbouring room opens away from the viewer instead of toward it.
var halfTurn = math3d.RotateZ(math.Pi)

// Rotation is the camera orientation part of the view matrix. Roll is
// applied last so it tilts the already-aimed view.
func Rotation(rot math3d.Euler) math3d.Mat4 {
	return math3d.RotateZ(rot.Roll).
		Mul(math3d.RotateX(rot.Pitch)).
		Mul(math3d.RotateY(rot.Yaw))
}

// ViewMatrix returns rotation(cam.Rot) × translation(-cam.Pos), with the
// position carried through AxisInversion. It expects view-frame input.
func ViewMatrix(cam world.Camera) math3d.Mat4 {
	eye := AxisInversion.MulVec3(cam.Pos.Negate())
	return Rotation(cam.Rot).Mul(math3d.Translate(eye))
}

// ProjectionMatrix returns the perspective projection for cam drawn into
// viewport. It panics when the viewport is empty in either direction.
func ProjectionMatrix(cam world.Camera, viewport image.Rectangle) math3d.Mat4 {
	if viewport.Dx() < 1 || viewport.Dy() < 1 {
		panic(fmt.Sprintf("projection: viewport %v must be at least one pixel wide and high", viewport))
	}
	aspect := float64(viewport.Dx()) / float64(viewport.Dy())
	return math3d.Perspective(cam.FOV, aspect, cam.Near, cam.Far)
}

// RoomTransform returns proj × view × AxisInversion: the matrix that
// projects room-local positions of the active room.
func RoomTransform(proj, view math3d.Mat4) math3d.Mat4 {
	return proj.Mul(view).Mul(axisInversion4)
}

// PortalOffset returns translation(rp.Pos) × rotation(rp.Rot), the frame of
// a portal placement inside its room.
func PortalOffset(rp world.RoomPortal) math3d.Mat4 {
	return math3d.Translate(rp.Pos).Mul(rp.Rot.Mat4())
}

// PortalLink maps positions of the room behind a portal into the frame
// of the room the portal is seen from. near is the placement in the
// viewing room and far the placement of the same portal in the other
// room. The far room's portal frame is lined up with the near one, turned
// half around so both rooms meet back to back at the portal.
func PortalLink(near, far world.RoomPortal) math3d.Mat4 {
	return PortalOffset(near).Mul(halfTurn).Mul(inverseOffset(far))
}

func inverseOffset(rp world.RoomPortal) math3d.Mat4 {
	return rp.Rot.Conjugate().Mat4().Mul(math3d.Translate(rp.Pos.Negate()))
}

// PortalTransform returns proj × view × AxisInversion × offset for an
// offset built by PortalOffset or PortalLink. Conjugating by
// AxisInversion keeps offset in room coordinates.
func PortalTransform(proj, view, offset math3d.Mat4) math3d.Mat4 {
	return RoomTransform(proj, view).Mul(offset)
}

// ToRoom rotates a view-relative movement (X right, Y up, Z forward) into
// room space. It is world.MoveDirection expressed with AxisInversion: the
// yaw-only heading is applied in the view frame and the result carried
// back through the inversion's transpose.
func ToRoom(yaw float64, dir math3d.Vec3) math3d.Vec3 {
	heading := math3d.RotateY(-yaw)
	viewDir := heading.MulVec3Dir(math3d.V3(dir.X, dir.Y, -dir.Z))
	return AxisInversion.Transpose().MulVec3(viewDir)
}
