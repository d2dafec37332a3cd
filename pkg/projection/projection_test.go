package projection

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/emcee/pkg/math3d"
	"github.com/taigrr/emcee/pkg/world"
)

const eps = 1e-9

func TestAxisInversion(t *testing.T) {
	assert.True(t, AxisInversion.MulVec3(math3d.V3(1, 2, 3)).Approx(math3d.V3(1, 3, -2), eps))
	// a proper rotation: transpose undoes it
	v := math3d.V3(-4, 0.5, 9)
	assert.True(t, AxisInversion.Transpose().MulVec3(AxisInversion.MulVec3(v)).Approx(v, eps))
}

func eyeSpace(cam world.Camera, roomPos math3d.Vec3) math3d.Vec3 {
	return ViewMatrix(cam).MulVec3(AxisInversion.MulVec3(roomPos))
}

func TestViewMatrixLooksAlongHeading(t *testing.T) {
	tests := []struct {
		name   string
		rot    math3d.Euler
		target math3d.Vec3 // room-space offset from the camera
	}{
		{"yaw 0 looks down +Y", math3d.Euler{}, math3d.V3(0, 5, 0)},
		{"yaw 90° looks down +X", math3d.Euler{Yaw: math.Pi / 2}, math3d.V3(5, 0, 0)},
		{"yaw 180° looks down -Y", math3d.Euler{Yaw: math.Pi}, math3d.V3(0, -5, 0)},
		{"pitch 90° looks at the floor", math3d.Euler{Pitch: math.Pi / 2}, math3d.V3(0, 0, -5)},
		{"roll keeps the heading", math3d.Euler{Roll: 1}, math3d.V3(0, 5, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cam := world.NewCamera()
			cam.Rot = tc.rot
			got := eyeSpace(cam, cam.Pos.Add(tc.target))
			assert.True(t, got.Approx(math3d.V3(0, 0, -5), 1e-6), "eye-space %v", got)
		})
	}
}

func TestViewMatrixCameraAtOrigin(t *testing.T) {
	cam := world.NewCamera()
	cam.Rot = math3d.Euler{Pitch: 0.3, Yaw: 2, Roll: 0.1}
	assert.True(t, eyeSpace(cam, cam.Pos).Approx(math3d.V3(0, 0, 0), 1e-9))
}

func TestProjectionMatrixAspect(t *testing.T) {
	cam := world.NewCamera()
	p := ProjectionMatrix(cam, image.Rect(0, 0, 200, 100))
	want := math3d.Perspective(cam.FOV, 2, cam.Near, cam.Far)
	assert.Equal(t, want, p)

	// the viewport origin does not matter, only its size
	assert.Equal(t, p, ProjectionMatrix(cam, image.Rect(50, 50, 250, 150)))
}

func TestProjectionMatrixEmptyViewportPanics(t *testing.T) {
	cam := world.NewCamera()
	for _, vp := range []image.Rectangle{
		image.Rect(0, 0, 10, 0),
		image.Rect(0, 0, 0, 48),
		image.Rect(5, 5, 5, 5),
	} {
		assert.Panics(t, func() { ProjectionMatrix(cam, vp) }, "viewport %v", vp)
	}
}

func TestRoomTransformProjectsForwardPoint(t *testing.T) {
	cam := world.NewCamera()
	cam.Pos = math3d.V3(10, 10, 10)
	proj := ProjectionMatrix(cam, image.Rect(0, 0, 100, 100))
	m := RoomTransform(proj, ViewMatrix(cam))

	ndc := m.MulVec4(math3d.V4(10, 20, 10, 1)).PerspectiveDivide()
	assert.InDelta(t, 0, ndc.X, eps)
	assert.InDelta(t, 0, ndc.Y, eps)
	assert.Greater(t, ndc.Z, -1.0)
	assert.Less(t, ndc.Z, 1.0)

	// up in the room is up on screen
	up := m.MulVec4(math3d.V4(10, 20, 12, 1)).PerspectiveDivide()
	assert.Positive(t, up.Y)
	// right of the heading is right on screen
	right := m.MulVec4(math3d.V4(12, 20, 10, 1)).PerspectiveDivide()
	assert.Positive(t, right.X)
}

func TestPortalOffsetIdentityPlacement(t *testing.T) {
	rp := world.RoomPortal{Pos: math3d.V3(1, 2, 3), Rot: math3d.QuatIdentity()}
	assert.True(t, PortalOffset(rp).Approx(math3d.Translate(rp.Pos), eps))
}

func TestPortalLinkJoinsPortalCenters(t *testing.T) {
	near := world.RoomPortal{Pos: math3d.V3(64, 0, 32), Rot: math3d.QuatIdentity()}
	far := world.RoomPortal{Pos: math3d.V3(32, 0, 32), Rot: math3d.QuatIdentity()}
	link := PortalLink(near, far)

	// the far portal center lands on the near portal center
	assert.True(t, link.MulVec3(far.Pos).Approx(near.Pos, eps))

	// ten units into the far room is ten units beyond the near wall
	got := link.MulVec3(math3d.V3(32, 10, 32))
	assert.True(t, got.Approx(math3d.V3(64, -10, 32), eps), "got %v", got)

	// the far room keeps its up axis
	assert.True(t, link.MulVec3Dir(math3d.UnitZ).Approx(math3d.UnitZ, eps))
}

func TestPortalLinkRotatedPlacements(t *testing.T) {
	near := world.RoomPortal{Pos: math3d.V3(0, 20, 5), Rot: math3d.QuatAxisAngle(math3d.UnitZ, -math.Pi/2)}
	far := world.RoomPortal{Pos: math3d.V3(8, 0, 5), Rot: math3d.QuatIdentity()}
	link := PortalLink(near, far)

	assert.True(t, link.MulVec3(far.Pos).Approx(near.Pos, eps))
	// into the far room (+Y there) maps out through the x = 0 wall
	got := link.MulVec3Dir(math3d.UnitY)
	assert.True(t, got.Approx(math3d.V3(-1, 0, 0), eps), "got %v", got)
}

func TestPortalTransformComposesRoomTransform(t *testing.T) {
	cam := world.NewCamera()
	proj := ProjectionMatrix(cam, image.Rect(0, 0, 64, 48))
	view := ViewMatrix(cam)
	offset := math3d.Translate(math3d.V3(3, 4, 5))

	p := math3d.V3(1, 1, 1)
	got := PortalTransform(proj, view, offset).MulVec4(math3d.V4(p.X, p.Y, p.Z, 1))
	q := offset.MulVec3(p)
	want := RoomTransform(proj, view).MulVec4(math3d.V4(q.X, q.Y, q.Z, 1))
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.W, got.W, 1e-9)
}

func TestToRoomMatchesCameraMovement(t *testing.T) {
	dirs := []math3d.Vec3{
		math3d.V3(0, 0, 1), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0),
		math3d.V3(-1, 1, -1),
	}
	for _, yaw := range []float64{0, 0.4, math.Pi / 2, math.Pi, 5} {
		for _, d := range dirs {
			got := ToRoom(yaw, d)
			want := world.MoveDirection(yaw, d)
			require.True(t, got.Approx(want, eps), "yaw %v dir %v: got %v want %v", yaw, d, got, want)
		}
	}
}
