package geometry

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/emcee/pkg/math3d"
)

var roomDims = []math3d.Vec3{
	math3d.V3(128, 128, 128),
	math3d.V3(64, 64, 64),
	math3d.V3(1, 2, 3),
	math3d.V3(0.25, 900, 17.5),
}

func TestRoomIndicesInRange(t *testing.T) {
	for _, dims := range roomDims {
		verts, idx := RoomToTriangles(dims)
		assert.Len(t, verts, RoomVertexCount)
		assert.Len(t, idx, RoomIndexCount)
		for _, i := range idx {
			assert.Less(t, int(i), RoomVertexCount)
		}
	}
}

// faceKey names the box face a triangle lies on: the axis whose
// coordinate is shared by all three corners and whether it is the far side.
type faceKey struct {
	axis int
	far  bool
}

func coord(v math3d.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

func TestRoomCoversEachFaceOnceWoundInward(t *testing.T) {
	for _, dims := range roomDims {
		verts, idx := RoomToTriangles(dims)
		center := dims.Scale(0.5)

		faces := map[faceKey][]uint16{}
		for tri := 0; tri < RoomIndexCount; tri += 3 {
			a, b, c := verts[idx[tri]].Pos, verts[idx[tri+1]].Pos, verts[idx[tri+2]].Pos

			var key *faceKey
			for axis := range 3 {
				if coord(a, axis) == coord(b, axis) && coord(b, axis) == coord(c, axis) {
					require.Nil(t, key, "triangle %d is degenerate", tri/3)
					key = &faceKey{axis: axis, far: coord(a, axis) != 0}
				}
			}
			require.NotNil(t, key, "triangle %d is not on a box face", tri/3)
			faces[*key] = append(faces[*key], idx[tri:tri+3]...)

			// clockwise from inside: the reversed edge cross product
			// points into the box
			n := c.Sub(a).Cross(b.Sub(a))
			centroid := a.Add(b).Add(c).Scale(1.0 / 3)
			assert.Positive(t, n.Dot(center.Sub(centroid)), "triangle %d faces outward", tri/3)
		}

		require.Len(t, faces, 6)
		for key, tris := range faces {
			require.Len(t, tris, 6, "face %+v", key)
			corners := map[uint16]int{}
			for _, i := range tris {
				corners[i]++
			}
			// two triangles sharing one diagonal cover the whole face
			assert.Len(t, corners, 4, "face %+v", key)
			shared := 0
			for _, n := range corners {
				if n == 2 {
					shared++
				}
			}
			assert.Equal(t, 2, shared, "face %+v", key)
		}
	}
}

func TestCornerColors(t *testing.T) {
	dims := math3d.V3(10, 20, 30)
	verts, _ := RoomToTriangles(dims)
	for i, v := range verts {
		want := color.RGBA{A: 255}
		if v.Pos.X == dims.X {
			want.R = 255
		}
		if v.Pos.Y == dims.Y {
			want.G = 255
		}
		if v.Pos.Z == dims.Z {
			want.B = 255
		}
		assert.Equal(t, want, v.Color, "corner %d at %v", i, v.Pos)
	}
	assert.Equal(t, color.RGBA{A: 255}, verts[0].Color)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, verts[6].Color)
}

func TestRoomToTrianglesDeterministic(t *testing.T) {
	dims := math3d.V3(3.3, 7.1, 2.9)
	v1, i1 := RoomToTriangles(dims)
	v2, i2 := RoomToTriangles(dims)
	assert.Equal(t, v1, v2)
	assert.Equal(t, i1, i2)
}

func TestRoomToTrianglesPanicsOnFlatRoom(t *testing.T) {
	assert.Panics(t, func() { RoomToTriangles(math3d.V3(1, 0, 1)) })
	assert.Panics(t, func() { RoomToTriangles(math3d.V3(-1, 1, 1)) })
}

func TestPortalQuadIsCenteredRectangle(t *testing.T) {
	tests := []struct {
		name string
		pos  math3d.Vec3
		dims math3d.Vec2
		rot  math3d.Quat
	}{
		{"demo portal", math3d.V3(64, 0, 32), math3d.V2(32, 32), math3d.QuatIdentity()},
		{"wide portal turned onto x wall", math3d.V3(0, 20, 5), math3d.V2(8, 4), math3d.QuatAxisAngle(math3d.UnitZ, math.Pi/2)},
		{"tilted", math3d.V3(1, 2, 3), math3d.V2(2, 5), math3d.QuatAxisAngle(math3d.V3(1, 1, 1), 0.7)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := PortalQuad(tc.pos, tc.dims, tc.rot)

			centroid := q[0].Add(q[1]).Add(q[2]).Add(q[3]).Scale(0.25)
			assert.True(t, centroid.Approx(tc.pos, 1e-9), "centroid %v", centroid)

			// sides: 0-1 and 2-3 span the height, 1-2 and 3-0 the width
			assert.InDelta(t, tc.dims.Y, q[0].Sub(q[1]).Len(), 1e-9)
			assert.InDelta(t, tc.dims.Y, q[2].Sub(q[3]).Len(), 1e-9)
			assert.InDelta(t, tc.dims.X, q[1].Sub(q[2]).Len(), 1e-9)
			assert.InDelta(t, tc.dims.X, q[3].Sub(q[0]).Len(), 1e-9)

			// right angle and coplanarity
			assert.InDelta(t, 0, q[1].Sub(q[0]).Dot(q[3].Sub(q[0])), 1e-9)
			n := q[1].Sub(q[0]).Cross(q[3].Sub(q[0]))
			assert.InDelta(t, 0, n.Dot(q[2].Sub(q[0])), 1e-9)
		})
	}
}

func TestPortalIndicesCoverQuad(t *testing.T) {
	q := PortalQuad(math3d.V3(0, 0, 0), math3d.V2(4, 2), math3d.QuatIdentity())

	area := func(a, b, c math3d.Vec3) math3d.Vec3 { return b.Sub(a).Cross(c.Sub(a)).Scale(0.5) }
	t1 := area(q[PortalIndices[0]], q[PortalIndices[1]], q[PortalIndices[2]])
	t2 := area(q[PortalIndices[3]], q[PortalIndices[4]], q[PortalIndices[5]])

	// same orientation and areas summing to the rectangle: no overlap, no gap
	assert.Positive(t, t1.Dot(t2))
	assert.InDelta(t, 8, t1.Len()+t2.Len(), 1e-9)

	// wound clockwise seen from +Y, i.e. from inside a room whose y = 0
	// wall holds the portal
	assert.Negative(t, t1.Y)
}

func TestPortalQuadPanicsOnZeroDims(t *testing.T) {
	assert.Panics(t, func() { PortalQuad(math3d.V3(0, 0, 0), math3d.V2(0, 1), math3d.QuatIdentity()) })
}
