// Package geometry turns rooms and portals into triangle meshes in
// room-local coordinates. Every function here is pure: the same input
// always yields bit-identical output.
package geometry

import (
	"fmt"
	"image/color"

	"github.com/taigrr/emcee/pkg/math3d"
)

// Vertex is a position with a flat debug color.
type Vertex struct {
	Pos   math3d.Vec3
	Color color.RGBA
}

// Mesh sizes produced by this package. GPU buffers are sized from these.
const (
	RoomVertexCount   = 8
	RoomIndexCount    = 36
	PortalVertexCount = 4
	PortalIndexCount  = 6
)

// roomIndices triangulates the box faces, clockwise when seen from inside.
// Corners 0-3 are the floor and 4-7 the ceiling, each walked as
// origin, +X, +X+Y, +Y.
var roomIndices = [RoomIndexCount]uint16{
	0, 3, 2, 2, 1, 0, // floor
	0, 1, 5, 5, 4, 0, // y = 0 wall
	0, 4, 7, 7, 3, 0, // x = 0 wall
	6, 7, 4, 4, 5, 6, // ceiling
	6, 5, 1, 1, 2, 6, // x = width wall
	6, 2, 3, 3, 7, 6, // y = depth wall
}

// PortalIndices triangulates the quad returned by PortalQuad.
var PortalIndices = [PortalIndexCount]uint16{2, 1, 0, 0, 3, 2}

// CornerColor is the debug color of a room corner: each channel is 255
// when the corner sits on the far edge of the matching axis.
func CornerColor(farX, farY, farZ bool) color.RGBA {
	c := color.RGBA{A: 255}
	if farX {
		c.R = 255
	}
	if farY {
		c.G = 255
	}
	if farZ {
		c.B = 255
	}
	return c
}

// RoomToTriangles builds the closed box spanning (0,0,0) to dims.
// Panics on non-positive dims.
func RoomToTriangles(dims math3d.Vec3) ([RoomVertexCount]Vertex, [RoomIndexCount]uint16) {
	if !(dims.X > 0 && dims.Y > 0 && dims.Z > 0) {
		panic(fmt.Sprintf("geometry: room dims must be positive, got %v", dims))
	}

	var verts [RoomVertexCount]Vertex
	for i := range verts {
		// floor then ceiling, each origin, +X, +X+Y, +Y
		farX := i%4 == 1 || i%4 == 2
		farY := i%4 == 2 || i%4 == 3
		farZ := i >= 4

		var p math3d.Vec3
		if farX {
			p.X = dims.X
		}
		if farY {
			p.Y = dims.Y
		}
		if farZ {
			p.Z = dims.Z
		}
		verts[i] = Vertex{Pos: p, Color: CornerColor(farX, farY, farZ)}
	}
	return verts, roomIndices
}

// PortalQuad returns the corners of a portal centered at pos. The quad
// spans dims.X along local X and dims.Y along local Z before rotation, so
// an unrotated portal lies in a y = const wall and faces +Y.
// Panics on non-positive dims.
func PortalQuad(pos math3d.Vec3, dims math3d.Vec2, rot math3d.Quat) [PortalVertexCount]math3d.Vec3 {
	if !(dims.X > 0 && dims.Y > 0) {
		panic(fmt.Sprintf("geometry: portal dims must be positive, got %v", dims))
	}
	hw, hh := dims.X/2, dims.Y/2
	local := [PortalVertexCount]math3d.Vec3{
		math3d.V3(hw, 0, hh),
		math3d.V3(hw, 0, -hh),
		math3d.V3(-hw, 0, -hh),
		math3d.V3(-hw, 0, hh),
	}
	var out [PortalVertexCount]math3d.Vec3
	for i, c := range local {
		out[i] = rot.Rotate(c).Add(pos)
	}
	return out
}
