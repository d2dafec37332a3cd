package soft

import (
	"math"

	"github.com/taigrr/emcee/pkg/math3d"
)

// Frustum is the six planes of a model-view-projection volume in model
// space, ordered left, right, bottom, top, near, far, normals inward.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustum extracts the frustum planes of m (Gribb/Hartmann). For
// column-major m, row i element j is m[i+j*4].
func NewFrustum(m math3d.Mat4) Frustum {
	row := func(i int) math3d.Vec4 { return math3d.V4(m[i], m[i+4], m[i+8], m[i+12]) }
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	add := func(a, b math3d.Vec4) Plane { return Plane{a.X + b.X, a.Y + b.Y, a.Z + b.Z, a.W + b.W} }
	sub := func(a, b math3d.Vec4) Plane { return Plane{a.X - b.X, a.Y - b.Y, a.Z - b.Z, a.W - b.W} }

	f := Frustum{Planes: [6]Plane{
		add(r3, r0), sub(r3, r0),
		add(r3, r1), sub(r3, r1),
		add(r3, r2), sub(r3, r2),
	}}
	for i := range f.Planes {
		p := &f.Planes[i]
		if l := math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z); l > 0 {
			*p = Plane{p.X / l, p.Y / l, p.Z / l, p.W / l}
		}
	}
	return f
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math3d.Vec3
}

// Bounds returns the box around points. The zero box is returned for no
// points.
func Bounds(points []math3d.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	b := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// IntersectAABB reports whether any part of box may be inside the
// frustum. It tests the corner furthest along each plane normal, so it
// can report a box near a frustum edge as visible when it is not.
func (f Frustum) IntersectAABB(box AABB) bool {
	for _, p := range f.Planes {
		pv := math3d.V4(
			pick(p.X >= 0, box.Max.X, box.Min.X),
			pick(p.Y >= 0, box.Max.Y, box.Min.Y),
			pick(p.Z >= 0, box.Max.Z, box.Min.Z),
			1,
		)
		if p.Dot(pv) < 0 {
			return false
		}
	}
	return true
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
