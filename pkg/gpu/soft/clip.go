package soft

import "github.com/taigrr/emcee/pkg/math3d"

// Plane is a clip-space half space: points p with Dot(p) >= 0 are inside.
type Plane math3d.Vec4

// Dot evaluates the plane equation at a homogeneous point.
func (p Plane) Dot(v math3d.Vec4) float64 {
	return math3d.Vec4(p).Dot(v)
}

// Clip-space planes geometry is cut against before the perspective
// divide. The side planes are left to the viewport scissor.
var (
	NearPlane = Plane{Z: 1, W: 1}  // z >= -w
	FarPlane  = Plane{Z: -1, W: 1} // z <= w
)

// clipVertex is a vertex after the vertex stage.
type clipVertex struct {
	Pos   math3d.Vec4
	Color [4]float64 // linear, 0..1
}

func lerpVertex(a, b clipVertex, t float64) clipVertex {
	out := clipVertex{Pos: a.Pos.Lerp(b.Pos, t)}
	for i := range out.Color {
		out.Color[i] = a.Color[i] + (b.Color[i]-a.Color[i])*t
	}
	return out
}

// clipPolygon cuts a convex polygon against one plane
// (Sutherland-Hodgman). dst is reused for the result.
func clipPolygon(dst, poly []clipVertex, p Plane) []clipVertex {
	dst = dst[:0]
	if len(poly) == 0 {
		return dst
	}
	prev := poly[len(poly)-1]
	prevD := p.Dot(prev.Pos)
	for _, cur := range poly {
		curD := p.Dot(cur.Pos)
		switch {
		case curD >= 0 && prevD >= 0:
			dst = append(dst, cur)
		case curD >= 0 && prevD < 0:
			if curD > 0 {
				dst = append(dst, lerpVertex(prev, cur, prevD/(prevD-curD)))
			}
			dst = append(dst, cur)
		case curD < 0 && prevD > 0:
			dst = append(dst, lerpVertex(prev, cur, prevD/(prevD-curD)))
		}
		prev, prevD = cur, curD
	}
	return dst
}

// clipTriangle returns the convex polygon left of a triangle after the
// near and far planes, or nil when nothing remains.
func clipTriangle(tri [3]clipVertex, scratch *[2][]clipVertex) []clipVertex {
	inside := true
	for _, v := range tri {
		if NearPlane.Dot(v.Pos) < 0 || FarPlane.Dot(v.Pos) < 0 {
			inside = false
			break
		}
	}
	a := append(scratch[0][:0], tri[:]...)
	if inside {
		scratch[0] = a
		return a
	}
	b := clipPolygon(scratch[1], a, NearPlane)
	a = clipPolygon(a, b, FarPlane)
	scratch[0], scratch[1] = a, b
	if len(a) < 3 {
		return nil
	}
	return a
}
