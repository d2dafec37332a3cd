package soft

import (
	"image"
	"math"

	"github.com/taigrr/emcee/pkg/gpu"
)

// clipSegment cuts a line segment against the near and far planes.
func clipSegment(a, b clipVertex) (clipVertex, clipVertex, bool) {
	for _, p := range [...]Plane{NearPlane, FarPlane} {
		da, db := p.Dot(a.Pos), p.Dot(b.Pos)
		switch {
		case da < 0 && db < 0:
			return a, b, false
		case da < 0:
			a = lerpVertex(a, b, da/(da-db))
		case db < 0:
			b = lerpVertex(b, a, db/(db-da))
		}
	}
	return a, b, true
}

// rasterizeLine walks the segment with Bresenham's algorithm, running the
// same per-fragment pipeline as triangles. Color and depth are
// interpolated linearly in screen space. Face culling does not apply.
func (fb *Framebuffer) rasterizeLine(a, b screenVertex, st gpu.State, clip image.Rectangle, colored bool) int {
	x0, y0 := int(math.Floor(a.X)), int(math.Floor(a.Y))
	x1, y1 := int(math.Floor(b.X)), int(math.Floor(b.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	steps := max(dx, -dy)
	e := dx + dy

	written := 0
	for n := 0; ; n++ {
		if (image.Point{X: x0, Y: y0}).In(clip) {
			t := 0.0
			if steps > 0 {
				t = float64(n) / float64(steps)
			}
			z := a.Z + (b.Z-a.Z)*t
			if fb.fragment(x0, y0, z, st) {
				written++
				if st.ColorMask != 0 {
					c := white
					if colored {
						c = shade([3]screenVertex{a, b, b}, 1-t, t, 0, st.SRGB)
					}
					i := y0*fb.Width + x0
					fb.Pixels[i] = maskColor(fb.Pixels[i], c, st.ColorMask)
				}
			}
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
	return written
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
