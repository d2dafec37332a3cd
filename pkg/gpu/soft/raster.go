package soft

import (
	"image"
	"image/color"
	"math"

	"github.com/taigrr/emcee/pkg/gpu"
)

// screenVertex is a vertex after the perspective divide and viewport
// transform.
type screenVertex struct {
	X, Y  float64 // window pixels, y down
	Z     float64 // window depth in [0, 1]
	InvW  float64
	Color [4]float64
}

// edgeCoeffs returns A, B, C of the edge function A*x + B*y + C for the
// edge from (x0, y0) to (x1, y1).
func edgeCoeffs(x0, y0, x1, y1 float64) (a, b, c float64) {
	return y0 - y1, x1 - x0, x0*y1 - x1*y0
}

// toScreen maps a clip-space vertex into the viewport.
func toScreen(v clipVertex, vp image.Rectangle) screenVertex {
	invW := 1 / v.Pos.W
	nx, ny, nz := v.Pos.X*invW, v.Pos.Y*invW, v.Pos.Z*invW
	return screenVertex{
		X:     float64(vp.Min.X) + (nx+1)*0.5*float64(vp.Dx()),
		Y:     float64(vp.Min.Y) + (1-ny)*0.5*float64(vp.Dy()),
		Z:     (nz + 1) * 0.5,
		InvW:  invW,
		Color: v.Color,
	}
}

// facing returns the signed doubled area of a convex polygon in y-up
// normalized device coordinates: positive when counter-clockwise.
func facing(poly []clipVertex) float64 {
	var area float64
	prev := poly[len(poly)-1]
	for _, cur := range poly {
		ax, ay := prev.Pos.X/prev.Pos.W, prev.Pos.Y/prev.Pos.W
		bx, by := cur.Pos.X/cur.Pos.W, cur.Pos.Y/cur.Pos.W
		area += ax*by - bx*ay
		prev = cur
	}
	return area
}

// culled applies the face culling of st to a triangle with the given
// signed NDC area.
func culled(st gpu.State, area float64) bool {
	if area == 0 {
		return true
	}
	front := area > 0
	if st.Clockwise {
		front = !front
	}
	switch st.Cull {
	case gpu.CBack:
		return !front
	case gpu.CFront:
		return front
	}
	return false
}

// rasterizeTriangle fills one clipped triangle with the per-fragment
// stencil, depth and color-mask pipeline of st.
func (fb *Framebuffer) rasterizeTriangle(sv [3]screenVertex, st gpu.State, clip image.Rectangle, colored bool) int {
	area := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[2].X-sv[0].X)*(sv[1].Y-sv[0].Y)
	if area == 0 {
		return 0
	}
	invArea := 1 / area

	minX := max(clip.Min.X, int(math.Floor(min(sv[0].X, sv[1].X, sv[2].X))))
	maxX := min(clip.Max.X-1, int(math.Ceil(max(sv[0].X, sv[1].X, sv[2].X))))
	minY := max(clip.Min.Y, int(math.Floor(min(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := min(clip.Max.Y-1, int(math.Ceil(max(sv[0].Y, sv[1].Y, sv[2].Y))))
	if minX > maxX || minY > maxY {
		return 0
	}

	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	a0, b0, c0 := edgeCoeffs(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
	a1, b1, c1 := edgeCoeffs(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y)
	a2, b2, c2 := edgeCoeffs(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y)

	px, py := float64(minX)+0.5, float64(minY)+0.5
	w0Row := a0*px + b0*py + c0
	w1Row := a1*px + b1*py + c1
	w2Row := a2*px + b2*py + c2

	written := 0
	for y := minY; y <= maxY; y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row
		for x := minX; x <= maxX; x++ {
			// normalized barycentrics are all non-negative inside,
			// whichever way the triangle winds on screen
			l0, l1, l2 := w0*invArea, w1*invArea, w2*invArea
			if l0 >= 0 && l1 >= 0 && l2 >= 0 {
				z := l0*sv[0].Z + l1*sv[1].Z + l2*sv[2].Z
				if fb.fragment(x, y, z, st) {
					written++
					if st.ColorMask != 0 {
						c := white
						if colored {
							c = shade(sv, l0, l1, l2, st.SRGB)
						}
						i := y*fb.Width + x
						fb.Pixels[i] = maskColor(fb.Pixels[i], c, st.ColorMask)
					}
				}
			}
			w0 += a0
			w1 += a1
			w2 += a2
		}
		w0Row += b0
		w1Row += b1
		w2Row += b2
	}
	return written
}

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// fragment runs the stencil and depth tests for one sample and updates
// the stencil and depth planes. It reports whether the sample passed and
// may write color.
func (fb *Framebuffer) fragment(x, y int, z float64, st gpu.State) bool {
	i := y*fb.Width + x
	s := &st.Stencil

	if st.StencilTest {
		stored := fb.Stencil[i]
		if !s.Cmp.Compare(float64(s.Ref&s.ReadMask), float64(stored&s.ReadMask)) {
			fb.Stencil[i] = writeStencil(stored, s.SFail.Apply(stored, s.Ref), s.WriteMask)
			return false
		}
	}

	if st.DepthTest && !st.DepthCmp.Compare(z, fb.Depth[i]) {
		if st.StencilTest {
			stored := fb.Stencil[i]
			fb.Stencil[i] = writeStencil(stored, s.DFail.Apply(stored, s.Ref), s.WriteMask)
		}
		return false
	}

	if st.StencilTest {
		stored := fb.Stencil[i]
		fb.Stencil[i] = writeStencil(stored, s.DPass.Apply(stored, s.Ref), s.WriteMask)
	}
	if st.DepthTest && st.DepthWrite {
		fb.Depth[i] = z
	}
	return true
}

func writeStencil(stored, value, mask uint8) uint8 {
	return stored&^mask | value&mask
}

func maskColor(dst, src color.RGBA, m gpu.ColorMask) color.RGBA {
	if m&gpu.CRed != 0 {
		dst.R = src.R
	}
	if m&gpu.CGreen != 0 {
		dst.G = src.G
	}
	if m&gpu.CBlue != 0 {
		dst.B = src.B
	}
	if m&gpu.CAlpha != 0 {
		dst.A = src.A
	}
	return dst
}

// shade interpolates the vertex colors perspective-correctly.
func shade(sv [3]screenVertex, l0, l1, l2 float64, srgb bool) color.RGBA {
	w0, w1, w2 := l0*sv[0].InvW, l1*sv[1].InvW, l2*sv[2].InvW
	sum := w0 + w1 + w2
	if sum == 0 {
		return color.RGBA{}
	}
	var c [4]float64
	for k := range c {
		c[k] = (w0*sv[0].Color[k] + w1*sv[1].Color[k] + w2*sv[2].Color[k]) / sum
	}
	if srgb {
		for k := range 3 {
			c[k] = linearToSRGB(c[k])
		}
	}
	return color.RGBA{R: unorm8(c[0]), G: unorm8(c[1]), B: unorm8(c[2]), A: unorm8(c[3])}
}

func linearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func unorm8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
