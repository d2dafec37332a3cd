package glgpu

import (
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/taigrr/emcee/pkg/gpu"
)

func applyState(st gpu.State, bounds image.Rectangle) {
	x, y, w, h := glRect(st.Viewport, bounds)
	gl.Viewport(x, y, w, h)

	switch st.Cull {
	case gpu.CNone:
		gl.Disable(gl.CULL_FACE)
	case gpu.CFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	case gpu.CBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	if st.Clockwise {
		gl.FrontFace(gl.CW)
	} else {
		gl.FrontFace(gl.CCW)
	}

	if st.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(cmpFunc(st.DepthCmp))
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(st.DepthWrite)

	if st.StencilTest {
		s := st.Stencil
		gl.Enable(gl.STENCIL_TEST)
		gl.StencilFunc(cmpFunc(s.Cmp), int32(s.Ref), uint32(s.ReadMask))
		gl.StencilOp(stencilOp(s.SFail), stencilOp(s.DFail), stencilOp(s.DPass))
		gl.StencilMask(uint32(s.WriteMask))
	} else {
		gl.Disable(gl.STENCIL_TEST)
	}

	gl.ColorMask(st.ColorMask&gpu.CRed != 0, st.ColorMask&gpu.CGreen != 0,
		st.ColorMask&gpu.CBlue != 0, st.ColorMask&gpu.CAlpha != 0)

	if st.SRGB {
		gl.Enable(gl.FRAMEBUFFER_SRGB)
	} else {
		gl.Disable(gl.FRAMEBUFFER_SRGB)
	}
}

// glRect converts a y-down rectangle inside bounds into GL's y-up window
// coordinates.
func glRect(r, bounds image.Rectangle) (x, y, w, h int32) {
	return int32(r.Min.X), int32(bounds.Max.Y - r.Max.Y), int32(r.Dx()), int32(r.Dy())
}

func cmpFunc(f gpu.CmpFunc) uint32 {
	switch f {
	case gpu.CNever:
		return gl.NEVER
	case gpu.CLess:
		return gl.LESS
	case gpu.CEqual:
		return gl.EQUAL
	case gpu.CLessEqual:
		return gl.LEQUAL
	case gpu.CGreater:
		return gl.GREATER
	case gpu.CNotEqual:
		return gl.NOTEQUAL
	case gpu.CGreaterEqual:
		return gl.GEQUAL
	}
	return gl.ALWAYS
}

func stencilOp(op gpu.StencilOp) uint32 {
	switch op {
	case gpu.SZero:
		return gl.ZERO
	case gpu.SReplace:
		return gl.REPLACE
	case gpu.SIncClamp:
		return gl.INCR
	case gpu.SDecClamp:
		return gl.DECR
	case gpu.SInvert:
		return gl.INVERT
	}
	return gl.KEEP
}
