// Package gpu is the drawing surface the portal renderer targets. It
// carries just enough fixed-function state for stencil-masked portal
// rendering: face culling, depth test, an 8-bit stencil test and a color
// write mask. Backends live in sub-packages.
package gpu

import (
	"errors"
	"image"
	"image/color"

	"github.com/taigrr/emcee/pkg/math3d"
)

// ErrBufferOverflow is returned by Buffer.Upload when the data does not
// fit the buffer's fixed allocation.
var ErrBufferOverflow = errors.New("gpu: buffer overflow")

// Vertex is the single vertex layout of every buffer: a position and a
// per-vertex color. Programs without a color input ignore Color.
type Vertex struct {
	Pos   [3]float32
	Color color.RGBA
}

// V builds a Vertex from a double precision position.
func V(p math3d.Vec3, c color.RGBA) Vertex {
	return Vertex{Pos: p.Array(), Color: c}
}

// CullMode selects which triangle faces are discarded.
type CullMode int

// Cull modes.
const (
	CNone CullMode = iota
	CFront
	CBack
)

// CmpFunc is the type of depth and stencil comparison functions.
type CmpFunc int

// Comparison functions.
const (
	CNever CmpFunc = iota
	CLess
	CEqual
	CLessEqual
	CGreater
	CNotEqual
	CGreaterEqual
	CAlways
)

// Compare reports whether incoming passes against stored.
func (f CmpFunc) Compare(incoming, stored float64) bool {
	switch f {
	case CLess:
		return incoming < stored
	case CEqual:
		return incoming == stored
	case CLessEqual:
		return incoming <= stored
	case CGreater:
		return incoming > stored
	case CNotEqual:
		return incoming != stored
	case CGreaterEqual:
		return incoming >= stored
	case CAlways:
		return true
	}
	return false
}

// StencilOp is the type of stencil operations.
type StencilOp int

// Stencil operations.
const (
	SKeep StencilOp = iota
	SZero
	SReplace
	SIncClamp
	SDecClamp
	SInvert
)

// Apply returns the stencil value after op.
func (op StencilOp) Apply(stored, ref uint8) uint8 {
	switch op {
	case SZero:
		return 0
	case SReplace:
		return ref
	case SIncClamp:
		if stored < 255 {
			return stored + 1
		}
	case SDecClamp:
		if stored > 0 {
			return stored - 1
		}
	case SInvert:
		return ^stored
	}
	return stored
}

// StencilT is the stencil test of a draw.
type StencilT struct {
	Cmp       CmpFunc
	Ref       uint8
	ReadMask  uint8
	WriteMask uint8
	// SFail runs when the stencil test fails, DFail when stencil passes
	// and depth fails, DPass when both pass.
	SFail, DFail, DPass StencilOp
}

// ColorMask is the type of a color write mask.
type ColorMask int

// Color write masks.
const (
	CRed ColorMask = 1 << iota
	CGreen
	CBlue
	CAlpha
	// Write to all channels.
	CAll ColorMask = 1<<iota - 1
)

// State is the fixed-function state of one draw.
type State struct {
	Cull CullMode
	// Clockwise marks clockwise triangles (in y-up normalized device
	// coordinates) as front facing.
	Clockwise bool

	DepthTest  bool
	DepthWrite bool
	DepthCmp   CmpFunc

	StencilTest bool
	Stencil     StencilT

	ColorMask ColorMask
	SRGB      bool

	// Viewport is in framebuffer pixels with a top-left origin.
	Viewport image.Rectangle
}

// ClearMask selects which planes Clear resets.
type ClearMask int

// Clear planes.
const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil
)

// Uniforms are the shader uniforms of the geometry programs.
type Uniforms struct {
	TransformMatrix math3d.Mat4
}

// DrawMode is the primitive topology of a draw.
type DrawMode int

// Draw modes.
const (
	Triangles DrawMode = iota
	Lines
)

// Draw is one indexed draw of Count indices starting at index 0.
type Draw struct {
	Mode     DrawMode
	Count    int
	Program  Program
	Buffer   Buffer
	Uniforms Uniforms
	State    State
}

// Framebuffer is a draw target owned by the caller.
type Framebuffer interface {
	Bounds() image.Rectangle
}

// Buffer is a vertex/index buffer pair with a fixed allocation.
type Buffer interface {
	// Upload replaces the contents from offset 0.
	Upload(vertices []Vertex, indices []uint16) error
	// Cap returns the allocation in elements.
	Cap() (vertices, indices int)
	Release()
}

// Program is a linked shader program.
type Program interface {
	Name() string
	// Warnings returns compiler and linker diagnostics of a successful build.
	Warnings() []string
	Release()
}

// ProgramSource is the GLSL text of a program.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
}

// Device creates resources and submits draws. A Device and everything it
// creates belong to one goroutine.
type Device interface {
	NewProgram(src ProgramSource) (Program, error)
	NewBuffer(vertexCap, indexCap int) (Buffer, error)
	// StencilBits is the depth of the stencil plane of framebuffers this
	// device draws into.
	StencilBits() int
	Clear(fb Framebuffer, rect image.Rectangle, mask ClearMask, c color.RGBA)
	Draw(fb Framebuffer, d Draw)
}
