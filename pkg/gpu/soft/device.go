package soft

import (
	"fmt"
	"image"
	"image/color"

	"github.com/taigrr/emcee/pkg/gpu"
	"github.com/taigrr/emcee/pkg/math3d"
)

// Stats counts the work of the draws since the last ResetStats.
type Stats struct {
	Draws          int
	DrawsCulled    int // rejected whole by the frustum test
	Triangles      int
	TrianglesCut   int // clipped away or back facing
	FragmentsDrawn int
}

// Device is a software gpu.Device drawing into *Framebuffer targets.
type Device struct {
	Stats Stats
}

var _ gpu.Device = (*Device)(nil)

// NewDevice returns a software device.
func NewDevice() *Device {
	return &Device{}
}

// ResetStats zeroes the counters (call once per frame).
func (d *Device) ResetStats() {
	d.Stats = Stats{}
}

// StencilBits reports the 8-bit stencil plane of Framebuffer.
func (d *Device) StencilBits() int { return 8 }

type program struct {
	name      string
	warnings  []string
	colored   bool
	transform bool
}

func (p *program) Name() string       { return p.name }
func (p *program) Warnings() []string { return p.warnings }
func (p *program) Release()           {}

// NewProgram checks the GLSL interface of src. The vertex stage is run as
// transform_matrix × pos and the fragment stage as the interpolated
// face_color, white when the vertex stage has no color input.
func (d *Device) NewProgram(src gpu.ProgramSource) (gpu.Program, error) {
	vert, _, warnings, err := gpu.CheckProgram(src)
	if err != nil {
		return nil, err
	}
	_, colored := vert.Input(gpu.AttribFaceColor)
	_, transform := vert.Uniform(gpu.UniformMatrix)
	return &program{name: src.Name, warnings: warnings, colored: colored, transform: transform}, nil
}

type buffer struct {
	vertexCap, indexCap int
	vertices            []gpu.Vertex
	indices             []uint16
	bounds              AABB
	released            bool
}

// NewBuffer allocates a buffer pair holding up to the given element counts.
func (d *Device) NewBuffer(vertexCap, indexCap int) (gpu.Buffer, error) {
	if vertexCap <= 0 || indexCap <= 0 {
		return nil, fmt.Errorf("soft: buffer capacity must be positive, got %d/%d", vertexCap, indexCap)
	}
	return &buffer{
		vertexCap: vertexCap,
		indexCap:  indexCap,
		vertices:  make([]gpu.Vertex, 0, vertexCap),
		indices:   make([]uint16, 0, indexCap),
	}, nil
}

func (b *buffer) Upload(vertices []gpu.Vertex, indices []uint16) error {
	if len(vertices) > b.vertexCap || len(indices) > b.indexCap {
		return fmt.Errorf("%w: %d vertices and %d indices into %d/%d",
			gpu.ErrBufferOverflow, len(vertices), len(indices), b.vertexCap, b.indexCap)
	}
	b.vertices = append(b.vertices[:0], vertices...)
	b.indices = append(b.indices[:0], indices...)

	pts := make([]math3d.Vec3, len(vertices))
	for i, v := range vertices {
		pts[i] = math3d.V3(float64(v.Pos[0]), float64(v.Pos[1]), float64(v.Pos[2]))
	}
	b.bounds = Bounds(pts)
	return nil
}

func (b *buffer) Cap() (vertices, indices int) { return b.vertexCap, b.indexCap }

func (b *buffer) Release() {
	b.released = true
	b.vertices, b.indices = nil, nil
}

func target(fb gpu.Framebuffer) *Framebuffer {
	t, ok := fb.(*Framebuffer)
	if !ok {
		panic(fmt.Sprintf("soft: cannot draw into %T", fb))
	}
	return t
}

// Clear resets the selected planes of fb inside rect.
func (d *Device) Clear(fb gpu.Framebuffer, rect image.Rectangle, mask gpu.ClearMask, c color.RGBA) {
	target(fb).ClearRect(rect, mask, c)
}

// Draw rasterizes a triangle or line draw. Indices past the uploaded data
// are ignored; a released buffer draws nothing.
func (d *Device) Draw(fb gpu.Framebuffer, dr gpu.Draw) {
	t := target(fb)
	prog, ok := dr.Program.(*program)
	if !ok {
		panic(fmt.Sprintf("soft: foreign program %T", dr.Program))
	}
	buf, ok := dr.Buffer.(*buffer)
	if !ok {
		panic(fmt.Sprintf("soft: foreign buffer %T", dr.Buffer))
	}
	d.Stats.Draws++
	if buf.released {
		return
	}

	m := math3d.Identity()
	if prog.transform {
		m = dr.Uniforms.TransformMatrix
	}
	if !NewFrustum(m).IntersectAABB(buf.bounds) {
		d.Stats.DrawsCulled++
		return
	}

	clip := dr.State.Viewport.Intersect(t.Bounds())
	if clip.Empty() {
		return
	}

	count := min(dr.Count, len(buf.indices))
	if dr.Mode == gpu.Lines {
		d.drawLines(t, prog, buf, m, dr.State, clip, count)
		return
	}
	var scratch [2][]clipVertex
	for i := 0; i+2 < count; i += 3 {
		var tri [3]clipVertex
		valid := true
		for k := range 3 {
			idx := int(buf.indices[i+k])
			if idx >= len(buf.vertices) {
				valid = false
				break
			}
			tri[k] = vertexStage(m, buf.vertices[idx])
		}
		if !valid {
			continue
		}
		d.Stats.Triangles++

		poly := clipTriangle(tri, &scratch)
		if poly == nil {
			d.Stats.TrianglesCut++
			continue
		}
		if culled(dr.State, facing(poly)) {
			d.Stats.TrianglesCut++
			continue
		}
		s0 := toScreen(poly[0], dr.State.Viewport)
		for k := 1; k+1 < len(poly); k++ {
			sv := [3]screenVertex{s0, toScreen(poly[k], dr.State.Viewport), toScreen(poly[k+1], dr.State.Viewport)}
			d.Stats.FragmentsDrawn += t.rasterizeTriangle(sv, dr.State, clip, prog.colored)
		}
	}
}

// drawLines draws index pairs as segments.
func (d *Device) drawLines(t *Framebuffer, prog *program, buf *buffer, m math3d.Mat4, st gpu.State, clip image.Rectangle, count int) {
	for i := 0; i+1 < count; i += 2 {
		ia, ib := int(buf.indices[i]), int(buf.indices[i+1])
		if ia >= len(buf.vertices) || ib >= len(buf.vertices) {
			continue
		}
		a, b, ok := clipSegment(vertexStage(m, buf.vertices[ia]), vertexStage(m, buf.vertices[ib]))
		if !ok {
			continue
		}
		d.Stats.FragmentsDrawn += t.rasterizeLine(toScreen(a, st.Viewport), toScreen(b, st.Viewport), st, clip, prog.colored)
	}
}

func vertexStage(m math3d.Mat4, v gpu.Vertex) clipVertex {
	p := math3d.V4(float64(v.Pos[0]), float64(v.Pos[1]), float64(v.Pos[2]), 1)
	return clipVertex{
		Pos: m.MulVec4(p),
		Color: [4]float64{
			float64(v.Color.R) / 255,
			float64(v.Color.G) / 255,
			float64(v.Color.B) / 255,
			float64(v.Color.A) / 255,
		},
	}
}
