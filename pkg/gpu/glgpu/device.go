// Package glgpu implements gpu.Device on OpenGL 4.1 core. Every call must
// come from the goroutine that owns the GL context (see Window).
package glgpu

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/taigrr/emcee/pkg/gpu"
)

// Vertex attribute locations bound before linking.
const (
	locPos       = 0
	locFaceColor = 1
)

// Device draws with the current GL context.
type Device struct {
	stencilBits int
}

var _ gpu.Device = (*Device)(nil)

// NewDevice wraps the current context. gl.Init must have been called.
func NewDevice() *Device {
	var bits int32
	gl.GetFramebufferAttachmentParameteriv(gl.DRAW_FRAMEBUFFER, gl.STENCIL,
		gl.FRAMEBUFFER_ATTACHMENT_STENCIL_SIZE, &bits)
	return &Device{stencilBits: int(bits)}
}

// StencilBits reports the stencil depth of the default framebuffer.
func (d *Device) StencilBits() int { return d.stencilBits }

type program struct {
	name     string
	id       uint32
	matrix   int32
	warnings []string
}

func (p *program) Name() string       { return p.name }
func (p *program) Warnings() []string { return p.warnings }

func (p *program) Release() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

// NewProgram compiles and links src. Driver info logs of successful
// compiles and links become warnings; failures are *gpu.CompileError.
func (d *Device) NewProgram(src gpu.ProgramSource) (gpu.Program, error) {
	var warnings []string
	vs, log, err := compileShader(src.Name, "vertex", src.Vertex, gl.VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	warnings = appendLog(warnings, "vertex", log)
	fs, log, err := compileShader(src.Name, "fragment", src.Fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return nil, err
	}
	warnings = appendLog(warnings, "fragment", log)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.BindAttribLocation(id, locPos, gl.Str(gpu.AttribPos+"\x00"))
	gl.BindAttribLocation(id, locFaceColor, gl.Str(gpu.AttribFaceColor+"\x00"))
	gl.LinkProgram(id)
	gl.DetachShader(id, vs)
	gl.DetachShader(id, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	log = programLog(id)
	if status == gl.FALSE {
		gl.DeleteProgram(id)
		return nil, &gpu.CompileError{Program: src.Name, Stage: "link", Log: log}
	}
	warnings = appendLog(warnings, "link", log)

	// the driver only checks what it compiles; the interface checks
	// catch attributes and uniforms the renderer never feeds
	if _, _, iface, err := gpu.CheckProgram(src); err == nil {
		warnings = append(warnings, iface...)
	}

	return &program{
		name:     src.Name,
		id:       id,
		matrix:   gl.GetUniformLocation(id, gl.Str(gpu.UniformMatrix+"\x00")),
		warnings: warnings,
	}, nil
}

func compileShader(program, stage, source string, kind uint32) (uint32, string, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status, logLength int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	var log string
	if logLength > 0 {
		buf := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(buf))
		log = gl.GoStr(gl.Str(buf))
	}
	if status == gl.FALSE {
		gl.DeleteShader(shader)
		return 0, "", &gpu.CompileError{Program: program, Stage: stage, Log: log}
	}
	return shader, log, nil
}

func programLog(id uint32) string {
	var logLength int32
	gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
	if logLength <= 0 {
		return ""
	}
	buf := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(id, logLength, nil, gl.Str(buf))
	return gl.GoStr(gl.Str(buf))
}

func appendLog(warnings []string, stage, log string) []string {
	for _, line := range strings.Split(log, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			warnings = append(warnings, stage+": "+line)
		}
	}
	return warnings
}

type buffer struct {
	vao, vbo, ebo uint32
	vertexCap     int
	indexCap      int
}

// NewBuffer allocates a vertex array with room for vertexCap vertices and
// indexCap 16-bit indices.
func (d *Device) NewBuffer(vertexCap, indexCap int) (gpu.Buffer, error) {
	b := &buffer{vertexCap: vertexCap, indexCap: indexCap}
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	stride := int32(unsafe.Sizeof(gpu.Vertex{}))
	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, vertexCap*int(stride), nil, gl.DYNAMIC_DRAW)
	gl.EnableVertexAttribArray(locPos)
	gl.VertexAttribPointerWithOffset(locPos, 3, gl.FLOAT, false, stride, unsafe.Offsetof(gpu.Vertex{}.Pos))
	gl.EnableVertexAttribArray(locFaceColor)
	gl.VertexAttribPointerWithOffset(locFaceColor, 4, gl.UNSIGNED_BYTE, true, stride, unsafe.Offsetof(gpu.Vertex{}.Color))

	gl.GenBuffers(1, &b.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, indexCap*2, nil, gl.DYNAMIC_DRAW)

	gl.BindVertexArray(0)
	if code := gl.GetError(); code != gl.NO_ERROR {
		b.Release()
		return nil, fmt.Errorf("glgpu: allocate buffer: GL error 0x%x", code)
	}
	return b, nil
}

func (b *buffer) Upload(vertices []gpu.Vertex, indices []uint16) error {
	if len(vertices) > b.vertexCap || len(indices) > b.indexCap {
		return fmt.Errorf("%w: %d vertices, %d indices into %d/%d",
			gpu.ErrBufferOverflow, len(vertices), len(indices), b.vertexCap, b.indexCap)
	}
	gl.BindVertexArray(b.vao)
	if len(vertices) > 0 {
		gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*int(unsafe.Sizeof(gpu.Vertex{})), gl.Ptr(vertices))
	}
	if len(indices) > 0 {
		gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER, 0, len(indices)*2, gl.Ptr(indices))
	}
	gl.BindVertexArray(0)
	return nil
}

func (b *buffer) Cap() (vertices, indices int) { return b.vertexCap, b.indexCap }

func (b *buffer) Release() {
	if b.ebo != 0 {
		gl.DeleteBuffers(1, &b.ebo)
	}
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
	}
	b.vao, b.vbo, b.ebo = 0, 0, 0
}

// Clear clears the selected planes inside rect, scissored so the rest of
// the framebuffer is kept.
func (d *Device) Clear(fb gpu.Framebuffer, rect image.Rectangle, mask gpu.ClearMask, c color.RGBA) {
	x, y, w, h := glRect(rect, fb.Bounds())
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(x, y, w, h)

	var bits uint32
	if mask&gpu.ClearColor != 0 {
		gl.ColorMask(true, true, true, true)
		gl.ClearColor(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255)
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gpu.ClearDepth != 0 {
		gl.DepthMask(true)
		gl.ClearDepth(1)
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if mask&gpu.ClearStencil != 0 {
		gl.StencilMask(0xff)
		gl.ClearStencil(0)
		bits |= gl.STENCIL_BUFFER_BIT
	}
	gl.Clear(bits)
	gl.Disable(gl.SCISSOR_TEST)
}

// Draw applies dr.State and issues an indexed draw.
func (d *Device) Draw(fb gpu.Framebuffer, dr gpu.Draw) {
	prog, ok := dr.Program.(*program)
	if !ok {
		panic(fmt.Sprintf("glgpu: foreign program %T", dr.Program))
	}
	buf, ok := dr.Buffer.(*buffer)
	if !ok {
		panic(fmt.Sprintf("glgpu: foreign buffer %T", dr.Buffer))
	}
	if prog.id == 0 || buf.vao == 0 {
		return
	}

	applyState(dr.State, fb.Bounds())
	gl.UseProgram(prog.id)
	if prog.matrix >= 0 {
		m := dr.Uniforms.TransformMatrix.Float32()
		gl.UniformMatrix4fv(prog.matrix, 1, false, &m[0])
	}
	gl.BindVertexArray(buf.vao)
	mode := uint32(gl.TRIANGLES)
	if dr.Mode == gpu.Lines {
		mode = gl.LINES
	}
	gl.DrawElements(mode, int32(min(dr.Count, buf.indexCap)), gl.UNSIGNED_SHORT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}
