// Package gputest provides a gpu.Device that records every command
// instead of drawing, for asserting exact draw sequences.
package gputest

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"

	"github.com/taigrr/emcee/pkg/gpu"
)

// Framebuffer is a draw target with only a size.
type Framebuffer struct {
	Size image.Point
}

// Bounds implements gpu.Framebuffer.
func (f *Framebuffer) Bounds() image.Rectangle {
	return image.Rectangle{Max: f.Size}
}

// Program is a recorded program.
type Program struct {
	Source   gpu.ProgramSource
	Released bool
	warnings []string
}

func (p *Program) Name() string       { return p.Source.Name }
func (p *Program) Warnings() []string { return p.warnings }
func (p *Program) Release()           { p.Released = true }

// Buffer is a recorded buffer. Vertices and Indices hold the last upload.
type Buffer struct {
	ID        int
	VertexCap int
	IndexCap  int
	Vertices  []gpu.Vertex
	Indices   []uint16
	Uploads   int
	Released  bool
}

func (b *Buffer) Upload(vertices []gpu.Vertex, indices []uint16) error {
	if len(vertices) > b.VertexCap || len(indices) > b.IndexCap {
		return fmt.Errorf("%w: buffer %d", gpu.ErrBufferOverflow, b.ID)
	}
	b.Vertices = slices.Clone(vertices)
	b.Indices = slices.Clone(indices)
	b.Uploads++
	return nil
}

func (b *Buffer) Cap() (vertices, indices int) { return b.VertexCap, b.IndexCap }
func (b *Buffer) Release()                     { b.Released = true }

// Clear is a recorded Clear call.
type Clear struct {
	Rect image.Rectangle
	Mask gpu.ClearMask
}

// DrawCall is a recorded Draw call. Vertices and Indices are copies of
// the buffer contents at the time of the draw.
type DrawCall struct {
	gpu.Draw
	Vertices []gpu.Vertex
	Indices  []uint16
}

// Device records commands. Set the Fail fields to make resource creation
// fail.
type Device struct {
	Bits int

	FailProgram map[string]error // by program name
	FailBuffer  error

	Programs []*Program
	Buffers  []*Buffer
	Clears   []Clear
	Draws    []DrawCall
}

var _ gpu.Device = (*Device)(nil)

// ErrInjected is a resource failure configured on the Device.
var ErrInjected = errors.New("gputest: injected failure")

// NewDevice returns a recording device with an 8-bit stencil.
func NewDevice() *Device {
	return &Device{Bits: 8}
}

func (d *Device) StencilBits() int { return d.Bits }

// NewProgram validates src like a driver would and records it.
func (d *Device) NewProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if err, ok := d.FailProgram[src.Name]; ok {
		return nil, err
	}
	_, _, warnings, err := gpu.CheckProgram(src)
	if err != nil {
		return nil, err
	}
	p := &Program{Source: src, warnings: warnings}
	d.Programs = append(d.Programs, p)
	return p, nil
}

func (d *Device) NewBuffer(vertexCap, indexCap int) (gpu.Buffer, error) {
	if d.FailBuffer != nil {
		return nil, d.FailBuffer
	}
	b := &Buffer{ID: len(d.Buffers), VertexCap: vertexCap, IndexCap: indexCap}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) Clear(_ gpu.Framebuffer, rect image.Rectangle, mask gpu.ClearMask, _ color.RGBA) {
	d.Clears = append(d.Clears, Clear{Rect: rect, Mask: mask})
}

func (d *Device) Draw(_ gpu.Framebuffer, dr gpu.Draw) {
	call := DrawCall{Draw: dr}
	if b, ok := dr.Buffer.(*Buffer); ok {
		call.Vertices = slices.Clone(b.Vertices)
		call.Indices = slices.Clone(b.Indices)
	}
	d.Draws = append(d.Draws, call)
}

// Reset forgets recorded commands but keeps resources.
func (d *Device) Reset() {
	d.Clears = nil
	d.Draws = nil
}
