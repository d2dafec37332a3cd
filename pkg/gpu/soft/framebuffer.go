// Package soft is a software gpu.Device. It rasterizes into an in-memory
// framebuffer with color, depth and 8-bit stencil planes, which can be
// shown in a terminal or written out as a PNG.
package soft

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/taigrr/emcee/pkg/gpu"
)

// Framebuffer is a color buffer with depth and stencil planes.
// For terminal output the height is twice the row count, one pixel per
// half-block.
type Framebuffer struct {
	Width   int
	Height  int
	Pixels  []color.RGBA // row-major
	Depth   []float64    // window depth in [0, 1]
	Stencil []uint8
}

// NewFramebuffer creates a framebuffer with cleared depth and stencil.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		Width:   width,
		Height:  height,
		Pixels:  make([]color.RGBA, width*height),
		Depth:   make([]float64, width*height),
		Stencil: make([]uint8, width*height),
	}
	fb.ClearRect(fb.Bounds(), gpu.ClearDepth, color.RGBA{})
	return fb
}

// Bounds returns the pixel rectangle of the framebuffer.
func (fb *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// Resize reallocates the planes when the size changed.
func (fb *Framebuffer) Resize(width, height int) {
	if width == fb.Width && height == fb.Height {
		return
	}
	*fb = *NewFramebuffer(width, height)
}

// Clear fills the color plane with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// ClearRect resets the selected planes inside r. Depth clears to the far
// plane and stencil to zero.
func (fb *Framebuffer) ClearRect(r image.Rectangle, mask gpu.ClearMask, c color.RGBA) {
	r = r.Intersect(fb.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * fb.Width
		for x := r.Min.X; x < r.Max.X; x++ {
			i := row + x
			if mask&gpu.ClearColor != 0 {
				fb.Pixels[i] = c
			}
			if mask&gpu.ClearDepth != 0 {
				fb.Depth[i] = 1
			}
			if mask&gpu.ClearStencil != 0 {
				fb.Stencil[i] = 0
			}
		}
	}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// StencilAt returns the stencil value at (x, y), zero out of bounds.
func (fb *Framebuffer) StencilAt(x, y int) uint8 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return 0
	}
	return fb.Stencil[y*fb.Width+x]
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(fb.Bounds())
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
