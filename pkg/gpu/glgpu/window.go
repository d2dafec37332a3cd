package glgpu

import (
	"fmt"
	"image"
	"runtime"
	"unicode"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// glfw and GL calls must stay on the main thread
	runtime.LockOSThread()
}

// Window is a glfw window with a GL 4.1 core context. It is the default
// framebuffer for Device and queues its input as terminal events so the
// same input.Controller drives both front ends.
type Window struct {
	win    *glfw.Window
	events []uv.Event
}

// OpenWindow initializes glfw and GL and opens a window of the given
// size in screen coordinates. Close must be called to release glfw.
func OpenWindow(width, height int, title string) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glgpu: init glfw: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.StencilBits, 8)
	glfw.WindowHint(glfw.SRGBCapable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("glgpu: create window: %w", err)
	}
	win.MakeContextCurrent()
	glfw.SwapInterval(1)
	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("glgpu: init gl: %w", err)
	}

	w := &Window{win: win}
	win.SetKeyCallback(w.onKey)
	win.SetMouseButtonCallback(w.onMouseButton)
	win.SetCursorPosCallback(w.onCursor)
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.events = append(w.events, uv.WindowSizeEvent{Width: width, Height: height})
	})
	return w, nil
}

// Bounds is the framebuffer size in pixels, which differs from the window
// size on high density displays.
func (w *Window) Bounds() image.Rectangle {
	width, height := w.win.GetFramebufferSize()
	return image.Rect(0, 0, width, height)
}

// Poll processes pending window events and returns them translated.
func (w *Window) Poll() []uv.Event {
	glfw.PollEvents()
	evs := w.events
	w.events = nil
	return evs
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool { return w.win.ShouldClose() }

// SetShouldClose flags the window for closing.
func (w *Window) SetShouldClose() { w.win.SetShouldClose(true) }

// Swap presents the frame.
func (w *Window) Swap() { w.win.SwapBuffers() }

// Close destroys the window and terminates glfw.
func (w *Window) Close() {
	w.win.Destroy()
	glfw.Terminate()
}

func (w *Window) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
	code := keyCode(key)
	if code == 0 {
		return
	}
	k := uv.Key{Code: code, Mod: keyMod(mods)}
	switch action {
	case glfw.Press, glfw.Repeat:
		w.events = append(w.events, uv.KeyPressEvent(k))
	case glfw.Release:
		w.events = append(w.events, uv.KeyReleaseEvent(k))
	}
}

func (w *Window) onMouseButton(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	x, y := w.win.GetCursorPos()
	switch action {
	case glfw.Press:
		w.events = append(w.events, uv.MouseClickEvent{X: int(x), Y: int(y), Button: mouseButton(button)})
	case glfw.Release:
		w.events = append(w.events, uv.MouseReleaseEvent{X: int(x), Y: int(y), Button: mouseButton(button)})
	}
}

func (w *Window) onCursor(_ *glfw.Window, x, y float64) {
	w.events = append(w.events, uv.MouseMotionEvent{X: int(x), Y: int(y)})
}

func mouseButton(b glfw.MouseButton) uv.MouseButton {
	switch b {
	case glfw.MouseButtonLeft:
		return uv.MouseLeft
	case glfw.MouseButtonRight:
		return uv.MouseRight
	case glfw.MouseButtonMiddle:
		return uv.MouseMiddle
	}
	return uv.MouseNone
}

func keyMod(m glfw.ModifierKey) uv.KeyMod {
	var mod uv.KeyMod
	if m&glfw.ModShift != 0 {
		mod |= uv.ModShift
	}
	if m&glfw.ModControl != 0 {
		mod |= uv.ModCtrl
	}
	if m&glfw.ModAlt != 0 {
		mod |= uv.ModAlt
	}
	return mod
}

// keyCode maps a glfw key to the code a terminal would report for it.
// glfw reports printable keys by their upper-case ASCII value.
func keyCode(k glfw.Key) rune {
	switch k {
	case glfw.KeyEscape:
		return uv.KeyEscape
	case glfw.KeyEnter:
		return uv.KeyEnter
	case glfw.KeyUp:
		return uv.KeyUp
	case glfw.KeyDown:
		return uv.KeyDown
	case glfw.KeyLeft:
		return uv.KeyLeft
	case glfw.KeyRight:
		return uv.KeyRight
	case glfw.KeyLeftShift:
		return uv.KeyLeftShift
	case glfw.KeyRightShift:
		return uv.KeyRightShift
	case glfw.KeyLeftControl:
		return uv.KeyLeftCtrl
	case glfw.KeyRightControl:
		return uv.KeyRightCtrl
	case glfw.KeyLeftAlt:
		return uv.KeyLeftAlt
	case glfw.KeyRightAlt:
		return uv.KeyRightAlt
	}
	if k >= glfw.KeySpace && k <= glfw.KeyGraveAccent {
		return unicode.ToLower(rune(k))
	}
	return 0
}
