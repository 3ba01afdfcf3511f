// Package glfwcontext implements the windowing platform on GLFW.
package glfwcontext

import (
	"fmt"
	"log"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/twinscreen/graphics"
)

// Platform owns the GLFW library. Every method must run on the thread that
// called Init.
type Platform struct {
	thread graphics.ThreadLock
}

func New() *Platform { return &Platform{} }

// Init initializes GLFW and pins the calling goroutine to its thread.
func (p *Platform) Init() error {
	p.thread.Lock()
	if err := glfw.Init(); err != nil {
		p.thread.Unlock()
		return err
	}
	log.Printf("GLFW Initialized")
	return nil
}

// Terminate shuts GLFW down and releases the thread pinned by Init.
func (p *Platform) Terminate() {
	glfw.Terminate()
	p.thread.Unlock()
	log.Printf("GLFW Terminated")
}

func (p *Platform) PollEvents() { glfw.PollEvents() }

// DetachCurrent makes no context current on the calling thread.
func (p *Platform) DetachCurrent() { glfw.DetachCurrentContext() }

func (p *Platform) Time() float64 { return glfw.GetTime() }

// CreateWindow creates a window and its context. A non-nil share must be a
// window from this platform.
func (p *Platform) CreateWindow(spec graphics.WindowSpec, share graphics.Window) (graphics.Window, error) {
	var shareWindow *glfw.Window
	if share != nil {
		sw, ok := share.(*Window)
		if !ok {
			return nil, fmt.Errorf("glfw: cannot share with %T", share)
		}
		shareWindow = sw.window
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ContextVersionMajor, spec.Major)
	glfw.WindowHint(glfw.ContextVersionMinor, spec.Minor)
	if spec.CoreProfile {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}
	glfw.WindowHint(glfw.Resizable, boolHint(spec.Resizable))
	glfw.WindowHint(glfw.Visible, boolHint(spec.Visible))

	var monitor *glfw.Monitor
	if spec.Monitor >= 0 {
		monitors := glfw.GetMonitors()
		if spec.Monitor >= len(monitors) {
			return nil, fmt.Errorf("glfw: monitor %d requested, %d connected", spec.Monitor, len(monitors))
		}
		monitor = monitors[spec.Monitor]
	}

	win, err := glfw.CreateWindow(spec.Width, spec.Height, spec.Title, monitor, shareWindow)
	if err != nil {
		return nil, err
	}

	w := &Window{window: win, vsync: spec.VSync}
	win.SetKeyCallback(w.keyCallback)
	win.SetCloseCallback(func(*glfw.Window) {
		w.events = append(w.events, graphics.Event{Kind: graphics.EventClose})
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.events = append(w.events, graphics.Event{Kind: graphics.EventResize, Width: width, Height: height})
	})
	return w, nil
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

// Window is a GLFW window with its OpenGL context.
type Window struct {
	window       *glfw.Window
	events       []graphics.Event
	vsync        bool
	swapInterval bool
}

// keyCallback buffers key events. Escape requests close.
func (w *Window) keyCallback(win *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		win.SetShouldClose(true)
	}
	w.events = append(w.events, graphics.Event{
		Kind:   graphics.EventKey,
		Key:    graphics.Key(key),
		Action: graphics.Action(action),
	})
}

// MakeCurrent makes the context current for the calling thread. The swap
// interval is per context, so it is applied on first bind.
func (w *Window) MakeCurrent() {
	w.window.MakeContextCurrent()
	if !w.swapInterval {
		if w.vsync {
			glfw.SwapInterval(1)
		} else {
			glfw.SwapInterval(0)
		}
		w.swapInterval = true
	}
}

func (w *Window) SwapBuffers()          { w.window.SwapBuffers() }
func (w *Window) ShouldClose() bool     { return w.window.ShouldClose() }
func (w *Window) SetShouldClose(b bool) { w.window.SetShouldClose(b) }

func (w *Window) DrainEvents() []graphics.Event {
	events := w.events
	w.events = nil
	return events
}

func (w *Window) GetFramebufferSize() (int, int) { return w.window.GetFramebufferSize() }

func (w *Window) ContextVersion() (int, int) {
	return w.window.GetAttrib(glfw.ContextVersionMajor), w.window.GetAttrib(glfw.ContextVersionMinor)
}

func (w *Window) Handle() uintptr { return uintptr(w.window.Handle()) }

func (w *Window) KeyPressed(key graphics.Key) bool {
	return w.window.GetKey(glfw.Key(key)) == glfw.Press
}

func (w *Window) Destroy() { w.window.Destroy() }
