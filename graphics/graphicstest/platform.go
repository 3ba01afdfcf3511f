// Package graphicstest provides an in-memory graphics.Platform for tests.
package graphicstest

import (
	"errors"
	"sync"

	"github.com/richinsley/twinscreen/graphics"
)

// Platform is a fake windowing subsystem. It tracks which window's context
// is current so tests can assert on binding discipline.
type Platform struct {
	mu sync.Mutex

	// Failure injection.
	InitErr error
	// FailWindow makes the n-th CreateWindow call (1-based) fail.
	FailWindow int
	// MaxVersion caps negotiable context versions; zero means unlimited.
	MaxMajor, MaxMinor int

	Now float64

	initialized bool
	terminated  int
	polls       int
	created     int
	nextHandle  uintptr
	current     *Window
	windows     []*Window
}

func New() *Platform {
	return &Platform{nextHandle: 0x1000}
}

func (p *Platform) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.InitErr != nil {
		return p.InitErr
	}
	p.initialized = true
	return nil
}

func (p *Platform) Terminate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initialized = false
	p.terminated++
	p.current = nil
}

func (p *Platform) CreateWindow(spec graphics.WindowSpec, share graphics.Window) (graphics.Window, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return nil, errors.New("graphicstest: platform not initialized")
	}
	p.created++
	if p.FailWindow == p.created {
		return nil, errors.New("graphicstest: window creation failed")
	}
	if p.MaxMajor > 0 && (spec.Major > p.MaxMajor || (spec.Major == p.MaxMajor && spec.Minor > p.MaxMinor)) {
		return nil, errors.New("graphicstest: context version unavailable")
	}
	w := &Window{
		platform: p,
		spec:     spec,
		handle:   p.nextHandle,
		width:    spec.Width,
		height:   spec.Height,
		keys:     make(map[graphics.Key]bool),
	}
	p.nextHandle += 0x100
	if share != nil {
		sw, ok := share.(*Window)
		if !ok {
			return nil, errors.New("graphicstest: foreign share window")
		}
		w.SharedWith = sw
	}
	p.windows = append(p.windows, w)
	return w, nil
}

func (p *Platform) PollEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polls++
	for _, w := range p.windows {
		w.pending = append(w.pending, w.injected...)
		w.injected = nil
	}
}

func (p *Platform) DetachCurrent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
}

func (p *Platform) Time() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Now
}

// Advance moves the fake clock forward.
func (p *Platform) Advance(seconds float64) {
	p.mu.Lock()
	p.Now += seconds
	p.mu.Unlock()
}

// Current returns the window whose context is current, or nil.
func (p *Platform) Current() *Window {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// HasCurrent reports whether any context is current.
func (p *Platform) HasCurrent() bool {
	return p.Current() != nil
}

// Windows returns every window created so far, destroyed ones included.
func (p *Platform) Windows() []*Window {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Window(nil), p.windows...)
}

func (p *Platform) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

func (p *Platform) Terminations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

func (p *Platform) Polls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}

// Window is a fake native window.
type Window struct {
	platform *Platform
	spec     graphics.WindowSpec
	handle   uintptr

	SharedWith *Window

	width, height int
	shouldClose   bool
	destroyed     bool
	swaps         int
	keys          map[graphics.Key]bool
	injected      []graphics.Event
	pending       []graphics.Event
}

func (w *Window) MakeCurrent() {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	w.platform.current = w
}

func (w *Window) SwapBuffers() {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	w.swaps++
}

func (w *Window) ShouldClose() bool { return w.shouldClose }

func (w *Window) SetShouldClose(v bool) { w.shouldClose = v }

func (w *Window) DrainEvents() []graphics.Event {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	ev := w.pending
	w.pending = nil
	return ev
}

func (w *Window) GetFramebufferSize() (int, int) { return w.width, w.height }

func (w *Window) ContextVersion() (int, int) { return w.spec.Major, w.spec.Minor }

func (w *Window) Handle() uintptr { return w.handle }

func (w *Window) KeyPressed(key graphics.Key) bool { return w.keys[key] }

func (w *Window) Destroy() {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	w.destroyed = true
	if w.platform.current == w {
		w.platform.current = nil
	}
}

// Inject queues an event that becomes visible after the next PollEvents.
func (w *Window) Inject(ev graphics.Event) {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	if ev.Kind == graphics.EventResize {
		w.width, w.height = ev.Width, ev.Height
	}
	w.injected = append(w.injected, ev)
}

// SetKey sets the pressed state of a key.
func (w *Window) SetKey(key graphics.Key, down bool) { w.keys[key] = down }

func (w *Window) Spec() graphics.WindowSpec { return w.spec }

func (w *Window) Swaps() int {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	return w.swaps
}

func (w *Window) Destroyed() bool {
	w.platform.mu.Lock()
	defer w.platform.mu.Unlock()
	return w.destroyed
}
