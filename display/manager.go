package display

import (
	"errors"
	"fmt"
	"log"

	"github.com/richinsley/twinscreen/frameclock"
	"github.com/richinsley/twinscreen/gpu"
	"github.com/richinsley/twinscreen/graphics"
)

// Manager holds the two displays. It is the only thing that changes which
// context is current, and it records that explicitly in Current.
//
// All methods must be called from the thread that called Init.
type Manager struct {
	platform graphics.Platform
	dev      gpu.Device
	cfg      Config

	initialized bool
	displays    [2]*Display
	current     graphics.Screen
	version     Version
	clock       *frameclock.Clock
}

func New(platform graphics.Platform, dev gpu.Device, cfg Config) *Manager {
	return &Manager{platform: platform, dev: dev, cfg: cfg}
}

// Init creates the upper display, loads the graphics API against its
// context, then creates the lower display sharing upper's namespace. On
// failure everything created so far is torn down.
func (m *Manager) Init() error {
	if m.initialized {
		return ErrAlreadyInitialized
	}
	if len(m.cfg.Versions) == 0 {
		return &InitializationError{Stage: "config", Err: ErrNoContextVersion}
	}

	if err := m.platform.Init(); err != nil {
		return &InitializationError{Stage: "platform", Err: err}
	}

	upper := &Display{screen: graphics.Upper}
	lower := &Display{screen: graphics.Lower}
	loaded := false
	fail := func(stage string, err error) error {
		m.detach()
		if lower.window != nil {
			lower.window.Destroy()
		}
		if upper.window != nil {
			upper.window.Destroy()
		}
		if loaded {
			m.dev.Terminate()
		}
		m.platform.Terminate()
		m.current = graphics.NoScreen
		return &InitializationError{Stage: stage, Err: err}
	}

	var errs []error
	for _, v := range m.cfg.Versions {
		w, err := m.platform.CreateWindow(upper.spec(m.cfg, v), nil)
		if err != nil {
			log.Printf("Context %d.%d unavailable: %v", v.Major, v.Minor, err)
			errs = append(errs, err)
			continue
		}
		upper.window = w
		m.version = v
		break
	}
	if upper.window == nil {
		return fail("upper window", fmt.Errorf("%w: %w", ErrNoContextVersion, errors.Join(errs...)))
	}

	upper.window.MakeCurrent()
	if err := m.dev.Init(); err != nil {
		return fail("graphics loader", err)
	}
	loaded = true
	m.dev.SetContext(int(graphics.Upper))
	m.resetViewport(upper)

	w, err := m.platform.CreateWindow(lower.spec(m.cfg, m.version), upper.window)
	if err != nil {
		return fail("lower window", err)
	}
	lower.window = w

	umaj, umin := upper.window.ContextVersion()
	lmaj, lmin := lower.window.ContextVersion()
	if umaj != lmaj || umin != lmin {
		return fail("lower window", fmt.Errorf("context version %d.%d differs from upper %d.%d", lmaj, lmin, umaj, umin))
	}

	m.bind(lower)
	m.resetViewport(lower)
	m.detach()

	m.displays = [2]*Display{upper, lower}
	m.current = graphics.NoScreen
	m.clock = frameclock.New(m.platform.Time)
	m.initialized = true
	log.Printf("Displays initialized with OpenGL %d.%d (upper %dx%d, lower %dx%d)",
		umaj, umin, upper.width, upper.height, lower.width, lower.height)
	return nil
}

// bind makes d's context current and tells the device which one it is.
func (m *Manager) bind(d *Display) {
	d.window.MakeCurrent()
	m.dev.SetContext(int(d.screen))
}

func (m *Manager) detach() {
	m.platform.DetachCurrent()
	m.dev.SetContext(gpu.NoContext)
}

// resetViewport applies d's framebuffer size. d's context must be current.
func (m *Manager) resetViewport(d *Display) {
	d.width, d.height = d.window.GetFramebufferSize()
	m.dev.Viewport(0, 0, int32(d.width), int32(d.height))
	m.dev.EnableDepthTest()
	d.viewportStale = false
}

// Deinit releases both displays, the loader state and the platform. It is
// a no-op when uninitialized.
func (m *Manager) Deinit() {
	if !m.initialized {
		return
	}
	m.detach()
	m.current = graphics.NoScreen
	m.displays[1].window.Destroy()
	m.displays[0].window.Destroy()
	m.dev.Terminate()
	m.platform.Terminate()
	m.displays = [2]*Display{}
	m.initialized = false
	log.Println("Displays destroyed")
}

func (m *Manager) Initialized() bool { return m.initialized }

// Current reports which screen's context is bound.
func (m *Manager) Current() graphics.Screen { return m.current }

// Version is the negotiated context version requested of both displays.
func (m *Manager) Version() Version { return m.version }

// ShouldClose is true once either display has been asked to close.
func (m *Manager) ShouldClose() bool {
	if !m.initialized {
		return false
	}
	return m.displays[0].shouldClose || m.displays[1].shouldClose
}

// RequestClose sets both displays' close flags.
func (m *Manager) RequestClose() {
	for _, d := range m.displays {
		if d != nil {
			d.shouldClose = true
		}
	}
}

// HandleEvents polls once and drains both displays. It must run once per
// frame with no screen bound.
func (m *Manager) HandleEvents() error {
	if !m.initialized {
		return notInitialized()
	}
	if m.current != graphics.NoScreen {
		return fmt.Errorf("handle events with %s bound: %w", m.current, ErrScreenActive)
	}
	m.clock.Tick()
	m.platform.PollEvents()
	for _, d := range m.displays {
		d.events = d.window.DrainEvents()
		for _, ev := range d.events {
			switch ev.Kind {
			case graphics.EventClose:
				d.shouldClose = true
			case graphics.EventResize:
				d.width, d.height = ev.Width, ev.Height
				d.viewportStale = true
			}
		}
		if d.window.ShouldClose() {
			d.shouldClose = true
		}
	}
	return nil
}

// KeyPressed reports whether key is held on either window.
func (m *Manager) KeyPressed(key graphics.Key) bool {
	if !m.initialized {
		return false
	}
	return m.displays[0].window.KeyPressed(key) || m.displays[1].window.KeyPressed(key)
}

// Begin makes screen's context current and starts its frame segment.
func (m *Manager) Begin(screen graphics.Screen) error {
	if !m.initialized {
		return notInitialized()
	}
	if screen != graphics.Upper && screen != graphics.Lower {
		return fmt.Errorf("begin %s: %w", screen, ErrInvalidScreen)
	}
	if m.current != graphics.NoScreen {
		return fmt.Errorf("begin %s with %s bound: %w", screen, m.current, ErrScreenActive)
	}
	d := m.displays[screen.Index()]
	m.bind(d)
	m.current = screen
	if d.viewportStale {
		m.dev.Viewport(0, 0, int32(d.width), int32(d.height))
		d.viewportStale = false
	}
	m.clock.Begin(screen)
	return nil
}

// End presents screen, records the segment's elapsed time as the delta
// and leaves no context current.
func (m *Manager) End(screen graphics.Screen) error {
	if !m.initialized {
		return notInitialized()
	}
	if screen != graphics.Upper && screen != graphics.Lower {
		return fmt.Errorf("end %s: %w", screen, ErrInvalidScreen)
	}
	if m.current != screen {
		return fmt.Errorf("end %s with %s bound: %w", screen, m.current, ErrScreenNotActive)
	}
	m.displays[screen.Index()].window.SwapBuffers()
	m.clock.End(screen)
	m.detach()
	m.current = graphics.NoScreen
	return nil
}

func (m *Manager) BeginUpperScreen() error { return m.Begin(graphics.Upper) }
func (m *Manager) EndUpperScreen() error   { return m.End(graphics.Upper) }
func (m *Manager) BeginLowerScreen() error { return m.Begin(graphics.Lower) }
func (m *Manager) EndLowerScreen() error   { return m.End(graphics.Lower) }

// Clear clears the bound screen's color and depth buffers.
func (m *Manager) Clear(r, g, b, a float32) error {
	if !m.initialized {
		return notInitialized()
	}
	if m.current == graphics.NoScreen {
		return fmt.Errorf("clear: %w", ErrScreenNotActive)
	}
	m.dev.Clear(r, g, b, a)
	return nil
}

// Display returns the display for screen, or nil before Init.
func (m *Manager) Display(screen graphics.Screen) *Display {
	if !m.initialized || (screen != graphics.Upper && screen != graphics.Lower) {
		return nil
	}
	return m.displays[screen.Index()]
}

// Aspect is screen's framebuffer width over height.
func (m *Manager) Aspect(screen graphics.Screen) float32 {
	d := m.Display(screen)
	if d == nil {
		return 1
	}
	return d.Aspect()
}

// Delta is the elapsed time of the last completed frame segment.
func (m *Manager) Delta() float64 {
	if m.clock == nil {
		return 0
	}
	return m.clock.Delta()
}

func (m *Manager) Time() float64 { return m.platform.Time() }

func (m *Manager) Clock() *frameclock.Clock { return m.clock }

// Namespace returns the token resource creation binds through.
func (m *Manager) Namespace() *Namespace { return &Namespace{m: m} }

// Namespace is the resource namespace shared by both displays. Acquire
// binds the upper context when nothing is bound, since upper created it.
type Namespace struct {
	m *Manager
}

func (n *Namespace) Acquire() (func(), error) {
	m := n.m
	if !m.initialized {
		return nil, notInitialized()
	}
	if m.current != graphics.NoScreen {
		return func() {}, nil
	}
	m.bind(m.displays[0])
	m.current = graphics.Upper
	return func() {
		m.detach()
		m.current = graphics.NoScreen
	}, nil
}
