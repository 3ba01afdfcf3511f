// Package engine runs the dual-screen frame loop: it owns the displays, the
// shared resource registry and the scenes, and renders the current scene to
// both screens every frame.
package engine

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/richinsley/twinscreen/capture"
	"github.com/richinsley/twinscreen/config"
	"github.com/richinsley/twinscreen/display"
	"github.com/richinsley/twinscreen/gpu"
	"github.com/richinsley/twinscreen/graphics"
	"github.com/richinsley/twinscreen/resource"
	"github.com/richinsley/twinscreen/scene"
	"github.com/richinsley/twinscreen/shader"
	"github.com/richinsley/twinscreen/translator"
)

var (
	ErrNotInitialized = errors.New("engine not initialized")
	ErrNoMainScene    = errors.New("no main scene was set")
	ErrUnknownScene   = errors.New("unknown scene")
)

// Recorder receives the frames of one screen.
type Recorder interface {
	WriteFrame(pixels []byte) error
	Close() error
}

type RecorderFactory func(capture.Settings) (Recorder, error)

type Option func(*Engine)

// WithTranslator sets the GLSL ES translator used for ES shader files.
// By default one is created for the negotiated context version.
func WithTranslator(t resource.SourceTranslator) Option {
	return func(e *Engine) { e.translator = t }
}

// WithRecorderFactory replaces the ffmpeg recorder.
func WithRecorderFactory(f RecorderFactory) Option {
	return func(e *Engine) { e.newRecorder = f }
}

type Engine struct {
	cfg         *config.Config
	platform    graphics.Platform
	dev         gpu.Device
	translator  resource.SourceTranslator
	newRecorder RecorderFactory

	initialized bool
	displays    *display.Manager
	res         *resource.Manager
	shader      *resource.Shader
	target      *renderTarget
	recorders   [2]Recorder
	watcher     *shaderWatcher

	scenes  map[uuid.UUID]*scene.Scene
	order   []uuid.UUID
	main    uuid.UUID
	current uuid.UUID

	renderErrs [2]error
	frames     int
}

func New(cfg *config.Config, platform graphics.Platform, dev gpu.Device, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		platform: platform,
		dev:      dev,
		newRecorder: func(s capture.Settings) (Recorder, error) {
			return capture.NewRecorder(s)
		},
		scenes: make(map[uuid.UUID]*scene.Scene),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init creates both displays, the resource registry, the shader and any
// capture recorders. On failure everything is torn down and Init may be
// called again.
func (e *Engine) Init() (err error) {
	if e.initialized {
		return display.ErrAlreadyInitialized
	}
	e.displays = display.New(e.platform, e.dev, e.cfg.Display())
	if err := e.displays.Init(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			e.teardown()
		}
	}()

	v := e.displays.Version()
	log.Printf("%s: displays ready with OpenGL %d.%d", e.cfg.ApplicationName, v.Major, v.Minor)

	opts := []resource.Option{
		resource.WithFilter(e.cfg.Filter()),
		resource.WithVerbose(e.cfg.Log.Verbose),
	}
	if e.cfg.Shaders.ES {
		if e.translator == nil {
			e.translator = translator.New(v.Major, v.Minor)
		}
		opts = append(opts, resource.WithTranslator(e.translator))
	}
	e.res = resource.NewManager(e.dev, e.displays.Namespace(), opts...)
	e.target = &renderTarget{displays: e.displays, res: e.res}

	if e.shader, err = e.loadShader(); err != nil {
		return err
	}
	if err = e.startCapture(); err != nil {
		return err
	}
	if e.cfg.Shaders.Watch {
		if e.watcher, err = watchShaders(e.cfg.Shaders.Vertex, e.cfg.Shaders.Fragment); err != nil {
			return err
		}
	}
	e.initialized = true
	return nil
}

// loadShader compiles the configured shader files, or the built-in lit
// textured shader for the negotiated version.
func (e *Engine) loadShader() (*resource.Shader, error) {
	if e.cfg.Shaders.Vertex == "" {
		v := e.displays.Version()
		return e.res.CreateShader(shader.VertexSource(v.Major, v.Minor), shader.FragmentSource(v.Major, v.Minor))
	}
	vs, err := os.ReadFile(e.cfg.Shaders.Vertex)
	if err != nil {
		return nil, &resource.LoadError{Source: e.cfg.Shaders.Vertex, Err: err}
	}
	fs, err := os.ReadFile(e.cfg.Shaders.Fragment)
	if err != nil {
		return nil, &resource.LoadError{Source: e.cfg.Shaders.Fragment, Err: err}
	}
	if e.cfg.Shaders.ES {
		return e.res.CreateShaderES(string(vs), string(fs))
	}
	return e.res.CreateShader(string(vs), string(fs))
}

func (e *Engine) startCapture() error {
	paths := [2]string{e.cfg.Capture.Upper, e.cfg.Capture.Lower}
	for i, screen := range graphics.Screens {
		if paths[i] == "" {
			continue
		}
		w, h := e.displays.Display(screen).Size()
		rec, err := e.newRecorder(capture.Settings{
			Path:       paths[i],
			Width:      w,
			Height:     h,
			FPS:        e.cfg.Capture.FPS,
			Codec:      e.cfg.Capture.Codec,
			FFmpegPath: e.cfg.Capture.FFmpegPath,
		})
		if err != nil {
			return fmt.Errorf("capture %s screen: %w", screen, err)
		}
		e.recorders[i] = rec
	}
	return nil
}

func (e *Engine) teardown() {
	if e.watcher != nil {
		e.watcher.Close()
		e.watcher = nil
	}
	for i, rec := range e.recorders {
		if rec == nil {
			continue
		}
		if err := rec.Close(); err != nil {
			log.Printf("Error closing %s screen capture: %v", graphics.Screens[i], err)
		}
		e.recorders[i] = nil
	}
	if e.res != nil {
		if err := e.res.Release(); err != nil {
			log.Printf("Error releasing resources: %v", err)
		}
		e.res = nil
	}
	e.shader = nil
	e.target = nil
	if e.displays != nil {
		e.displays.Deinit()
	}
	e.renderErrs = [2]error{}
}

// Close releases recorders, resources and displays. Scenes are kept.
// Calling Close again is a no-op.
func (e *Engine) Close() {
	if !e.initialized {
		return
	}
	e.initialized = false
	e.teardown()
	log.Printf("%s: closed after %d frames", e.cfg.ApplicationName, e.frames)
}

func (e *Engine) Initialized() bool { return e.initialized }

// Displays exposes the display manager. Nil before Init.
func (e *Engine) Displays() *display.Manager { return e.displays }

// Resources exposes the resource registry. Nil before Init.
func (e *Engine) Resources() *resource.Manager { return e.res }

// Shader is the program every scene renders with.
func (e *Engine) Shader() *resource.Shader { return e.shader }

func (e *Engine) Frames() int { return e.frames }

// CreateScene registers a new empty scene.
func (e *Engine) CreateScene() *scene.Scene {
	s := scene.New()
	e.scenes[s.ID()] = s
	e.order = append(e.order, s.ID())
	log.Printf("Created scene: %s", s.ID())
	return s
}

func (e *Engine) Scene(id uuid.UUID) (*scene.Scene, bool) {
	s, ok := e.scenes[id]
	return s, ok
}

// Scenes returns the registered scenes in creation order.
func (e *Engine) Scenes() []*scene.Scene {
	out := make([]*scene.Scene, len(e.order))
	for i, id := range e.order {
		out[i] = e.scenes[id]
	}
	return out
}

// SetMainScene selects the scene Run starts with.
func (e *Engine) SetMainScene(id uuid.UUID) error {
	if _, ok := e.scenes[id]; !ok {
		return fmt.Errorf("main scene %s: %w", id, ErrUnknownScene)
	}
	e.main = id
	return nil
}

// SetCurrentScene switches the scene rendered from the next frame on.
func (e *Engine) SetCurrentScene(id uuid.UUID) error {
	if _, ok := e.scenes[id]; !ok {
		return fmt.Errorf("current scene %s: %w", id, ErrUnknownScene)
	}
	if e.current != id {
		log.Printf("Switching to scene: %s", id)
	}
	e.current = id
	e.renderErrs = [2]error{}
	return nil
}

// CurrentScene is the scene being rendered, or nil.
func (e *Engine) CurrentScene() *scene.Scene { return e.scenes[e.current] }

// Run renders the main scene until either display asks to close or the
// configured frame limit is reached.
func (e *Engine) Run() error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if e.main == uuid.Nil {
		return ErrNoMainScene
	}
	if err := e.SetCurrentScene(e.main); err != nil {
		return err
	}
	start := e.frames
	for !e.displays.ShouldClose() {
		if e.cfg.MaxFrames > 0 && e.frames-start >= e.cfg.MaxFrames {
			log.Printf("Reached %d frames", e.cfg.MaxFrames)
			break
		}
		if err := e.Frame(); err != nil {
			return err
		}
	}
	return nil
}

// ShouldClose reports whether either display asked to close.
func (e *Engine) ShouldClose() bool {
	return e.initialized && e.displays.ShouldClose()
}

// Frame runs one iteration: events, then the upper and lower segments.
// Render errors of a screen are logged and skip only that screen.
func (e *Engine) Frame() error {
	if !e.initialized {
		return ErrNotInitialized
	}
	sc, ok := e.scenes[e.current]
	if !ok {
		return ErrNoMainScene
	}
	if err := e.displays.HandleEvents(); err != nil {
		return err
	}
	if e.watcher != nil && e.watcher.Changed() {
		e.reloadShader()
	}
	for _, screen := range graphics.Screens {
		if err := e.segment(sc, screen); err != nil {
			return err
		}
	}
	e.frames++
	return nil
}

func (e *Engine) segment(sc *scene.Scene, screen graphics.Screen) error {
	if err := e.displays.Begin(screen); err != nil {
		return err
	}
	c := e.clearColor(screen)
	if err := e.displays.Clear(c[0], c[1], c[2], c[3]); err != nil {
		return err
	}
	dt := e.displays.Delta()
	sc.Update(screen, dt)
	e.report(screen, sc.Render(screen, dt, e.target, e.shader))
	e.captureFrame(screen)
	return e.displays.End(screen)
}

func (e *Engine) clearColor(screen graphics.Screen) [4]float32 {
	if screen == graphics.Upper {
		return e.cfg.Screens.Upper.ClearColor
	}
	return e.cfg.Screens.Lower.ClearColor
}

// report logs a screen's render error when it first appears, changes or clears.
func (e *Engine) report(screen graphics.Screen, err error) {
	i := screen.Index()
	prev := e.renderErrs[i]
	switch {
	case err == nil && prev != nil:
		log.Printf("Rendering %s screen again", screen)
	case err != nil && (prev == nil || prev.Error() != err.Error()):
		log.Printf("Skipping %s screen: %v", screen, err)
	}
	e.renderErrs[i] = err
}

// RenderError is the last render error of screen, or nil.
func (e *Engine) RenderError(screen graphics.Screen) error {
	if screen != graphics.Upper && screen != graphics.Lower {
		return nil
	}
	return e.renderErrs[screen.Index()]
}

// captureFrame reads back the bound screen before it is presented. A
// recorder that fails is closed and dropped.
func (e *Engine) captureFrame(screen graphics.Screen) {
	i := screen.Index()
	rec := e.recorders[i]
	if rec == nil {
		return
	}
	w, h := e.displays.Display(screen).Size()
	if err := rec.WriteFrame(e.dev.ReadPixels(0, 0, int32(w), int32(h))); err != nil {
		log.Printf("Stopping %s screen capture: %v", screen, err)
		if cerr := rec.Close(); cerr != nil {
			log.Printf("Error closing %s screen capture: %v", screen, cerr)
		}
		e.recorders[i] = nil
	}
}

// reloadShader swaps in freshly compiled shader files. The old program
// stays in use when the new one fails to build.
func (e *Engine) reloadShader() {
	sh, err := e.loadShader()
	if err != nil {
		log.Printf("Shader reload failed, keeping previous program: %v", err)
		return
	}
	if err := e.res.DestroyShader(e.shader); err != nil {
		log.Printf("Error destroying previous shader: %v", err)
	}
	e.shader = sh
	log.Printf("Shader reloaded")
}
