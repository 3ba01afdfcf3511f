package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/richinsley/twinscreen/capture"
	"github.com/richinsley/twinscreen/config"
	"github.com/richinsley/twinscreen/display"
	"github.com/richinsley/twinscreen/gpu"
	"github.com/richinsley/twinscreen/gpu/gputest"
	"github.com/richinsley/twinscreen/graphics"
	"github.com/richinsley/twinscreen/graphics/graphicstest"
	"github.com/richinsley/twinscreen/resource"
	"github.com/richinsley/twinscreen/scene"
	"github.com/richinsley/twinscreen/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	settings capture.Settings
	frames   []int
	closed   int
	failAt   int
}

func (r *fakeRecorder) WriteFrame(pixels []byte) error {
	if r.failAt > 0 && len(r.frames)+1 == r.failAt {
		return errors.New("broken pipe")
	}
	r.frames = append(r.frames, len(pixels))
	return nil
}

func (r *fakeRecorder) Close() error {
	r.closed++
	return nil
}

type harness struct {
	engine    *Engine
	platform  *graphicstest.Platform
	dev       *gputest.Device
	recorders []*fakeRecorder
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	h := &harness{platform: graphicstest.New(), dev: gputest.New()}
	h.dev.Context = func() (uintptr, bool) {
		w := h.platform.Current()
		if w == nil {
			return 0, false
		}
		return w.Handle(), true
	}
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	h.engine = New(cfg, h.platform, h.dev, WithRecorderFactory(func(s capture.Settings) (Recorder, error) {
		r := &fakeRecorder{settings: s}
		h.recorders = append(h.recorders, r)
		return r, nil
	}))
	t.Cleanup(h.engine.Close)
	return h
}

// cubeScene puts a textured mesh on both screens and a camera on the
// screens listed.
func (h *harness) cubeScene(t *testing.T, cameras ...graphics.Screen) *scene.Scene {
	t.Helper()
	res := h.engine.Resources()
	tex, err := res.CreateTextureFromImage(&resource.Image{Width: 1, Height: 1, Format: gpu.RGBA, Pix: make([]byte, 4)}, "white")
	require.NoError(t, err)
	mesh, err := res.CreateMesh([]gpu.Vertex{{}, {}, {}}, []uint32{0, 1, 2}, []*resource.Texture{tex})
	require.NoError(t, err)

	s := h.engine.CreateScene()
	for _, screen := range graphics.Screens {
		o := scene.NewObject("cube")
		o.AddComponent(scene.NewMeshRef(mesh))
		require.NoError(t, s.AddObject(screen, o))
	}
	for _, screen := range cameras {
		cam := scene.NewObject("camera")
		c := scene.NewCamera()
		c.SetPosition(mgl32.Vec3{0, 0, 5})
		cam.AddComponent(c)
		require.NoError(t, s.AddObject(screen, cam))
		require.NoError(t, s.SetCamera(screen, cam.ID()))
	}
	require.NoError(t, h.engine.SetMainScene(s.ID()))
	return s
}

func TestInitAndClose(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.engine.Init())
	assert.True(t, h.engine.Initialized())
	assert.Len(t, h.platform.Windows(), 2)
	require.NotNil(t, h.engine.Shader())
	assert.False(t, h.engine.Shader().Deleted())
	assert.False(t, h.platform.HasCurrent(), "no context is left bound after init")
	assert.ErrorIs(t, h.engine.Init(), display.ErrAlreadyInitialized)

	h.engine.Close()
	assert.False(t, h.engine.Initialized())
	assert.Equal(t, 0, h.dev.Live())
	for _, w := range h.platform.Windows() {
		assert.True(t, w.Destroyed())
	}
	h.engine.Close()
	assert.Equal(t, 1, h.platform.Terminations())
	assert.Empty(t, h.dev.Violations)
}

func TestSceneRegistry(t *testing.T) {
	h := newHarness(t, nil)
	a := h.engine.CreateScene()
	b := h.engine.CreateScene()
	assert.Equal(t, []*scene.Scene{a, b}, h.engine.Scenes())
	got, ok := h.engine.Scene(b.ID())
	assert.True(t, ok)
	assert.Same(t, b, got)

	assert.ErrorIs(t, h.engine.SetMainScene(uuid.New()), ErrUnknownScene)
	assert.ErrorIs(t, h.engine.SetCurrentScene(uuid.New()), ErrUnknownScene)
	require.NoError(t, h.engine.SetCurrentScene(a.ID()))
	assert.Same(t, a, h.engine.CurrentScene())
	require.NoError(t, h.engine.SetCurrentScene(b.ID()))
	assert.Same(t, b, h.engine.CurrentScene(), "one current scene at a time")
}

func TestRunPreconditions(t *testing.T) {
	h := newHarness(t, nil)
	assert.ErrorIs(t, h.engine.Run(), ErrNotInitialized)
	assert.ErrorIs(t, h.engine.Frame(), ErrNotInitialized)
	require.NoError(t, h.engine.Init())
	assert.ErrorIs(t, h.engine.Run(), ErrNoMainScene)
	assert.ErrorIs(t, h.engine.Frame(), ErrNoMainScene)
}

func TestFrameRendersBothScreens(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.engine.Init())
	h.cubeScene(t, graphics.Upper, graphics.Lower)
	require.NoError(t, h.engine.SetCurrentScene(h.engine.main))

	require.NoError(t, h.engine.Frame())

	require.Len(t, h.dev.Draws, 2)
	wins := h.platform.Windows()
	assert.Equal(t, wins[0].Handle(), h.dev.Draws[0].Context, "upper draws on the upper context")
	assert.Equal(t, wins[1].Handle(), h.dev.Draws[1].Context, "lower draws on the lower context")
	assert.Equal(t, h.dev.Draws[0].VBO, h.dev.Draws[1].VBO, "one mesh serves both screens")
	assert.NotEqual(t, h.dev.Draws[0].VAO, h.dev.Draws[1].VAO, "each context has its own vertex array")
	assert.Equal(t, 1, wins[0].Swaps())
	assert.Equal(t, 1, wins[1].Swaps())
	assert.Len(t, h.dev.Clears(), 2)
	assert.False(t, h.platform.HasCurrent())
	assert.Empty(t, h.dev.Violations)
	assert.NoError(t, h.engine.RenderError(graphics.Upper))
	assert.NoError(t, h.engine.RenderError(graphics.Lower))
	assert.Equal(t, 1, h.engine.Frames())
}

func TestMissingCameraSkipsOnlyThatScreen(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.engine.Init())
	h.cubeScene(t, graphics.Upper)
	require.NoError(t, h.engine.SetCurrentScene(h.engine.main))

	require.NoError(t, h.engine.Frame())
	require.NoError(t, h.engine.Frame())

	assert.Len(t, h.dev.Draws, 2, "upper draws each frame, lower never")
	var nac *scene.NoActiveCameraError
	require.ErrorAs(t, h.engine.RenderError(graphics.Lower), &nac)
	assert.Equal(t, graphics.Lower, nac.Screen)
	assert.NoError(t, h.engine.RenderError(graphics.Upper))
	assert.Equal(t, 2, h.platform.Windows()[1].Swaps(), "lower is still presented")
}

func TestRunStopsOnClose(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.engine.Init())
	h.cubeScene(t, graphics.Upper, graphics.Lower)

	h.platform.Windows()[1].Inject(graphics.Event{Kind: graphics.EventClose})
	require.NoError(t, h.engine.Run())
	assert.Equal(t, 1, h.engine.Frames())
	assert.True(t, h.engine.ShouldClose())
}

func TestRunStopsAtMaxFrames(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.MaxFrames = 3 })
	require.NoError(t, h.engine.Init())
	h.cubeScene(t, graphics.Upper, graphics.Lower)

	require.NoError(t, h.engine.Run())
	assert.Equal(t, 3, h.engine.Frames())
	assert.Len(t, h.dev.Draws, 6)
}

func TestCaptureRecordsScreen(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Capture.Lower = "lower.mp4"
		c.MaxFrames = 2
	})
	require.NoError(t, h.engine.Init())
	require.Len(t, h.recorders, 1)
	rec := h.recorders[0]
	assert.Equal(t, capture.Settings{Path: "lower.mp4", Width: 800, Height: 480, FPS: 60, Codec: "libx264", FFmpegPath: "ffmpeg"}, rec.settings)

	h.cubeScene(t, graphics.Upper, graphics.Lower)
	require.NoError(t, h.engine.Run())
	assert.Equal(t, []int{800 * 480 * 4, 800 * 480 * 4}, rec.frames)
	assert.Equal(t, 2, h.dev.Count("ReadPixels"))
	assert.Empty(t, h.dev.Violations)

	h.engine.Close()
	assert.Equal(t, 1, rec.closed)
}

func TestCaptureFailureDropsRecorder(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Capture.Upper = "upper.mp4" })
	require.NoError(t, h.engine.Init())
	h.recorders[0].failAt = 1
	h.cubeScene(t, graphics.Upper, graphics.Lower)
	require.NoError(t, h.engine.SetCurrentScene(h.engine.main))

	require.NoError(t, h.engine.Frame())
	require.NoError(t, h.engine.Frame())
	assert.Equal(t, 1, h.recorders[0].closed)
	assert.Equal(t, 1, h.dev.Count("ReadPixels"))
}

func TestInitFailureIsRetryable(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Capture.Upper = "upper.mp4" })
	h.engine.newRecorder = func(capture.Settings) (Recorder, error) {
		return nil, errors.New("ffmpeg not found")
	}
	err := h.engine.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffmpeg not found")
	assert.False(t, h.engine.Initialized())
	assert.False(t, h.platform.Initialized())
	assert.Equal(t, 0, h.dev.Live(), "the shader created before the failure is released")

	h.engine.newRecorder = func(s capture.Settings) (Recorder, error) { return &fakeRecorder{settings: s}, nil }
	require.NoError(t, h.engine.Init())
	assert.True(t, h.engine.Initialized())
}

func TestShaderFilesAndReload(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "cube.vert")
	frag := filepath.Join(dir, "cube.frag")
	require.NoError(t, os.WriteFile(vert, []byte(shader.VertexSource(4, 1)), 0o644))
	require.NoError(t, os.WriteFile(frag, []byte(shader.FragmentSource(4, 1)), 0o644))

	h := newHarness(t, func(c *config.Config) {
		c.Shaders.Vertex = vert
		c.Shaders.Fragment = frag
		c.Shaders.Watch = true
	})
	require.NoError(t, h.engine.Init())
	h.cubeScene(t, graphics.Upper, graphics.Lower)
	require.NoError(t, h.engine.SetCurrentScene(h.engine.main))
	first := h.engine.Shader()

	require.NoError(t, os.WriteFile(frag, []byte(shader.FragmentSource(4, 1)+"\n"), 0o644))
	require.Eventually(t, func() bool { return len(h.engine.watcher.changed) == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, h.engine.Frame())

	second := h.engine.Shader()
	assert.NotSame(t, first, second)
	assert.True(t, first.Deleted())
	assert.Equal(t, second.Program(), h.dev.Draws[len(h.dev.Draws)-1].Program)

	// a broken edit keeps the working program
	h.dev.FailCompile = "BROKEN"
	h.engine.watcher.notify()
	require.NoError(t, os.WriteFile(frag, []byte("BROKEN"), 0o644))
	require.NoError(t, h.engine.Frame())
	assert.Same(t, second, h.engine.Shader())
	assert.False(t, second.Deleted())
	assert.Empty(t, h.dev.Violations)
}

func TestMissingShaderFile(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Shaders.Vertex = filepath.Join(t.TempDir(), "nope.vert")
		c.Shaders.Fragment = filepath.Join(t.TempDir(), "nope.frag")
	})
	var le *resource.LoadError
	require.ErrorAs(t, h.engine.Init(), &le)
	assert.False(t, h.platform.Initialized())
}
