package resource

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/twinscreen/gpu"
	"github.com/richinsley/twinscreen/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNamespace binds a pretend context on Acquire when none is bound.
type testNamespace struct {
	bound    bool
	acquires int
	err      error
}

func (n *testNamespace) Acquire() (func(), error) {
	if n.err != nil {
		return nil, n.err
	}
	n.acquires++
	if n.bound {
		return func() {}, nil
	}
	n.bound = true
	return func() { n.bound = false }, nil
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *gputest.Device, *testNamespace) {
	t.Helper()
	ns := &testNamespace{}
	dev := gputest.New()
	dev.Context = func() (uintptr, bool) { return 1, ns.bound }
	return NewManager(dev, ns, opts...), dev, ns
}

const vertexSrc = `#version 410 core
layout (location = 0) in vec3 aPos;
uniform mat4 model;
uniform mat4 view;
void main() { gl_Position = view * model * vec4(aPos, 1.0); }
`

const fragmentSrc = `#version 410 core
out vec4 FragColor;
uniform sampler2D texture_0;
uniform float alpha;
void main() { FragColor = vec4(1.0); }
`

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255}) // top-left red
	img.Set(0, 1, color.RGBA{0, 0, 255, 255}) // bottom-left blue
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func cube() ([]gpu.Vertex, []uint32) {
	v := []gpu.Vertex{
		gpu.VertexFromArray([8]float32{-0.5, -0.5, 0, 0, 0, 1, 0, 0}),
		gpu.VertexFromArray([8]float32{0.5, -0.5, 0, 0, 0, 1, 1, 0}),
		gpu.VertexFromArray([8]float32{0.5, 0.5, 0, 0, 0, 1, 1, 1}),
	}
	return v, []uint32{0, 1, 2}
}

func TestCreateTextureUploadsFlippedRGBA(t *testing.T) {
	m, dev, ns := newTestManager(t)

	tex, err := m.CreateTexture(bytes.NewReader(pngBytes(t)), "checker.png")
	require.NoError(t, err)
	assert.Equal(t, "checker.png", tex.Name())
	w, h := tex.Size()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)

	descs := dev.Textures()
	require.Len(t, descs, 1)
	d := descs[0]
	assert.Equal(t, gpu.RGBA, d.Format)
	assert.Equal(t, gpu.Nearest, d.Filter)
	assert.True(t, d.Mipmaps)
	// row 0 is now the bottom of the picture
	assert.Equal(t, []byte{0, 0, 255, 255}, d.Pixels[0:4])
	assert.Equal(t, []byte{255, 0, 0, 255}, d.Pixels[8:12])

	assert.Empty(t, dev.Violations)
	assert.False(t, ns.bound, "transient binding must be restored")
}

func TestCreateTextureKeepsCallerBinding(t *testing.T) {
	m, _, ns := newTestManager(t)
	ns.bound = true
	_, err := m.CreateTexture(bytes.NewReader(pngBytes(t)), "a.png")
	require.NoError(t, err)
	assert.True(t, ns.bound)
}

func TestCreateTextureLinearFilter(t *testing.T) {
	m, dev, _ := newTestManager(t, WithFilter(gpu.Linear))
	_, err := m.CreateTexture(bytes.NewReader(pngBytes(t)), "a.png")
	require.NoError(t, err)
	assert.Equal(t, gpu.Linear, dev.Textures()[0].Filter)
}

func TestCreateTextureDecodeError(t *testing.T) {
	m, dev, ns := newTestManager(t)

	_, err := m.CreateTexture(strings.NewReader("not an image"), "bad.png")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "bad.png", le.Source)
	assert.Zero(t, dev.Live())
	assert.Zero(t, ns.acquires)
}

func TestCreateTextureFromFile(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.CreateTextureFromFile(filepath.Join(t.TempDir(), "missing.png"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "ok.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t), 0o644))
	tex, err := m.CreateTextureFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, tex.Name())
}

func TestCreateShaderReleasesStages(t *testing.T) {
	m, dev, ns := newTestManager(t)

	s, err := m.CreateShader(vertexSrc, fragmentSrc)
	require.NoError(t, err)
	assert.Equal(t, 1, dev.Live(), "only the program should remain")
	assert.True(t, dev.IsLive(s.Program()))
	assert.Equal(t, 2, dev.Count("DeleteShader"))
	assert.False(t, ns.bound)
}

func TestCreateShaderCompileFailure(t *testing.T) {
	m, dev, _ := newTestManager(t)
	dev.FailCompile = "FragColor"

	_, err := m.CreateShader(vertexSrc, fragmentSrc)
	var se *ShaderError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageFragment, se.Stage)
	assert.Contains(t, se.Log, "fragment stage rejected")
	assert.ErrorIs(t, err, ErrShaderCompile)
	assert.NotErrorIs(t, err, ErrShaderLink)
	assert.Zero(t, dev.Live())
	assert.Zero(t, dev.Count("LinkProgram"))
}

func TestCreateShaderLinkFailure(t *testing.T) {
	m, dev, _ := newTestManager(t)
	dev.FailLink = true

	_, err := m.CreateShader(vertexSrc, fragmentSrc)
	assert.ErrorIs(t, err, ErrShaderLink)
	assert.Zero(t, dev.Live())
	c, s, tx := m.Counts()
	assert.Zero(t, c+s+tx)
}

func TestShaderSettersIgnoreUnknownNames(t *testing.T) {
	m, dev, _ := newTestManager(t)
	s, err := m.CreateShader(vertexSrc, fragmentSrc)
	require.NoError(t, err)

	s.Use()
	s.SetFloat("does_not_exist", 1)
	s.SetVec3("nope", mgl32.Vec3{})
	assert.Zero(t, dev.Count("UniformFloat"))
	assert.Zero(t, dev.Count("UniformVec3"))

	s.SetFloat("alpha", 0.5)
	v, ok := dev.Uniform(s.Program(), "alpha")
	require.True(t, ok)
	assert.Equal(t, float32(0.5), v)

	s.SetBool("alpha", true)
	assert.Equal(t, 1, dev.Count("UniformInt"))
	assert.Empty(t, dev.Violations)
}

type renamingTranslator struct{}

func (renamingTranslator) Translate(stage gpu.Stage, src string) (string, map[string]string, error) {
	if strings.Contains(src, "broken") {
		return "", nil, errors.New("ERROR: 0:1: syntax error")
	}
	return strings.ReplaceAll(src, "model", "_umodel"), map[string]string{"model": "_umodel"}, nil
}

func TestCreateShaderES(t *testing.T) {
	m, dev, _ := newTestManager(t)
	_, err := m.CreateShaderES(vertexSrc, fragmentSrc)
	assert.Error(t, err, "no translator configured")

	m, dev, _ = newTestManager(t, WithTranslator(renamingTranslator{}))
	s, err := m.CreateShaderES(vertexSrc, fragmentSrc)
	require.NoError(t, err)
	s.Use()
	s.SetMat4("model", mgl32.Ident4())
	_, ok := dev.Uniform(s.Program(), "_umodel")
	assert.True(t, ok)

	_, err = m.CreateShaderES("broken", fragmentSrc)
	var se *ShaderError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageVertex, se.Stage)
}

func TestDestroyTextureInUse(t *testing.T) {
	m, dev, _ := newTestManager(t)
	tex, err := m.CreateTexture(bytes.NewReader(pngBytes(t)), "a.png")
	require.NoError(t, err)
	verts, idx := cube()
	mesh, err := m.CreateMesh(verts, idx, []*Texture{tex})
	require.NoError(t, err)
	assert.Equal(t, 1, tex.Borrowers())
	assert.True(t, mesh.Model().ApproxEqual(mgl32.Ident4()))

	assert.ErrorIs(t, m.DestroyTexture(tex), ErrTextureInUse)
	assert.True(t, dev.IsLive(tex.ID()))

	require.NoError(t, m.DestroyMesh(mesh))
	assert.Zero(t, tex.Borrowers())
	require.NoError(t, m.DestroyTexture(tex))
	assert.False(t, dev.IsLive(tex.ID()))
	assert.Zero(t, dev.Live())

	// destroying twice is harmless
	require.NoError(t, m.DestroyTexture(tex))
}

func TestCreateMeshRejectsForeignTexture(t *testing.T) {
	a, _, _ := newTestManager(t)
	b, _, _ := newTestManager(t)
	tex, err := a.CreateTexture(bytes.NewReader(pngBytes(t)), "a.png")
	require.NoError(t, err)
	verts, idx := cube()
	_, err = b.CreateMesh(verts, idx, []*Texture{tex})
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestReleaseOrder(t *testing.T) {
	m, dev, ns := newTestManager(t)
	tex, err := m.CreateTexture(bytes.NewReader(pngBytes(t)), "a.png")
	require.NoError(t, err)
	_, err = m.CreateShader(vertexSrc, fragmentSrc)
	require.NoError(t, err)
	verts, idx := cube()
	_, err = m.CreateMesh(verts, idx, []*Texture{tex})
	require.NoError(t, err)

	dev.Calls = nil
	require.NoError(t, m.Release())

	var deletes []string
	for _, c := range dev.Calls {
		if strings.HasPrefix(c, "Delete") {
			deletes = append(deletes, c)
		}
	}
	assert.Equal(t, []string{"DeleteVertexArray", "DeleteProgram", "DeleteTexture"}, deletes)
	assert.Zero(t, dev.Live())
	assert.Empty(t, dev.Violations)
	assert.False(t, ns.bound)

	require.NoError(t, m.Release())
	_, err = m.CreateShader(vertexSrc, fragmentSrc)
	assert.ErrorIs(t, err, ErrReleased)
	_, err = m.CreateTexture(bytes.NewReader(pngBytes(t)), "a.png")
	assert.ErrorIs(t, err, ErrReleased)
}

func TestNamespaceFailure(t *testing.T) {
	m, dev, ns := newTestManager(t)
	ns.err = errors.New("no context")
	_, err := m.CreateShader(vertexSrc, fragmentSrc)
	assert.ErrorContains(t, err, "no context")
	assert.Zero(t, dev.Count("CompileShader"))
}

func TestDraw(t *testing.T) {
	m, dev, ns := newTestManager(t)
	tex, err := m.CreateTexture(bytes.NewReader(pngBytes(t)), "a.png")
	require.NoError(t, err)
	s, err := m.CreateShader(vertexSrc, fragmentSrc)
	require.NoError(t, err)
	verts, idx := cube()
	mesh, err := m.CreateMesh(verts, idx, []*Texture{tex})
	require.NoError(t, err)

	ns.bound = true
	model := mgl32.Translate3D(1, 2, 3)
	require.NoError(t, m.Draw(mesh, s, model))

	require.Len(t, dev.Draws, 1)
	d := dev.Draws[0]
	assert.Equal(t, s.Program(), d.Program)
	assert.Equal(t, mesh.VertexArray().VBO, d.VBO)
	assert.Equal(t, mesh.VertexArray().EBO, d.EBO)
	assert.NotZero(t, d.VAO)
	assert.Equal(t, int32(3), d.Indices)
	assert.Equal(t, tex.ID(), d.Textures[0])
	assert.Equal(t, model, d.Model)
	sampler, _ := dev.Uniform(s.Program(), "texture_0")
	assert.Equal(t, int32(0), sampler)
	assert.Empty(t, dev.Violations)

	require.NoError(t, m.DestroyMesh(mesh))
	assert.ErrorIs(t, m.Draw(mesh, s, model), ErrReleased)
}

func TestDrawUnbindsEveryTextureUnit(t *testing.T) {
	m, dev, ns := newTestManager(t)
	var texs []*Texture
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		tex, err := m.CreateTexture(bytes.NewReader(pngBytes(t)), name)
		require.NoError(t, err)
		texs = append(texs, tex)
	}
	s, err := m.CreateShader(vertexSrc, fragmentSrc)
	require.NoError(t, err)
	verts, idx := cube()
	mesh, err := m.CreateMesh(verts, idx, texs)
	require.NoError(t, err)

	ns.bound = true
	require.NoError(t, m.Draw(mesh, s, mgl32.Ident4()))

	require.Len(t, dev.Draws, 1)
	for i, tex := range texs {
		assert.Equal(t, tex.ID(), dev.Draws[0].Textures[i], "unit %d during the draw", i)
		assert.Zero(t, dev.BoundTexture(i), "unit %d after the draw", i)
	}
	assert.Empty(t, dev.Violations)
}
