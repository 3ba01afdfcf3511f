// Package resource creates and owns GPU objects in the namespace shared by
// both displays. Textures, meshes and shaders made here are drawable on
// either screen.
package resource

import (
	"fmt"
	"io"
	"log"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/twinscreen/gpu"
	"github.com/richinsley/twinscreen/transform"
)

// Namespace grants access to a context of the shared resource namespace.
// Acquire makes one current if none is, and release restores the prior
// binding state.
type Namespace interface {
	Acquire() (release func(), err error)
}

// SourceTranslator converts GLSL ES 3.0 / WebGL2 sources to the desktop
// dialect the device compiles. Names maps original uniform names to the
// names in the translated source.
type SourceTranslator interface {
	Translate(stage gpu.Stage, source string) (code string, names map[string]string, err error)
}

type Option func(*Manager)

// WithFilter sets the texture filtering policy. Default is nearest.
func WithFilter(f gpu.Filter) Option {
	return func(m *Manager) { m.filter = f }
}

func WithDecoder(d Decoder) Option {
	return func(m *Manager) { m.decoder = d }
}

func WithTranslator(t SourceTranslator) Option {
	return func(m *Manager) { m.translator = t }
}

// WithVerbose logs every creation and destruction.
func WithVerbose(v bool) Option {
	return func(m *Manager) { m.verbose = v }
}

// Manager is the sole owner of every texture, mesh and shader it creates.
type Manager struct {
	dev        gpu.Device
	ns         Namespace
	decoder    Decoder
	translator SourceTranslator
	filter     gpu.Filter
	verbose    bool

	textures []*Texture
	meshes   []*Mesh
	shaders  []*Shader
	released bool
}

func NewManager(dev gpu.Device, ns Namespace, opts ...Option) *Manager {
	m := &Manager{
		dev:     dev,
		ns:      ns,
		decoder: ImageDecoder{},
		filter:  gpu.Nearest,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) bind() (func(), error) {
	if m.released {
		return nil, ErrReleased
	}
	release, err := m.ns.Acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to bind resource context: %w", err)
	}
	return release, nil
}

// CreateTexture decodes r and uploads it as a texture. name labels errors
// and logs.
func (m *Manager) CreateTexture(r io.Reader, name string) (*Texture, error) {
	if m.released {
		return nil, ErrReleased
	}
	img, err := m.decoder.Decode(r)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	return m.CreateTextureFromImage(img, name)
}

func (m *Manager) CreateTextureFromFile(path string) (*Texture, error) {
	if m.released {
		return nil, ErrReleased
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	return m.CreateTexture(f, path)
}

// CreateTextureFromImage uploads already decoded pixels.
func (m *Manager) CreateTextureFromImage(img *Image, name string) (*Texture, error) {
	release, err := m.bind()
	if err != nil {
		return nil, err
	}
	defer release()

	id, err := m.dev.CreateTexture(gpu.TextureDesc{
		Width:   img.Width,
		Height:  img.Height,
		Format:  img.Format,
		Pixels:  img.Pix,
		Filter:  m.filter,
		Mipmaps: true,
	})
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	t := &Texture{id: id, name: name, width: img.Width, height: img.Height, owner: m}
	m.textures = append(m.textures, t)
	if m.verbose {
		log.Printf("Created texture %d (%s, %dx%d)", id, name, img.Width, img.Height)
	}
	return t, nil
}

// DestroyTexture deletes t. It fails with ErrTextureInUse while a live mesh
// borrows it.
func (m *Manager) DestroyTexture(t *Texture) error {
	if t.owner != m {
		return ErrNotOwned
	}
	if t.deleted {
		return nil
	}
	if t.refs > 0 {
		return fmt.Errorf("texture %s: %w", t.name, ErrTextureInUse)
	}
	release, err := m.ns.Acquire()
	if err != nil {
		return fmt.Errorf("failed to bind resource context: %w", err)
	}
	defer release()
	m.deleteTexture(t)
	return nil
}

func (m *Manager) deleteTexture(t *Texture) {
	m.dev.DeleteTexture(t.id)
	t.deleted = true
	m.textures = slices.DeleteFunc(m.textures, func(x *Texture) bool { return x == t })
}

// CreateMesh uploads interleaved vertex data and indices. The textures are
// borrowed: the mesh keeps them alive until it is destroyed.
func (m *Manager) CreateMesh(vertices []gpu.Vertex, indices []uint32, textures []*Texture) (*Mesh, error) {
	for _, t := range textures {
		if t == nil || t.owner != m || t.deleted {
			return nil, fmt.Errorf("mesh texture: %w", ErrNotOwned)
		}
	}
	release, err := m.bind()
	if err != nil {
		return nil, err
	}
	defer release()

	va, err := m.dev.CreateVertexArray(gpu.Interleave(vertices), indices)
	if err != nil {
		return nil, fmt.Errorf("failed to create mesh buffers: %w", err)
	}
	for _, t := range textures {
		t.refs++
	}
	mesh := &Mesh{
		Transform: transform.Identity(),
		va:        va,
		textures:  slices.Clone(textures),
		owner:     m,
	}
	m.meshes = append(m.meshes, mesh)
	if m.verbose {
		log.Printf("Created mesh %d (%d vertices, %d indices, %d textures)", va.VBO, len(vertices), len(indices), len(textures))
	}
	return mesh, nil
}

func (m *Manager) DestroyMesh(mesh *Mesh) error {
	if mesh.owner != m {
		return ErrNotOwned
	}
	if mesh.deleted {
		return nil
	}
	release, err := m.ns.Acquire()
	if err != nil {
		return fmt.Errorf("failed to bind resource context: %w", err)
	}
	defer release()
	m.deleteMesh(mesh)
	return nil
}

func (m *Manager) deleteMesh(mesh *Mesh) {
	m.dev.DeleteVertexArray(mesh.va)
	for _, t := range mesh.textures {
		t.refs--
	}
	mesh.deleted = true
	m.meshes = slices.DeleteFunc(m.meshes, func(x *Mesh) bool { return x == mesh })
}

// CreateShader compiles and links a program. A failed stage or link returns
// a *ShaderError and leaves nothing allocated.
func (m *Manager) CreateShader(vertexSource, fragmentSource string) (*Shader, error) {
	return m.createShader(vertexSource, fragmentSource, nil)
}

// CreateShaderES translates GLSL ES 3.0 / WebGL2 sources before compiling.
func (m *Manager) CreateShaderES(vertexSource, fragmentSource string) (*Shader, error) {
	if m.translator == nil {
		return nil, fmt.Errorf("no shader translator configured")
	}
	vs, vnames, err := m.translator.Translate(gpu.VertexStage, vertexSource)
	if err != nil {
		return nil, &ShaderError{Stage: StageVertex, Log: err.Error()}
	}
	fs, fnames, err := m.translator.Translate(gpu.FragmentStage, fragmentSource)
	if err != nil {
		return nil, &ShaderError{Stage: StageFragment, Log: err.Error()}
	}
	names := make(map[string]string, len(vnames)+len(fnames))
	for k, v := range vnames {
		names[k] = v
	}
	for k, v := range fnames {
		names[k] = v
	}
	return m.createShader(vs, fs, names)
}

func (m *Manager) createShader(vertexSource, fragmentSource string, names map[string]string) (*Shader, error) {
	release, err := m.bind()
	if err != nil {
		return nil, err
	}
	defer release()

	vs, err := m.dev.CompileShader(gpu.VertexStage, vertexSource)
	if err != nil {
		return nil, &ShaderError{Stage: StageVertex, Log: err.Error()}
	}
	fs, err := m.dev.CompileShader(gpu.FragmentStage, fragmentSource)
	if err != nil {
		m.dev.DeleteShader(vs)
		return nil, &ShaderError{Stage: StageFragment, Log: err.Error()}
	}
	program, err := m.dev.LinkProgram(vs, fs)
	m.dev.DeleteShader(vs)
	m.dev.DeleteShader(fs)
	if err != nil {
		return nil, &ShaderError{Stage: StageLink, Log: err.Error()}
	}

	s := &Shader{program: program, dev: m.dev, names: names, owner: m}
	m.shaders = append(m.shaders, s)
	if m.verbose {
		log.Printf("Created shader program %d", program)
	}
	return s, nil
}

func (m *Manager) DestroyShader(s *Shader) error {
	if s.owner != m {
		return ErrNotOwned
	}
	if s.deleted {
		return nil
	}
	release, err := m.ns.Acquire()
	if err != nil {
		return fmt.Errorf("failed to bind resource context: %w", err)
	}
	defer release()
	m.deleteShader(s)
	return nil
}

func (m *Manager) deleteShader(s *Shader) {
	m.dev.DeleteProgram(s.program)
	s.deleted = true
	m.shaders = slices.DeleteFunc(m.shaders, func(x *Shader) bool { return x == s })
}

// Release destroys meshes, then shaders, then textures. Later calls are
// no-ops and later creations fail with ErrReleased.
func (m *Manager) Release() error {
	if m.released {
		return nil
	}
	meshes, shaders, textures := len(m.meshes), len(m.shaders), len(m.textures)
	if meshes+shaders+textures > 0 {
		release, err := m.ns.Acquire()
		if err != nil {
			return fmt.Errorf("failed to bind resource context: %w", err)
		}
		for len(m.meshes) > 0 {
			m.deleteMesh(m.meshes[0])
		}
		for len(m.shaders) > 0 {
			m.deleteShader(m.shaders[0])
		}
		for len(m.textures) > 0 {
			m.deleteTexture(m.textures[0])
		}
		release()
	}
	m.released = true
	log.Printf("Released %d meshes, %d shaders, %d textures", meshes, shaders, textures)
	return nil
}

// Counts reports the live meshes, shaders and textures.
func (m *Manager) Counts() (meshes, shaders, textures int) {
	return len(m.meshes), len(m.shaders), len(m.textures)
}

// Draw submits mesh with shader. The caller must have a screen bound and
// must have set the per-pass uniforms already. model replaces the "model"
// uniform for this draw.
func (m *Manager) Draw(mesh *Mesh, shader *Shader, model mgl32.Mat4) error {
	if mesh.deleted || shader.deleted {
		return fmt.Errorf("draw: %w", ErrReleased)
	}
	shader.Use()
	for i, t := range mesh.textures {
		m.dev.BindTexture(i, t.id)
		shader.SetInt(fmt.Sprintf("texture_%d", i), int32(i))
	}
	shader.SetMat4("model", model)
	m.dev.DrawIndexed(mesh.va)
	// Unit 0 last so it is left active.
	for i := len(mesh.textures) - 1; i >= 0; i-- {
		m.dev.BindTexture(i, 0)
	}
	return nil
}
