package resource

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/twinscreen/gpu"
	"github.com/richinsley/twinscreen/transform"
)

// Texture is a 2D texture owned by a Manager.
type Texture struct {
	id            uint32
	name          string
	width, height int
	refs          int
	deleted       bool
	owner         *Manager
}

func (t *Texture) ID() uint32       { return t.id }
func (t *Texture) Name() string     { return t.name }
func (t *Texture) Size() (int, int) { return t.width, t.height }
func (t *Texture) Borrowers() int   { return t.refs }
func (t *Texture) Deleted() bool    { return t.deleted }

// Mesh owns its vertex and index buffers and borrows its textures. The
// embedded Transform is the mesh's local model matrix.
type Mesh struct {
	transform.Transform

	va       gpu.VertexArray
	textures []*Texture
	deleted  bool
	owner    *Manager
}

func (m *Mesh) VertexArray() gpu.VertexArray { return m.va }
func (m *Mesh) Deleted() bool                { return m.deleted }

// Textures returns the borrowed textures in sampler order.
func (m *Mesh) Textures() []*Texture {
	return append([]*Texture(nil), m.textures...)
}

// Shader is a linked program. Setters look the uniform up on every call and
// ignore names the program does not have. They apply to the bound program,
// so call Use first.
type Shader struct {
	program uint32
	dev     gpu.Device
	// names maps source uniform names to translated ones for ES shaders.
	names   map[string]string
	deleted bool
	owner   *Manager
}

func (s *Shader) Program() uint32 { return s.program }
func (s *Shader) Deleted() bool   { return s.deleted }

func (s *Shader) Use() {
	s.dev.UseProgram(s.program)
}

// Location resolves name, translating the leading identifier when the
// shader came from an ES source.
func (s *Shader) Location(name string) int32 {
	if s.names != nil {
		name = s.mapped(name)
	}
	return s.dev.UniformLocation(s.program, name)
}

func (s *Shader) mapped(name string) string {
	root, rest := name, ""
	for i, c := range name {
		if c == '.' || c == '[' {
			root, rest = name[:i], name[i:]
			break
		}
	}
	if m, ok := s.names[root]; ok {
		return m + rest
	}
	return name
}

func (s *Shader) SetMat4(name string, m mgl32.Mat4) {
	if loc := s.Location(name); loc >= 0 {
		s.dev.UniformMat4(loc, m)
	}
}

func (s *Shader) SetVec3(name string, v mgl32.Vec3) {
	if loc := s.Location(name); loc >= 0 {
		s.dev.UniformVec3(loc, v)
	}
}

func (s *Shader) SetVec4(name string, v mgl32.Vec4) {
	if loc := s.Location(name); loc >= 0 {
		s.dev.UniformVec4(loc, v)
	}
}

func (s *Shader) SetFloat(name string, v float32) {
	if loc := s.Location(name); loc >= 0 {
		s.dev.UniformFloat(loc, v)
	}
}

func (s *Shader) SetInt(name string, v int32) {
	if loc := s.Location(name); loc >= 0 {
		s.dev.UniformInt(loc, v)
	}
}

func (s *Shader) SetBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	s.SetInt(name, i)
}
