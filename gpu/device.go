// Package gpu defines the graphics API surface the engine draws through.
//
// Every Device call applies to whichever context is current on the calling
// thread. Callers are responsible for binding one first.
package gpu

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type Stage int

const (
	VertexStage Stage = iota
	FragmentStage
)

func (s Stage) String() string {
	if s == VertexStage {
		return "vertex"
	}
	return "fragment"
}

type PixelFormat int

const (
	RGBA PixelFormat = iota
	RGB
)

// Channels returns the bytes per pixel of the format.
func (f PixelFormat) Channels() int {
	if f == RGB {
		return 3
	}
	return 4
}

type Filter int

const (
	Nearest Filter = iota
	Linear
)

// ParseFilter maps "nearest" and "linear" to a Filter.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "", "nearest":
		return Nearest, nil
	case "linear":
		return Linear, nil
	}
	return Nearest, fmt.Errorf("unknown texture filter %q", s)
}

// TextureDesc describes a 2D texture upload. Wrapping is always clamp-to-edge.
type TextureDesc struct {
	Width, Height int
	Format        PixelFormat
	Pixels        []byte
	Filter        Filter
	Mipmaps       bool
}

// VertexArray names a mesh's vertex and index buffers. Buffers live in the
// shared namespace; the vertex array object that binds them does not, so
// the Device keeps one per context and creates it on first draw there.
type VertexArray struct {
	VBO, EBO   uint32
	IndexCount int32
}

// NoContext is the context token meaning nothing is current.
const NoContext = 0

// CompileError carries the driver's diagnostic for a failed compile or link.
type CompileError struct {
	Log string
}

func (e *CompileError) Error() string { return e.Log }

var ErrInvalidTexture = errors.New("invalid texture description")

// Device is the graphics API. Implementations: glcore (OpenGL 4.1 core)
// and gputest (recording fake).
type Device interface {
	// Init loads API function pointers. A context must be current.
	Init() error
	// Terminate forgets loader state.
	Terminate()
	// SetContext tells the device which context is now current. ctx is
	// any token stable per context; NoContext after detaching.
	SetContext(ctx int)

	Viewport(x, y, width, height int32)
	EnableDepthTest()
	Clear(r, g, b, a float32)

	CreateTexture(desc TextureDesc) (uint32, error)
	DeleteTexture(id uint32)
	BindTexture(unit int, id uint32)

	// CreateVertexArray uploads interleaved Vertex data and indices and
	// configures attribute locations 0 (position), 1 (normal), 2 (uv).
	CreateVertexArray(vertices []float32, indices []uint32) (VertexArray, error)
	// DeleteVertexArray frees the buffers and every context's vertex array
	// object. Objects of contexts other than the current one are freed the
	// next time that context is set.
	DeleteVertexArray(va VertexArray)
	DrawIndexed(va VertexArray)

	// CompileShader returns a *CompileError on failure and deletes the stage.
	CompileShader(stage Stage, source string) (uint32, error)
	DeleteShader(id uint32)
	// LinkProgram returns a *CompileError on failure and deletes the program.
	LinkProgram(vertex, fragment uint32) (uint32, error)
	DeleteProgram(id uint32)
	UseProgram(id uint32)

	UniformLocation(program uint32, name string) int32
	UniformMat4(location int32, m mgl32.Mat4)
	UniformVec3(location int32, v mgl32.Vec3)
	UniformVec4(location int32, v mgl32.Vec4)
	UniformFloat(location int32, v float32)
	UniformInt(location int32, v int32)

	// ReadPixels reads RGBA bytes from the current framebuffer, bottom row first.
	ReadPixels(x, y, width, height int32) []byte
}
