// Package glcore implements gpu.Device on OpenGL 4.1 core.
package glcore

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/twinscreen/gpu"
)

type Device struct {
	loaded bool

	// ctx is the token of the current context.
	ctx int
	// vaos maps a vertex buffer to its vertex array object in each context.
	vaos map[uint32]map[int]uint32
	// orphans are vertex array objects to delete once their context is
	// current again.
	orphans map[int][]uint32
}

func New() *Device {
	return &Device{
		vaos:    make(map[uint32]map[int]uint32),
		orphans: make(map[int][]uint32),
	}
}

// Init loads the OpenGL function pointers for the current context.
func (d *Device) Init() error {
	if d.loaded {
		return nil
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	d.loaded = true
	log.Printf("OpenGL %s (%s)", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	return nil
}

// Terminate forgets loader state. Vertex array objects still tracked die
// with their contexts.
func (d *Device) Terminate() {
	d.loaded = false
	d.ctx = gpu.NoContext
	clear(d.vaos)
	clear(d.orphans)
}

func (d *Device) SetContext(ctx int) {
	d.ctx = ctx
	if ctx == gpu.NoContext || len(d.orphans[ctx]) == 0 {
		return
	}
	pending := d.orphans[ctx]
	gl.DeleteVertexArrays(int32(len(pending)), &pending[0])
	delete(d.orphans, ctx)
}

func (d *Device) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *Device) EnableDepthTest() {
	gl.Enable(gl.DEPTH_TEST)
}

func (d *Device) Clear(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (uint32, error) {
	if desc.Width <= 0 || desc.Height <= 0 || len(desc.Pixels) < desc.Width*desc.Height*desc.Format.Channels() {
		return 0, gpu.ErrInvalidTexture
	}

	var internalFormat int32 = gl.RGBA8
	var format uint32 = gl.RGBA
	if desc.Format == gpu.RGB {
		internalFormat = gl.RGB8
		format = gl.RGB
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	}

	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	minFilter, magFilter := filterMode(desc.Filter, desc.Mipmaps)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, magFilter)

	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		internalFormat,
		int32(desc.Width),
		int32(desc.Height),
		0,
		format,
		gl.UNSIGNED_BYTE,
		gl.Ptr(desc.Pixels),
	)

	if desc.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)
	if desc.Format == gpu.RGB {
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	}
	return textureID, nil
}

func filterMode(f gpu.Filter, mipmaps bool) (minFilter, magFilter int32) {
	switch {
	case f == gpu.Linear && mipmaps:
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	case f == gpu.Linear:
		return gl.LINEAR, gl.LINEAR
	default:
		return gl.NEAREST, gl.NEAREST
	}
}

func (d *Device) DeleteTexture(id uint32) {
	gl.DeleteTextures(1, &id)
}

func (d *Device) BindTexture(unit int, id uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, id)
}

func (d *Device) CreateVertexArray(vertices []float32, indices []uint32) (gpu.VertexArray, error) {
	if len(vertices) == 0 || len(vertices)%gpu.FloatsPerVertex != 0 {
		return gpu.VertexArray{}, errors.New("vertex data is empty or not a whole number of vertices")
	}
	if len(indices) == 0 {
		return gpu.VertexArray{}, errors.New("index data is empty")
	}

	var va gpu.VertexArray
	gl.GenBuffers(1, &va.VBO)
	gl.GenBuffers(1, &va.EBO)

	gl.BindBuffer(gl.ARRAY_BUFFER, va.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	// The element binding is vertex array state, so it is attached when
	// each context's vertex array object is built.
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, va.EBO)
	gl.BufferData(gl.COPY_WRITE_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)

	va.IndexCount = int32(len(indices))
	d.vaos[va.VBO] = make(map[int]uint32)
	return va, nil
}

// vertexArray returns the current context's vertex array object for va,
// building it on first use.
func (d *Device) vertexArray(va gpu.VertexArray) uint32 {
	perCtx, ok := d.vaos[va.VBO]
	if !ok {
		perCtx = make(map[int]uint32)
		d.vaos[va.VBO] = perCtx
	}
	if vao, ok := perCtx[d.ctx]; ok {
		return vao
	}

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, va.VBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, va.EBO)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, gpu.VertexStride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, gpu.VertexStride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, gpu.VertexStride, gl.PtrOffset(6*4))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	perCtx[d.ctx] = vao
	return vao
}

func (d *Device) DeleteVertexArray(va gpu.VertexArray) {
	for ctx, vao := range d.vaos[va.VBO] {
		if ctx == d.ctx {
			gl.DeleteVertexArrays(1, &vao)
		} else {
			d.orphans[ctx] = append(d.orphans[ctx], vao)
		}
	}
	delete(d.vaos, va.VBO)
	gl.DeleteBuffers(1, &va.VBO)
	gl.DeleteBuffers(1, &va.EBO)
}

func (d *Device) DrawIndexed(va gpu.VertexArray) {
	gl.BindVertexArray(d.vertexArray(va))
	gl.DrawElements(gl.TRIANGLES, va.IndexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	gl.ActiveTexture(gl.TEXTURE0)
}

func (d *Device) CompileShader(stage gpu.Stage, source string) (uint32, error) {
	shaderType := uint32(gl.VERTEX_SHADER)
	if stage == gpu.FragmentStage {
		shaderType = gl.FRAGMENT_SHADER
	}

	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, &gpu.CompileError{Log: strings.TrimRight(logText, "\x00")}
	}
	return shader, nil
}

func (d *Device) DeleteShader(id uint32) {
	gl.DeleteShader(id)
}

func (d *Device) LinkProgram(vertex, fragment uint32) (uint32, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertex)
	gl.AttachShader(program, fragment)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
		gl.DeleteProgram(program)
		return 0, &gpu.CompileError{Log: strings.TrimRight(logText, "\x00")}
	}
	gl.DetachShader(program, vertex)
	gl.DetachShader(program, fragment)
	return program, nil
}

func (d *Device) DeleteProgram(id uint32) {
	gl.DeleteProgram(id)
}

func (d *Device) UseProgram(id uint32) {
	gl.UseProgram(id)
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) UniformMat4(location int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (d *Device) UniformVec3(location int32, v mgl32.Vec3) {
	gl.Uniform3f(location, v[0], v[1], v[2])
}

func (d *Device) UniformVec4(location int32, v mgl32.Vec4) {
	gl.Uniform4f(location, v[0], v[1], v[2], v[3])
}

func (d *Device) UniformFloat(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (d *Device) UniformInt(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (d *Device) ReadPixels(x, y, width, height int32) []byte {
	pixels := make([]byte, int(width)*int(height)*4)
	if len(pixels) == 0 {
		return pixels
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

var _ gpu.Device = (*Device)(nil)
