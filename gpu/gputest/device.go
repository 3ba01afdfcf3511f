// Package gputest provides a recording gpu.Device for tests.
package gputest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/twinscreen/gpu"
)

// DrawCall is one recorded DrawIndexed submission.
type DrawCall struct {
	Context  uintptr
	Program  uint32
	VAO      uint32
	VBO      uint32
	EBO      uint32
	Indices  int32
	Textures map[int]uint32
	Model    mgl32.Mat4
}

type objectKind int

const (
	kindTexture objectKind = iota
	kindBuffer
	kindVertexArray
	kindShader
	kindProgram
)

// Device records calls and keeps track of live objects. Set Context to a
// function reporting the current context; calls made while it reports none
// are collected in Violations. Vertex array objects are owned by the
// context that built them, and binding one anywhere else is a violation.
type Device struct {
	mu sync.Mutex

	Context func() (uintptr, bool)

	InitErr error
	// FailCompile fails compilation of any source containing the marker.
	FailCompile string
	// FailLink fails every link.
	FailLink bool

	inits      int
	terminates int
	nextID     uint32
	live       map[uint32]objectKind
	shaderSrc  map[uint32]string
	uniforms   map[uint32]map[string]bool
	locations  map[int32]locKey
	nextLoc    int32
	values     map[locKey]any
	program    uint32
	textures   map[int]uint32
	viewports  [][4]int32
	clears     [][4]float32
	depthTests int
	textureLog []gpu.TextureDesc

	ctx       int
	ctxHandle map[int]uintptr
	vaos      map[uint32]map[int]uint32
	vaoOwner  map[uint32]uintptr
	orphans   map[int][]uint32

	Calls      []string
	Draws      []DrawCall
	Violations []string
}

type locKey struct {
	program uint32
	name    string
}

func New() *Device {
	return &Device{
		nextID:    1,
		live:      make(map[uint32]objectKind),
		shaderSrc: make(map[uint32]string),
		uniforms:  make(map[uint32]map[string]bool),
		locations: make(map[int32]locKey),
		values:    make(map[locKey]any),
		textures:  make(map[int]uint32),
		ctxHandle: make(map[int]uintptr),
		vaos:      make(map[uint32]map[int]uint32),
		vaoOwner:  make(map[uint32]uintptr),
		orphans:   make(map[int][]uint32),
	}
}

func (d *Device) record(name string) uintptr {
	d.Calls = append(d.Calls, name)
	if d.Context == nil {
		return 0
	}
	h, ok := d.Context()
	if !ok {
		d.Violations = append(d.Violations, name)
	}
	return h
}

func (d *Device) alloc(kind objectKind) uint32 {
	id := d.nextID
	d.nextID++
	d.live[id] = kind
	return id
}

func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Init")
	if d.InitErr != nil {
		return d.InitErr
	}
	d.inits++
	return nil
}

func (d *Device) Terminate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, "Terminate")
	d.terminates++
	// Pending vertex arrays die with their contexts.
	for _, pending := range d.orphans {
		for _, vao := range pending {
			delete(d.live, vao)
			delete(d.vaoOwner, vao)
		}
	}
	clear(d.orphans)
	clear(d.ctxHandle)
	d.ctx = gpu.NoContext
}

func (d *Device) SetContext(ctx int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, "SetContext")
	d.ctx = ctx
	if ctx == gpu.NoContext {
		return
	}
	if d.Context != nil {
		h, ok := d.Context()
		if !ok {
			d.Violations = append(d.Violations, fmt.Sprintf("SetContext(%d) with no context current", ctx))
		} else {
			d.bindToken(ctx, h, "SetContext")
		}
	}
	for _, vao := range d.orphans[ctx] {
		delete(d.live, vao)
		delete(d.vaoOwner, vao)
	}
	delete(d.orphans, ctx)
}

// bindToken remembers which context a token stands for and reports a token
// that is reused for a different one.
func (d *Device) bindToken(ctx int, h uintptr, call string) {
	prev, ok := d.ctxHandle[ctx]
	if !ok {
		d.ctxHandle[ctx] = h
		return
	}
	if prev != h {
		d.Violations = append(d.Violations, fmt.Sprintf("%s: context token %d is stale", call, ctx))
	}
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Viewport")
	d.viewports = append(d.viewports, [4]int32{x, y, width, height})
}

func (d *Device) EnableDepthTest() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("EnableDepthTest")
	d.depthTests++
}

func (d *Device) Clear(r, g, b, a float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Clear")
	d.clears = append(d.clears, [4]float32{r, g, b, a})
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateTexture")
	if desc.Width <= 0 || desc.Height <= 0 || len(desc.Pixels) < desc.Width*desc.Height*desc.Format.Channels() {
		return 0, gpu.ErrInvalidTexture
	}
	d.textureLog = append(d.textureLog, desc)
	return d.alloc(kindTexture), nil
}

func (d *Device) DeleteTexture(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteTexture")
	delete(d.live, id)
}

func (d *Device) BindTexture(unit int, id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("BindTexture")
	d.textures[unit] = id
}

func (d *Device) CreateVertexArray(vertices []float32, indices []uint32) (gpu.VertexArray, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateVertexArray")
	if len(vertices) == 0 || len(vertices)%gpu.FloatsPerVertex != 0 || len(indices) == 0 {
		return gpu.VertexArray{}, errInvalidGeometry
	}
	va := gpu.VertexArray{
		VBO:        d.alloc(kindBuffer),
		EBO:        d.alloc(kindBuffer),
		IndexCount: int32(len(indices)),
	}
	d.vaos[va.VBO] = make(map[int]uint32)
	return va, nil
}

func (d *Device) DeleteVertexArray(va gpu.VertexArray) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteVertexArray")
	for ctx, vao := range d.vaos[va.VBO] {
		if ctx == d.ctx {
			delete(d.live, vao)
			delete(d.vaoOwner, vao)
		} else {
			d.orphans[ctx] = append(d.orphans[ctx], vao)
		}
	}
	delete(d.vaos, va.VBO)
	delete(d.live, va.VBO)
	delete(d.live, va.EBO)
}

func (d *Device) DrawIndexed(va gpu.VertexArray) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.record("DrawIndexed")
	if d.Context != nil {
		d.bindToken(d.ctx, h, "DrawIndexed")
	}
	if d.live[va.VBO] != kindBuffer || d.live[va.EBO] != kindBuffer {
		d.Violations = append(d.Violations, fmt.Sprintf("DrawIndexed: buffers %d/%d are not live", va.VBO, va.EBO))
	}
	perCtx, ok := d.vaos[va.VBO]
	if !ok {
		perCtx = make(map[int]uint32)
		d.vaos[va.VBO] = perCtx
	}
	vao, ok := perCtx[d.ctx]
	if !ok {
		vao = d.alloc(kindVertexArray)
		d.vaoOwner[vao] = h
		perCtx[d.ctx] = vao
	}
	if owner := d.vaoOwner[vao]; owner != h {
		d.Violations = append(d.Violations, fmt.Sprintf("DrawIndexed: vertex array %d belongs to context %#x, bound in %#x", vao, owner, h))
	}
	tex := make(map[int]uint32, len(d.textures))
	for k, v := range d.textures {
		tex[k] = v
	}
	model, _ := d.values[locKey{d.program, "model"}].(mgl32.Mat4)
	d.Draws = append(d.Draws, DrawCall{
		Context:  h,
		Program:  d.program,
		VAO:      vao,
		VBO:      va.VBO,
		EBO:      va.EBO,
		Indices:  va.IndexCount,
		Textures: tex,
		Model:    model,
	})
}

func (d *Device) CompileShader(stage gpu.Stage, source string) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CompileShader")
	if d.FailCompile != "" && strings.Contains(source, d.FailCompile) {
		return 0, &gpu.CompileError{Log: "0:1(1): error: " + stage.String() + " stage rejected"}
	}
	id := d.alloc(kindShader)
	d.shaderSrc[id] = source
	return id, nil
}

func (d *Device) DeleteShader(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteShader")
	delete(d.live, id)
	delete(d.shaderSrc, id)
}

func (d *Device) LinkProgram(vertex, fragment uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("LinkProgram")
	if d.FailLink {
		return 0, &gpu.CompileError{Log: "error: linking with uncompiled/unspecialized shader"}
	}
	id := d.alloc(kindProgram)
	names := make(map[string]bool)
	for _, src := range []string{d.shaderSrc[vertex], d.shaderSrc[fragment]} {
		for _, n := range uniformNames(src) {
			names[n] = true
		}
	}
	d.uniforms[id] = names
	return id, nil
}

// uniformNames collects the names of top-level "uniform T name;" declarations.
func uniformNames(src string) []string {
	var names []string
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "uniform ") {
			continue
		}
		fields := strings.Fields(strings.TrimSuffix(line, ";"))
		if len(fields) < 3 {
			continue
		}
		name := fields[len(fields)-1]
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = name[:i]
		}
		names = append(names, name)
	}
	return names
}

func (d *Device) DeleteProgram(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DeleteProgram")
	delete(d.live, id)
	delete(d.uniforms, id)
}

func (d *Device) UseProgram(id uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("UseProgram")
	d.program = id
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("UniformLocation")
	root := name
	if i := strings.IndexAny(root, ".["); i >= 0 {
		root = root[:i]
	}
	if !d.uniforms[program][root] {
		return -1
	}
	key := locKey{program, name}
	for loc, k := range d.locations {
		if k == key {
			return loc
		}
	}
	loc := d.nextLoc
	d.nextLoc++
	d.locations[loc] = key
	return loc
}

func (d *Device) setUniform(name string, location int32, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(name)
	key, ok := d.locations[location]
	if !ok || key.program != d.program {
		d.Violations = append(d.Violations, name+": location not valid for bound program")
		return
	}
	d.values[key] = v
}

func (d *Device) UniformMat4(location int32, m mgl32.Mat4) { d.setUniform("UniformMat4", location, m) }
func (d *Device) UniformVec3(location int32, v mgl32.Vec3) { d.setUniform("UniformVec3", location, v) }
func (d *Device) UniformVec4(location int32, v mgl32.Vec4) { d.setUniform("UniformVec4", location, v) }
func (d *Device) UniformFloat(location int32, v float32)   { d.setUniform("UniformFloat", location, v) }
func (d *Device) UniformInt(location int32, v int32)       { d.setUniform("UniformInt", location, v) }

func (d *Device) ReadPixels(x, y, width, height int32) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ReadPixels")
	return make([]byte, int(width)*int(height)*4)
}

// Uniform returns the last value uploaded for name on program.
func (d *Device) Uniform(program uint32, name string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.values[locKey{program, name}]
	return v, ok
}

// Live reports how many GPU objects have not been deleted.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// IsLive reports whether id names an undeleted object.
func (d *Device) IsLive(id uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.live[id]
	return ok
}

// BoundTexture reports the texture bound on unit.
func (d *Device) BoundTexture(unit int) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textures[unit]
}

func (d *Device) Inits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inits
}

func (d *Device) Terminates() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.terminates
}

func (d *Device) Viewports() [][4]int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][4]int32(nil), d.viewports...)
}

func (d *Device) Clears() [][4]float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][4]float32(nil), d.clears...)
}

func (d *Device) DepthTests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.depthTests
}

// Textures returns every accepted texture description in creation order.
func (d *Device) Textures() []gpu.TextureDesc {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]gpu.TextureDesc(nil), d.textureLog...)
}

// Count returns how many times the named call was made.
func (d *Device) Count(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.Calls {
		if c == name {
			n++
		}
	}
	return n
}

var _ gpu.Device = (*Device)(nil)
