package gpu

import "github.com/go-gl/mathgl/mgl32"

// FloatsPerVertex is the interleaved layout: position(3) normal(3) uv(2).
const FloatsPerVertex = 8

// VertexStride is the byte stride of one interleaved vertex.
const VertexStride = FloatsPerVertex * 4

type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	TexCoords mgl32.Vec2
}

// VertexFromArray builds a vertex from eight packed floats.
func VertexFromArray(a [8]float32) Vertex {
	return Vertex{
		Position:  mgl32.Vec3{a[0], a[1], a[2]},
		Normal:    mgl32.Vec3{a[3], a[4], a[5]},
		TexCoords: mgl32.Vec2{a[6], a[7]},
	}
}

func (v Vertex) Array() [8]float32 {
	return [8]float32{
		v.Position[0], v.Position[1], v.Position[2],
		v.Normal[0], v.Normal[1], v.Normal[2],
		v.TexCoords[0], v.TexCoords[1],
	}
}

// Interleave flattens vertices into the layout CreateVertexArray expects.
func Interleave(vertices []Vertex) []float32 {
	out := make([]float32, 0, len(vertices)*FloatsPerVertex)
	for _, v := range vertices {
		a := v.Array()
		out = append(out, a[:]...)
	}
	return out
}
