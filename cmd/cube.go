package main

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/twinscreen/gpu"
	"github.com/richinsley/twinscreen/resource"
)

// cubeFaces lists each face's normal and the two axes spanning it.
var cubeFaces = []struct {
	normal, u, v mgl32.Vec3
}{
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
}

// cube returns a unit cube centered on the origin, four vertices per face
// so every face gets its own normal and full texture.
func cube() ([]gpu.Vertex, []uint32) {
	corners := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	var vertices []gpu.Vertex
	var indices []uint32
	for _, f := range cubeFaces {
		base := uint32(len(vertices))
		for _, c := range corners {
			pos := f.normal.Mul(0.5).
				Add(f.u.Mul(c.X() - 0.5)).
				Add(f.v.Mul(c.Y() - 0.5))
			vertices = append(vertices, gpu.Vertex{Position: pos, Normal: f.normal, TexCoords: c})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// checkerboard is the texture used when no image file is given.
func checkerboard(size, cells int) *resource.Image {
	pix := make([]byte, size*size*4)
	cell := size / cells
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := byte(64)
			if (x/cell+y/cell)%2 == 0 {
				v = 255
			}
			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
		}
	}
	return &resource.Image{Width: size, Height: size, Format: gpu.RGBA, Pix: pix}
}
