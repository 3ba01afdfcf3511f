package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/twinscreen/resource"
	"github.com/richinsley/twinscreen/transform"
)

// Kind identifies one of the fixed component types.
type Kind int

const (
	KindCamera Kind = iota
	KindMeshRef
	KindTransform
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindCamera:
		return "camera"
	case KindMeshRef:
		return "mesh"
	case KindTransform:
		return "transform"
	}
	return "unknown"
}

// Component is implemented only by *Camera, *MeshRef and *Transform.
type Component interface {
	Kind() Kind
	component()
}

// Material is the Phong material uploaded as material.* for each mesh.
type Material struct {
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32
}

func DefaultMaterial() Material {
	return Material{
		Ambient:   mgl32.Vec3{0.725, 0.949, 1.0},
		Diffuse:   mgl32.Vec3{0.745, 0.949, 1.0},
		Specular:  mgl32.Vec3{0.5, 0.5, 0.5},
		Shininess: 32,
	}
}

// Light is the scene's single point light, uploaded as light.*.
type Light struct {
	Position mgl32.Vec3
	Ambient  mgl32.Vec3
	Diffuse  mgl32.Vec3
	Specular mgl32.Vec3
}

func DefaultLight() Light {
	return Light{
		Position: mgl32.Vec3{1.2, 1.0, 8.0},
		Ambient:  mgl32.Vec3{0.2, 0.2, 0.2},
		Diffuse:  mgl32.Vec3{0.5, 0.5, 0.5},
		Specular: mgl32.Vec3{1, 1, 1},
	}
}

// MeshRef makes an object renderable. The mesh stays owned by the
// resource manager.
type MeshRef struct {
	Mesh     *resource.Mesh
	Material Material
}

func NewMeshRef(mesh *resource.Mesh) *MeshRef {
	return &MeshRef{Mesh: mesh, Material: DefaultMaterial()}
}

func (*MeshRef) Kind() Kind { return KindMeshRef }
func (*MeshRef) component() {}

// Transform places an object in the world. Its model matrix is applied on
// top of the mesh's own.
type Transform struct {
	transform.Transform
}

func NewTransform() *Transform {
	return &Transform{Transform: transform.Identity()}
}

func (*Transform) Kind() Kind { return KindTransform }
func (*Transform) component() {}
