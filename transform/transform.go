// Package transform holds a position/rotation/scale triple and the model
// matrix derived from it.
package transform

import "github.com/go-gl/mathgl/mgl32"

// Transform keeps its model matrix in sync with its fields. The matrix is
// composed as T * Rz * Ry * Rx * S so that scale applies first and
// translation last. The zero value is the identity transform.
type Transform struct {
	translation mgl32.Vec3
	rotation    mgl32.Vec3 // radians about X, Y, Z
	scale       mgl32.Vec3
	model       mgl32.Mat4
	// set is false until the first mutation of a zero value.
	set bool
}

// Identity returns a transform at the origin with unit scale.
func Identity() Transform {
	return Transform{
		scale: mgl32.Vec3{1, 1, 1},
		model: mgl32.Ident4(),
		set:   true,
	}
}

func (t *Transform) ensure() {
	if !t.set {
		*t = Identity()
	}
}

func (t *Transform) Translation() mgl32.Vec3 { return t.translation }
func (t *Transform) Rotation() mgl32.Vec3    { return t.rotation }

func (t *Transform) Scale() mgl32.Vec3 {
	if !t.set {
		return mgl32.Vec3{1, 1, 1}
	}
	return t.scale
}

// Model returns the current model matrix.
func (t *Transform) Model() mgl32.Mat4 {
	if !t.set {
		return mgl32.Ident4()
	}
	return t.model
}

func (t *Transform) SetTranslation(v mgl32.Vec3) {
	t.ensure()
	t.translation = v
	t.recompute()
}

func (t *Transform) SetRotationX(rad float32) {
	t.ensure()
	t.rotation[0] = rad
	t.recompute()
}

func (t *Transform) SetRotationY(rad float32) {
	t.ensure()
	t.rotation[1] = rad
	t.recompute()
}

func (t *Transform) SetRotationZ(rad float32) {
	t.ensure()
	t.rotation[2] = rad
	t.recompute()
}

// SetRotation sets all three axis angles at once.
func (t *Transform) SetRotation(v mgl32.Vec3) {
	t.ensure()
	t.rotation = v
	t.recompute()
}

func (t *Transform) SetScale(v mgl32.Vec3) {
	t.ensure()
	t.scale = v
	t.recompute()
}

func (t *Transform) recompute() {
	t.model = Compose(t.translation, t.rotation, t.scale)
}

// Compose builds T * Rz * Ry * Rx * S.
func Compose(translation, rotation, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(translation.X(), translation.Y(), translation.Z()).
		Mul4(mgl32.HomogRotate3DZ(rotation.Z())).
		Mul4(mgl32.HomogRotate3DY(rotation.Y())).
		Mul4(mgl32.HomogRotate3DX(rotation.X())).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}
