package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectComponentsReplaceByKind(t *testing.T) {
	o := NewObject("")
	assert.Equal(t, "New Object", o.Name())
	assert.False(t, o.Has(KindCamera))
	_, ok := o.Camera()
	assert.False(t, ok)

	first := NewCamera()
	o.AddComponent(first)
	second := NewCamera()
	second.SetPosition(mgl32.Vec3{1, 2, 3})
	o.AddComponent(second)

	got, ok := o.Camera()
	require.True(t, ok)
	assert.Same(t, second, got)

	o.AddComponent(NewMeshRef(nil))
	assert.True(t, o.Has(KindCamera))
	assert.True(t, o.Has(KindMeshRef))
	assert.False(t, o.Has(KindTransform))

	o.RemoveComponent(KindCamera)
	assert.False(t, o.Has(KindCamera))
	assert.True(t, o.Has(KindMeshRef))
	o.RemoveComponent(Kind(42))
	assert.False(t, o.Has(Kind(42)))
}

func TestTransformComponentStartsAtIdentity(t *testing.T) {
	tr := NewTransform()
	assert.True(t, tr.Model().ApproxEqual(mgl32.Ident4()))
	assert.Equal(t, "transform", tr.Kind().String())
}

func TestDistinctIDs(t *testing.T) {
	a, b := NewObject("a"), NewObject("a")
	assert.NotEqual(t, a.ID(), b.ID())
}
