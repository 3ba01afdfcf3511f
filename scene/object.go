package scene

import "github.com/google/uuid"

// Object is an entity: an identity, a name and at most one component of
// each kind.
type Object struct {
	id         uuid.UUID
	name       string
	components [kindCount]Component

	// OnUpdate, when set, runs once per Update of the screen holding the object.
	OnUpdate func(o *Object, dt float64)
}

func NewObject(name string) *Object {
	if name == "" {
		name = "New Object"
	}
	return &Object{id: uuid.New(), name: name}
}

func (o *Object) ID() uuid.UUID { return o.id }

func (o *Object) Name() string { return o.name }

func (o *Object) SetName(name string) { o.name = name }

// AddComponent attaches c, replacing any component of the same kind.
func (o *Object) AddComponent(c Component) {
	o.components[c.Kind()] = c
}

func (o *Object) RemoveComponent(k Kind) {
	if k >= 0 && k < kindCount {
		o.components[k] = nil
	}
}

func (o *Object) Has(k Kind) bool {
	return k >= 0 && k < kindCount && o.components[k] != nil
}

func (o *Object) Camera() (*Camera, bool) {
	c, ok := o.components[KindCamera].(*Camera)
	return c, ok
}

func (o *Object) MeshRef() (*MeshRef, bool) {
	m, ok := o.components[KindMeshRef].(*MeshRef)
	return m, ok
}

func (o *Object) Transform() (*Transform, bool) {
	t, ok := o.components[KindTransform].(*Transform)
	return t, ok
}
