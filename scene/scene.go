// Package scene is a small entity graph rendered per screen.
package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/richinsley/twinscreen/graphics"
	"github.com/richinsley/twinscreen/resource"
)

// ErrScreenNotBound is returned when rendering a screen whose context is
// not the bound one.
var ErrScreenNotBound = errors.New("screen is not bound for rendering")

// NoActiveCameraError means a screen has no usable camera this frame.
// Rendering of that screen is skipped.
type NoActiveCameraError struct {
	Screen graphics.Screen
	Reason string
}

func (e *NoActiveCameraError) Error() string {
	return fmt.Sprintf("no active camera for %s screen: %s", e.Screen, e.Reason)
}

// Target is where a scene draws: the bound screen and its submission path.
type Target interface {
	Current() graphics.Screen
	Aspect(screen graphics.Screen) float32
	Draw(mesh *resource.Mesh, shader *resource.Shader, model mgl32.Mat4) error
}

// Scene holds one ordered object set and one active camera per screen.
type Scene struct {
	id      uuid.UUID
	objects [2][]*Object
	cameras [2]uuid.UUID

	Light Light
}

func New() *Scene {
	return &Scene{id: uuid.New(), Light: DefaultLight()}
}

func (s *Scene) ID() uuid.UUID { return s.id }

func screenIndex(screen graphics.Screen) (int, error) {
	if screen != graphics.Upper && screen != graphics.Lower {
		return 0, fmt.Errorf("invalid screen %s", screen)
	}
	return screen.Index(), nil
}

// AddObject adds obj to screen's set. An object with the same ID is
// replaced in place.
func (s *Scene) AddObject(screen graphics.Screen, obj *Object) error {
	i, err := screenIndex(screen)
	if err != nil {
		return err
	}
	for n, o := range s.objects[i] {
		if o.id == obj.id {
			s.objects[i][n] = obj
			return nil
		}
	}
	s.objects[i] = append(s.objects[i], obj)
	return nil
}

func (s *Scene) AddObjectUpper(obj *Object) { _ = s.AddObject(graphics.Upper, obj) }
func (s *Scene) AddObjectLower(obj *Object) { _ = s.AddObject(graphics.Lower, obj) }

// RemoveObject removes id from screen's set and reports whether it was there.
func (s *Scene) RemoveObject(screen graphics.Screen, id uuid.UUID) bool {
	i, err := screenIndex(screen)
	if err != nil {
		return false
	}
	n := len(s.objects[i])
	s.objects[i] = slices.DeleteFunc(s.objects[i], func(o *Object) bool { return o.id == id })
	return len(s.objects[i]) != n
}

func (s *Scene) Object(screen graphics.Screen, id uuid.UUID) (*Object, bool) {
	i, err := screenIndex(screen)
	if err != nil {
		return nil, false
	}
	for _, o := range s.objects[i] {
		if o.id == id {
			return o, true
		}
	}
	return nil, false
}

// Objects returns screen's objects in insertion order.
func (s *Scene) Objects(screen graphics.Screen) []*Object {
	i, err := screenIndex(screen)
	if err != nil {
		return nil
	}
	return slices.Clone(s.objects[i])
}

// SetCamera makes the object id the active camera of screen. The object is
// resolved at render time, so it may be added later.
func (s *Scene) SetCamera(screen graphics.Screen, id uuid.UUID) error {
	i, err := screenIndex(screen)
	if err != nil {
		return err
	}
	s.cameras[i] = id
	return nil
}

func (s *Scene) SetUpperCamera(id uuid.UUID) { _ = s.SetCamera(graphics.Upper, id) }
func (s *Scene) SetLowerCamera(id uuid.UUID) { _ = s.SetCamera(graphics.Lower, id) }

// ActiveCamera resolves screen's camera object and its Camera component.
func (s *Scene) ActiveCamera(screen graphics.Screen) (*Object, *Camera, error) {
	i, err := screenIndex(screen)
	if err != nil {
		return nil, nil, err
	}
	id := s.cameras[i]
	if id == uuid.Nil {
		return nil, nil, &NoActiveCameraError{Screen: screen, Reason: "none set"}
	}
	obj, ok := s.Object(screen, id)
	if !ok {
		return nil, nil, &NoActiveCameraError{Screen: screen, Reason: fmt.Sprintf("object %s is not on this screen", id)}
	}
	cam, ok := obj.Camera()
	if !ok {
		return nil, nil, &NoActiveCameraError{Screen: screen, Reason: fmt.Sprintf("object %q has no camera component", obj.name)}
	}
	return obj, cam, nil
}

// Update runs every OnUpdate hook of screen's objects in insertion order.
func (s *Scene) Update(screen graphics.Screen, dt float64) {
	for _, o := range s.Objects(screen) {
		if o.OnUpdate != nil {
			o.OnUpdate(o, dt)
		}
	}
}

func (s *Scene) UpdateUpper(dt float64) { s.Update(graphics.Upper, dt) }
func (s *Scene) UpdateLower(dt float64) { s.Update(graphics.Lower, dt) }

// Render draws every object of screen that carries a MeshRef. The target
// must have screen bound. Without a usable camera nothing is drawn and a
// *NoActiveCameraError is returned.
func (s *Scene) Render(screen graphics.Screen, dt float64, target Target, shader *resource.Shader) error {
	if _, err := screenIndex(screen); err != nil {
		return err
	}
	if cur := target.Current(); cur != screen {
		return fmt.Errorf("render %s with %s bound: %w", screen, cur, ErrScreenNotBound)
	}
	_, cam, err := s.ActiveCamera(screen)
	if err != nil {
		return err
	}

	shader.Use()
	shader.SetMat4("view", cam.ViewMatrix())
	shader.SetMat4("projection", cam.Projection(target.Aspect(screen)))
	shader.SetVec3("viewPos", cam.Position())
	shader.SetVec3("light.position", s.Light.Position)
	shader.SetVec3("light.ambient", s.Light.Ambient)
	shader.SetVec3("light.diffuse", s.Light.Diffuse)
	shader.SetVec3("light.specular", s.Light.Specular)

	for _, o := range s.objects[screen.Index()] {
		mr, ok := o.MeshRef()
		if !ok || mr.Mesh == nil {
			continue
		}
		model := mr.Mesh.Model()
		if tr, ok := o.Transform(); ok {
			model = tr.Model().Mul4(model)
		}
		shader.SetVec3("material.ambient", mr.Material.Ambient)
		shader.SetVec3("material.diffuse", mr.Material.Diffuse)
		shader.SetVec3("material.specular", mr.Material.Specular)
		shader.SetFloat("material.shininess", mr.Material.Shininess)
		if err := target.Draw(mr.Mesh, shader, model); err != nil {
			return fmt.Errorf("draw %q on %s: %w", o.name, screen, err)
		}
	}
	return nil
}

func (s *Scene) RenderUpper(dt float64, target Target, shader *resource.Shader) error {
	return s.Render(graphics.Upper, dt, target, shader)
}

func (s *Scene) RenderLower(dt float64, target Target, shader *resource.Shader) error {
	return s.Render(graphics.Lower, dt, target, shader)
}
