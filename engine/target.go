package engine

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/twinscreen/display"
	"github.com/richinsley/twinscreen/graphics"
	"github.com/richinsley/twinscreen/resource"
)

// renderTarget lets scenes draw through the bound display.
type renderTarget struct {
	displays *display.Manager
	res      *resource.Manager
}

func (t *renderTarget) Current() graphics.Screen { return t.displays.Current() }

func (t *renderTarget) Aspect(screen graphics.Screen) float32 { return t.displays.Aspect(screen) }

func (t *renderTarget) Draw(mesh *resource.Mesh, shader *resource.Shader, model mgl32.Mat4) error {
	return t.res.Draw(mesh, shader, model)
}
