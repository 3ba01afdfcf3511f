package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/twinscreen/config"
	"github.com/richinsley/twinscreen/engine"
	"github.com/richinsley/twinscreen/glfwcontext"
	"github.com/richinsley/twinscreen/gpu/glcore"
	"github.com/richinsley/twinscreen/graphics"
	"github.com/richinsley/twinscreen/headless"
	"github.com/richinsley/twinscreen/options"
	"github.com/richinsley/twinscreen/resource"
	"github.com/richinsley/twinscreen/scene"
)

const (
	turnSpeed       = 1.5 // radians per second
	spinSpeed       = 0.6
	headlessFrames  = 300
	lowerCameraDist = 4
)

func loadConfig(opts *options.Options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *opts.ConfigPath != "" {
		cfg, err = config.LoadFromPath(*opts.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyOptions(opts)
	if cfg.Backend == config.BackendHeadless && cfg.MaxFrames == 0 {
		log.Printf("Headless rendering has no window to close, stopping after %d frames", headlessFrames)
		cfg.MaxFrames = headlessFrames
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildScene puts one spinning textured cube on both screens. The upper
// camera looks at it head on and turns with the arrow keys, the lower one
// looks down from above.
func buildScene(e *engine.Engine, cfg *config.Config) (*scene.Scene, error) {
	res := e.Resources()
	var tex *resource.Texture
	var err error
	if cfg.Texture != "" {
		tex, err = res.CreateTextureFromFile(cfg.Texture)
	} else {
		tex, err = res.CreateTextureFromImage(checkerboard(256, 8), "checkerboard")
	}
	if err != nil {
		return nil, err
	}
	vertices, indices := cube()
	mesh, err := res.CreateMesh(vertices, indices, []*resource.Texture{tex})
	if err != nil {
		return nil, err
	}

	s := e.CreateScene()

	upperCam := scene.NewCamera()
	upperCam.SetPosition(mgl32.Vec3{0, 0, 5})
	camera := scene.NewObject("Camera")
	camera.AddComponent(upperCam)
	displays := e.Displays()
	camera.OnUpdate = func(o *scene.Object, dt float64) {
		c, _ := o.Camera()
		step := float32(dt) * turnSpeed
		switch {
		case displays.KeyPressed(graphics.KeyLeft), displays.KeyPressed(graphics.KeyA):
			c.Rotate(-step, 0)
		case displays.KeyPressed(graphics.KeyRight), displays.KeyPressed(graphics.KeyD):
			c.Rotate(step, 0)
		}
		switch {
		case displays.KeyPressed(graphics.KeyUp), displays.KeyPressed(graphics.KeyW):
			c.Rotate(0, step)
		case displays.KeyPressed(graphics.KeyDown), displays.KeyPressed(graphics.KeyS):
			c.Rotate(0, -step)
		}
	}
	s.AddObjectUpper(camera)
	s.SetUpperCamera(camera.ID())

	lowerCam := scene.NewCameraAt(mgl32.Vec3{0, lowerCameraDist, 0.01}, mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(-90), mgl32.DegToRad(-89))
	overhead := scene.NewObject("Overhead Camera")
	overhead.AddComponent(lowerCam)
	s.AddObjectLower(overhead)
	s.SetLowerCamera(overhead.ID())

	for _, screen := range graphics.Screens {
		obj := scene.NewObject(fmt.Sprintf("Cube (%s)", screen))
		obj.AddComponent(scene.NewMeshRef(mesh))
		tr := scene.NewTransform()
		obj.AddComponent(tr)
		angle := float32(0)
		obj.OnUpdate = func(o *scene.Object, dt float64) {
			angle += float32(dt) * spinSpeed
			tr.SetRotation(mgl32.Vec3{angle * 0.5, angle, 0})
		}
		if err := s.AddObject(screen, obj); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func main() {
	opts := options.Register(flag.CommandLine)
	flag.Parse()

	if *opts.Help {
		fmt.Println("twinscreen - dual screen renderer")
		flag.PrintDefaults()
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	var platform graphics.Platform
	switch cfg.Backend {
	case config.BackendHeadless:
		platform = headless.New()
	default:
		platform = glfwcontext.New()
	}

	e := engine.New(cfg, platform, glcore.New())
	if err := e.Init(); err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	s, err := buildScene(e, cfg)
	if err != nil {
		e.Close()
		log.Fatalf("Failed to build scene: %v", err)
	}
	if err := e.SetMainScene(s.ID()); err != nil {
		e.Close()
		log.Fatalf("Failed to set main scene: %v", err)
	}

	log.Println("Starting render loop...")
	runErr := e.Run()
	e.Close()
	if runErr != nil {
		log.Printf("Engine encountered an error: %v", runErr)
		os.Exit(1)
	}
}
