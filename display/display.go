// Package display owns the two windows and their graphics contexts and
// sequences which one is current.
package display

import (
	"github.com/richinsley/twinscreen/graphics"
)

// Version is an OpenGL context version.
type Version struct {
	Major, Minor int
}

// ScreenConfig describes one display's window.
type ScreenConfig struct {
	Title  string
	Width  int
	Height int
	// Monitor selects a full-screen monitor; -1 is windowed.
	Monitor int
}

type Config struct {
	Screens [2]ScreenConfig
	// Versions are tried in order until one can be created.
	Versions    []Version
	CoreProfile bool
	Resizable   bool
	VSync       bool
	Hidden      bool
}

func DefaultConfig() Config {
	return Config{
		Screens: [2]ScreenConfig{
			{Title: "Upper Screen", Width: 800, Height: 480, Monitor: -1},
			{Title: "Lower Screen", Width: 800, Height: 480, Monitor: -1},
		},
		Versions:    []Version{{4, 1}, {3, 3}},
		CoreProfile: true,
		VSync:       true,
	}
}

// Display is one output surface with its window and context.
type Display struct {
	screen        graphics.Screen
	window        graphics.Window
	width, height int
	shouldClose   bool
	events        []graphics.Event
	viewportStale bool
}

func (d *Display) Screen() graphics.Screen { return d.screen }

// Size is the framebuffer size in pixels.
func (d *Display) Size() (int, int) { return d.width, d.height }

// Aspect is width over height, or 1 for an empty framebuffer.
func (d *Display) Aspect() float32 {
	if d.height == 0 {
		return 1
	}
	return float32(d.width) / float32(d.height)
}

func (d *Display) Handle() uintptr { return d.window.Handle() }

func (d *Display) ShouldClose() bool { return d.shouldClose }

// Events returns the events drained by the last HandleEvents.
func (d *Display) Events() []graphics.Event { return d.events }

func (d *Display) ContextVersion() (int, int) { return d.window.ContextVersion() }

func (d *Display) spec(cfg Config, v Version) graphics.WindowSpec {
	sc := cfg.Screens[d.screen.Index()]
	return graphics.WindowSpec{
		Title:       sc.Title,
		Width:       sc.Width,
		Height:      sc.Height,
		Major:       v.Major,
		Minor:       v.Minor,
		CoreProfile: cfg.CoreProfile,
		Resizable:   cfg.Resizable,
		Visible:     !cfg.Hidden,
		VSync:       cfg.VSync,
		Monitor:     sc.Monitor,
	}
}
