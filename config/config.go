package config

import (
	"fmt"

	"github.com/richinsley/twinscreen/display"
	"github.com/richinsley/twinscreen/gpu"
	"github.com/richinsley/twinscreen/options"
)

const (
	BackendWindow   = "window"
	BackendHeadless = "headless"
)

type Config struct {
	ApplicationName string        `yaml:"application_name"`
	Backend         string        `yaml:"backend"`
	Context         ContextConfig `yaml:"context"`
	VSync           bool          `yaml:"vsync"`
	Resizable       bool          `yaml:"resizable"`
	Hidden          bool          `yaml:"hidden"`
	Screens         ScreensConfig `yaml:"screens"`
	TextureFilter   string        `yaml:"texture_filter"`
	Texture         string        `yaml:"texture"`
	MaxFrames       int           `yaml:"max_frames"`
	Capture         CaptureConfig `yaml:"capture"`
	Shaders         ShaderConfig  `yaml:"shaders"`
	Log             LogConfig     `yaml:"log"`
}

type ContextConfig struct {
	// Versions are [major, minor] pairs tried in order.
	Versions [][2]int `yaml:"versions"`
	Core     bool     `yaml:"core"`
}

type ScreensConfig struct {
	Upper ScreenConfig `yaml:"upper"`
	Lower ScreenConfig `yaml:"lower"`
}

type ScreenConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// Monitor is the full-screen monitor index, or -1 for a window.
	Monitor    int        `yaml:"monitor"`
	ClearColor [4]float32 `yaml:"clear_color"`
}

type CaptureConfig struct {
	Upper      string `yaml:"upper"`
	Lower      string `yaml:"lower"`
	FPS        int    `yaml:"fps"`
	FFmpegPath string `yaml:"ffmpeg_path"`
	Codec      string `yaml:"codec"`
}

// ShaderConfig replaces the built-in shader with files.
type ShaderConfig struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
	ES       bool   `yaml:"es"`
	Watch    bool   `yaml:"watch"`
}

type LogConfig struct {
	Verbose bool `yaml:"verbose"`
}

func DefaultConfig() *Config {
	return &Config{
		ApplicationName: "twinscreen",
		Backend:         BackendWindow,
		Context: ContextConfig{
			Versions: [][2]int{{4, 1}, {3, 3}},
			Core:     true,
		},
		VSync: true,
		Screens: ScreensConfig{
			Upper: ScreenConfig{Title: "Upper Screen", Width: 800, Height: 480, Monitor: -1, ClearColor: [4]float32{0, 0, 0, 1}},
			Lower: ScreenConfig{Title: "Lower Screen", Width: 800, Height: 480, Monitor: -1, ClearColor: [4]float32{0, 0, 0, 1}},
		},
		TextureFilter: "nearest",
		Capture: CaptureConfig{
			FPS:        60,
			FFmpegPath: "ffmpeg",
			Codec:      "libx264",
		},
	}
}

// ValidationError names the offending key.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendWindow, BackendHeadless:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: window, headless")}
	}
	if len(c.Context.Versions) == 0 {
		return &ValidationError{Path: "context.versions", Err: fmt.Errorf("at least one context version is required")}
	}
	for i, v := range c.Context.Versions {
		if v[0] < 3 || (v[0] == 3 && v[1] < 2) || v[1] < 0 {
			return &ValidationError{Path: fmt.Sprintf("context.versions[%d]", i), Err: fmt.Errorf("%d.%d is below the 3.2 minimum", v[0], v[1])}
		}
	}
	for _, s := range []struct {
		path string
		sc   ScreenConfig
	}{{"screens.upper", c.Screens.Upper}, {"screens.lower", c.Screens.Lower}} {
		if s.sc.Width <= 0 || s.sc.Height <= 0 {
			return &ValidationError{Path: s.path, Err: fmt.Errorf("width and height must be positive, got %dx%d", s.sc.Width, s.sc.Height)}
		}
		if s.sc.Monitor < -1 {
			return &ValidationError{Path: s.path + ".monitor", Err: fmt.Errorf("monitor must be -1 or a monitor index")}
		}
		for _, ch := range s.sc.ClearColor {
			if ch < 0 || ch > 1 {
				return &ValidationError{Path: s.path + ".clear_color", Err: fmt.Errorf("components must be within [0, 1]")}
			}
		}
	}
	if _, err := gpu.ParseFilter(c.TextureFilter); err != nil {
		return &ValidationError{Path: "texture_filter", Err: err}
	}
	if c.MaxFrames < 0 {
		return &ValidationError{Path: "max_frames", Err: fmt.Errorf("max_frames must not be negative")}
	}
	if c.Capture.Upper != "" || c.Capture.Lower != "" {
		if c.Capture.FPS <= 0 {
			return &ValidationError{Path: "capture.fps", Err: fmt.Errorf("fps must be positive")}
		}
		if c.Capture.Codec == "" {
			return &ValidationError{Path: "capture.codec", Err: fmt.Errorf("codec is required when capturing")}
		}
		if c.Capture.Upper != "" && c.Capture.Upper == c.Capture.Lower {
			return &ValidationError{Path: "capture", Err: fmt.Errorf("upper and lower must record to different files")}
		}
	}
	if (c.Shaders.Vertex == "") != (c.Shaders.Fragment == "") {
		return &ValidationError{Path: "shaders", Err: fmt.Errorf("vertex and fragment must be set together")}
	}
	if c.Shaders.Watch && c.Shaders.Vertex == "" {
		return &ValidationError{Path: "shaders.watch", Err: fmt.Errorf("watch needs shader files")}
	}
	return nil
}

// ApplyOptions overlays command-line overrides.
func (c *Config) ApplyOptions(o *options.Options) {
	setString := func(dst *string, src *string) {
		if src != nil && *src != "" {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil && *src != 0 {
			*dst = *src
		}
	}
	setString(&c.Backend, o.Backend)
	setString(&c.Texture, o.Texture)
	setString(&c.TextureFilter, o.Filter)
	setInt(&c.MaxFrames, o.MaxFrames)
	if o.NoVSync != nil && *o.NoVSync {
		c.VSync = false
	}
	if o.Hidden != nil && *o.Hidden {
		c.Hidden = true
	}
	if o.UpperMonitor != nil && *o.UpperMonitor >= -1 {
		c.Screens.Upper.Monitor = *o.UpperMonitor
	}
	if o.LowerMonitor != nil && *o.LowerMonitor >= -1 {
		c.Screens.Lower.Monitor = *o.LowerMonitor
	}
	setString(&c.Capture.Upper, o.CaptureUpper)
	setString(&c.Capture.Lower, o.CaptureLower)
	setInt(&c.Capture.FPS, o.FPS)
	setString(&c.Capture.FFmpegPath, o.FFmpegPath)
	setString(&c.Capture.Codec, o.Codec)
	setString(&c.Shaders.Vertex, o.Vertex)
	setString(&c.Shaders.Fragment, o.Fragment)
	if o.ES != nil && *o.ES {
		c.Shaders.ES = true
	}
	if o.Watch != nil && *o.Watch {
		c.Shaders.Watch = true
	}
	if o.Verbose != nil && *o.Verbose {
		c.Log.Verbose = true
	}
	c.expandPaths()
}

// Display converts the window settings for the display manager.
func (c *Config) Display() display.Config {
	screen := func(sc ScreenConfig) display.ScreenConfig {
		title := sc.Title
		if c.ApplicationName != "" {
			title = c.ApplicationName + " - " + title
		}
		return display.ScreenConfig{Title: title, Width: sc.Width, Height: sc.Height, Monitor: sc.Monitor}
	}
	versions := make([]display.Version, len(c.Context.Versions))
	for i, v := range c.Context.Versions {
		versions[i] = display.Version{Major: v[0], Minor: v[1]}
	}
	return display.Config{
		Screens:     [2]display.ScreenConfig{screen(c.Screens.Upper), screen(c.Screens.Lower)},
		Versions:    versions,
		CoreProfile: c.Context.Core,
		Resizable:   c.Resizable,
		VSync:       c.VSync,
		Hidden:      c.Hidden,
	}
}

// Filter is the parsed texture filter. Validate first.
func (c *Config) Filter() gpu.Filter {
	f, _ := gpu.ParseFilter(c.TextureFilter)
	return f
}
