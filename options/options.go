package options

import "flag"

// Options holds command-line overrides. String and int fields left at their
// zero value and bools left false do not override the config file. The
// monitor flags override only when set to -1 or above.
type Options struct {
	ConfigPath   *string
	Help         *bool
	Backend      *string
	Texture      *string
	Filter       *string
	MaxFrames    *int
	NoVSync      *bool
	Hidden       *bool
	UpperMonitor *int
	LowerMonitor *int
	CaptureUpper *string // Output file for the upper screen recording.
	CaptureLower *string // Output file for the lower screen recording.
	FPS          *int
	FFmpegPath   *string
	Codec        *string
	Vertex       *string // GLSL vertex shader file replacing the built-in one.
	Fragment     *string // GLSL fragment shader file replacing the built-in one.
	ES           *bool   // Shader files are GLSL ES 3.0 and go through the translator.
	Watch        *bool   // Reload shader files when they change.
	Verbose      *bool
}

// Register defines every flag on fs.
func Register(fs *flag.FlagSet) *Options {
	return &Options{
		ConfigPath:   fs.String("config", "", "Path to the YAML config file (default ~/.config/twinscreen/config.yaml)"),
		Help:         fs.Bool("help", false, "Show help"),
		Backend:      fs.String("backend", "", "Display backend: window or headless"),
		Texture:      fs.String("texture", "", "Image file to texture the demo cube with"),
		Filter:       fs.String("filter", "", "Texture filter: nearest or linear"),
		MaxFrames:    fs.Int("frames", 0, "Stop after this many frames (0 runs until a window closes)"),
		NoVSync:      fs.Bool("novsync", false, "Disable vsync"),
		Hidden:       fs.Bool("hidden", false, "Create the windows hidden"),
		UpperMonitor: fs.Int("upper-monitor", -2, "Full-screen the upper display on this monitor (-1 windowed)"),
		LowerMonitor: fs.Int("lower-monitor", -2, "Full-screen the lower display on this monitor (-1 windowed)"),
		CaptureUpper: fs.String("capture-upper", "", "Record the upper screen to this video file"),
		CaptureLower: fs.String("capture-lower", "", "Record the lower screen to this video file"),
		FPS:          fs.Int("fps", 0, "Capture frame rate"),
		FFmpegPath:   fs.String("ffmpeg", "", "Path to the ffmpeg binary"),
		Codec:        fs.String("codec", "", "Capture video codec"),
		Vertex:       fs.String("vertex", "", "Vertex shader file"),
		Fragment:     fs.String("fragment", "", "Fragment shader file"),
		ES:           fs.Bool("es", false, "Shader files are GLSL ES 3.0"),
		Watch:        fs.Bool("watch", false, "Reload shader files on change"),
		Verbose:      fs.Bool("verbose", false, "Log every resource created"),
	}
}
