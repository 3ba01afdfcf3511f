package graphics

// Screen names one of the two displays. NoScreen doubles as the
// "no context current" binding state.
type Screen int

const (
	NoScreen Screen = iota
	Upper
	Lower
)

// Screens lists the two displays in frame order.
var Screens = [2]Screen{Upper, Lower}

func (s Screen) String() string {
	switch s {
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	default:
		return "none"
	}
}

// Index returns 0 for Upper and 1 for Lower. It panics for NoScreen.
func (s Screen) Index() int {
	switch s {
	case Upper:
		return 0
	case Lower:
		return 1
	}
	panic("graphics: no index for screen " + s.String())
}

// WindowSpec describes a window and the graphics context it carries.
type WindowSpec struct {
	Title  string
	Width  int
	Height int
	// Requested context version.
	Major, Minor int
	CoreProfile  bool
	Resizable    bool
	Visible      bool
	VSync        bool
	// Monitor selects a full-screen monitor by index; -1 means windowed.
	Monitor int
}

// Window is one native window with its own graphics context.
type Window interface {
	MakeCurrent()
	SwapBuffers()
	ShouldClose() bool
	SetShouldClose(bool)
	// DrainEvents returns the events buffered since the last call and clears the buffer.
	DrainEvents() []Event
	GetFramebufferSize() (int, int)
	// ContextVersion reports the version the driver actually created.
	ContextVersion() (major, minor int)
	// Handle identifies the native window.
	Handle() uintptr
	KeyPressed(key Key) bool
	Destroy()
}

// Platform is the windowing subsystem.
type Platform interface {
	Init() error
	Terminate()
	// CreateWindow creates a window. When share is non-nil the new context
	// shares share's resource namespace.
	CreateWindow(spec WindowSpec, share Window) (Window, error)
	PollEvents()
	// DetachCurrent makes no context current on the calling thread.
	DetachCurrent()
	// Time is a monotonic clock in seconds.
	Time() float64
}
