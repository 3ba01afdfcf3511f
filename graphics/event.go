package graphics

type EventKind int

const (
	EventClose EventKind = iota
	EventKey
	EventResize
)

// Key uses GLFW key codes.
type Key int

const (
	KeySpace  Key = 32
	KeyA      Key = 65
	KeyD      Key = 68
	KeyS      Key = 83
	KeyW      Key = 87
	KeyEscape Key = 256
	KeyRight  Key = 262
	KeyLeft   Key = 263
	KeyDown   Key = 264
	KeyUp     Key = 265
)

type Action int

const (
	Release Action = iota
	Press
	Repeat
)

// Event is a single windowing event. Key and Action are set for EventKey,
// Width and Height for EventResize.
type Event struct {
	Kind   EventKind
	Key    Key
	Action Action
	Width  int
	Height int
}
