//go:build !linux

package headless

import (
	"fmt"

	"github.com/richinsley/twinscreen/graphics"
)

func New() graphics.Platform { return unsupported{} }

type unsupported struct{}

func (unsupported) Init() error {
	return fmt.Errorf("egl headless rendering is not supported on this platform")
}

func (unsupported) Terminate()     {}
func (unsupported) PollEvents()    {}
func (unsupported) DetachCurrent() {}
func (unsupported) Time() float64  { return 0 }

func (unsupported) CreateWindow(graphics.WindowSpec, graphics.Window) (graphics.Window, error) {
	return nil, fmt.Errorf("egl headless rendering is not supported on this platform")
}
