// Package frameclock tracks wall-clock time across outer frames and the
// elapsed time of each screen's frame segment.
package frameclock

import "github.com/richinsley/twinscreen/graphics"

// Source returns monotonic time in seconds.
type Source func() float64

type Clock struct {
	now Source

	origin     float64
	lastTick   float64
	ticked     bool
	frame      uint64
	frameDelta float64

	delta       float64
	segStart    [2]float64
	segOpen     [2]bool
	screenDelta [2]float64
}

func New(now Source) *Clock {
	c := &Clock{now: now}
	c.Reset()
	return c
}

// Reset restarts the clock at the current time.
func (c *Clock) Reset() {
	*c = Clock{now: c.now, origin: c.now()}
}

// Tick marks an outer frame boundary and returns the seconds since the
// previous one. The first tick after Reset measures from Reset.
func (c *Clock) Tick() float64 {
	t := c.now()
	if c.ticked {
		c.frameDelta = t - c.lastTick
	} else {
		c.frameDelta = t - c.origin
	}
	c.lastTick = t
	c.ticked = true
	c.frame++
	return c.frameDelta
}

// Begin starts the segment timer for screen.
func (c *Clock) Begin(screen graphics.Screen) {
	i := screen.Index()
	c.segStart[i] = c.now()
	c.segOpen[i] = true
}

// End stops the segment timer for screen and records the elapsed seconds
// as the current delta. Without a matching Begin it returns 0.
func (c *Clock) End(screen graphics.Screen) float64 {
	i := screen.Index()
	if !c.segOpen[i] {
		return 0
	}
	c.segOpen[i] = false
	d := c.now() - c.segStart[i]
	c.screenDelta[i] = d
	c.delta = d
	return d
}

// Delta is the elapsed time of the most recently ended segment.
func (c *Clock) Delta() float64 { return c.delta }

// ScreenDelta is the elapsed time of screen's last segment.
func (c *Clock) ScreenDelta(screen graphics.Screen) float64 {
	return c.screenDelta[screen.Index()]
}

// FrameDelta is the time between the last two ticks.
func (c *Clock) FrameDelta() float64 { return c.frameDelta }

// Frame counts ticks since Reset.
func (c *Clock) Frame() uint64 { return c.frame }

// Elapsed is the time since Reset.
func (c *Clock) Elapsed() float64 { return c.now() - c.origin }
