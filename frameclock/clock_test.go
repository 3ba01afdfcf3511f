package frameclock

import (
	"testing"

	"github.com/richinsley/twinscreen/graphics"
	"github.com/stretchr/testify/assert"
)

type fakeTime struct{ t float64 }

func (f *fakeTime) now() float64 { return f.t }

func TestTickMeasuresFrameBoundaries(t *testing.T) {
	ft := &fakeTime{t: 10}
	c := New(ft.now)

	ft.t = 10.5
	assert.InDelta(t, 0.5, c.Tick(), 1e-9)
	ft.t = 10.75
	assert.InDelta(t, 0.25, c.Tick(), 1e-9)
	assert.InDelta(t, 0.25, c.FrameDelta(), 1e-9)
	assert.Equal(t, uint64(2), c.Frame())
	assert.InDelta(t, 0.75, c.Elapsed(), 1e-9)
}

func TestSegmentsRecordDelta(t *testing.T) {
	ft := &fakeTime{}
	c := New(ft.now)

	c.Begin(graphics.Upper)
	ft.t = 0.016
	assert.InDelta(t, 0.016, c.End(graphics.Upper), 1e-9)
	assert.InDelta(t, 0.016, c.Delta(), 1e-9)

	c.Begin(graphics.Lower)
	ft.t = 0.020
	c.End(graphics.Lower)
	assert.InDelta(t, 0.004, c.Delta(), 1e-9)
	assert.InDelta(t, 0.016, c.ScreenDelta(graphics.Upper), 1e-9)
	assert.InDelta(t, 0.004, c.ScreenDelta(graphics.Lower), 1e-9)
}

func TestEndWithoutBegin(t *testing.T) {
	ft := &fakeTime{}
	c := New(ft.now)
	c.Begin(graphics.Upper)
	ft.t = 1
	c.End(graphics.Upper)

	ft.t = 5
	assert.Zero(t, c.End(graphics.Upper))
	assert.InDelta(t, 1.0, c.Delta(), 1e-9)
}

func TestReset(t *testing.T) {
	ft := &fakeTime{}
	c := New(ft.now)
	ft.t = 3
	c.Tick()
	c.Reset()
	assert.Zero(t, c.Frame())
	assert.Zero(t, c.Elapsed())
	ft.t = 4
	assert.InDelta(t, 1.0, c.Tick(), 1e-9)
}
