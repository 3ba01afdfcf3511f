//go:build !debug

package display

import (
	"testing"

	"github.com/richinsley/twinscreen/graphics"
	"github.com/stretchr/testify/assert"
)

func TestScreenOperationsBeforeInit(t *testing.T) {
	p, dev := newFakes()
	m := New(p, dev, DefaultConfig())

	assert.ErrorIs(t, m.HandleEvents(), ErrNotInitialized)
	assert.ErrorIs(t, m.BeginUpperScreen(), ErrNotInitialized)
	assert.ErrorIs(t, m.EndUpperScreen(), ErrNotInitialized)
	assert.ErrorIs(t, m.BeginLowerScreen(), ErrNotInitialized)
	assert.ErrorIs(t, m.EndLowerScreen(), ErrNotInitialized)
	assert.ErrorIs(t, m.Clear(0, 0, 0, 1), ErrNotInitialized)
	_, err := m.Namespace().Acquire()
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.False(t, m.ShouldClose())
	assert.False(t, m.KeyPressed(graphics.KeyEscape))
	assert.Zero(t, m.Delta())
	assert.Empty(t, dev.Calls)
	m.Deinit()
	assert.Zero(t, p.Terminations())
}
