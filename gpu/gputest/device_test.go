package gputest

import (
	"testing"

	"github.com/richinsley/twinscreen/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withContexts returns a device whose current context is *cur.
func withContexts(cur *uintptr) *Device {
	d := New()
	d.Context = func() (uintptr, bool) { return *cur, *cur != 0 }
	return d
}

func triangle(t *testing.T, d *Device) gpu.VertexArray {
	t.Helper()
	va, err := d.CreateVertexArray(make([]float32, 3*gpu.FloatsPerVertex), []uint32{0, 1, 2})
	require.NoError(t, err)
	return va
}

func TestVertexArrayPerContext(t *testing.T) {
	var cur uintptr = 0x10
	d := withContexts(&cur)
	d.SetContext(1)
	va := triangle(t, d)

	d.DrawIndexed(va)
	cur = 0x20
	d.SetContext(2)
	d.DrawIndexed(va)
	d.DrawIndexed(va)

	require.Len(t, d.Draws, 3)
	assert.NotEqual(t, d.Draws[0].VAO, d.Draws[1].VAO)
	assert.Equal(t, d.Draws[1].VAO, d.Draws[2].VAO)
	for _, dc := range d.Draws {
		assert.Equal(t, va.VBO, dc.VBO)
		assert.Equal(t, va.EBO, dc.EBO)
	}
	assert.Empty(t, d.Violations)
}

func TestVertexArrayBoundInForeignContext(t *testing.T) {
	var cur uintptr = 0x10
	d := withContexts(&cur)
	d.SetContext(1)
	va := triangle(t, d)
	d.DrawIndexed(va)

	// Another context is made current without telling the device.
	cur = 0x20
	d.DrawIndexed(va)

	require.Len(t, d.Draws, 2)
	assert.Equal(t, d.Draws[0].VAO, d.Draws[1].VAO)
	require.Len(t, d.Violations, 2)
	assert.Contains(t, d.Violations[0], "context token 1 is stale")
	assert.Contains(t, d.Violations[1], "belongs to context 0x10, bound in 0x20")
}

func TestDeleteVertexArrayDefersOtherContexts(t *testing.T) {
	var cur uintptr = 0x10
	d := withContexts(&cur)
	d.SetContext(1)
	va := triangle(t, d)
	d.DrawIndexed(va)
	cur = 0x20
	d.SetContext(2)
	d.DrawIndexed(va)
	lower := d.Draws[1].VAO

	cur = 0x10
	d.SetContext(1)
	d.DeleteVertexArray(va)
	assert.Equal(t, 1, d.Live())
	assert.True(t, d.IsLive(lower))

	cur = 0x20
	d.SetContext(2)
	assert.Zero(t, d.Live())
	assert.Empty(t, d.Violations)
}

func TestTerminateFreesPendingVertexArrays(t *testing.T) {
	var cur uintptr = 0x10
	d := withContexts(&cur)
	d.SetContext(1)
	va := triangle(t, d)
	cur = 0x20
	d.SetContext(2)
	d.DrawIndexed(va)
	cur = 0x10
	d.SetContext(1)
	d.DeleteVertexArray(va)
	require.Equal(t, 1, d.Live())

	d.Terminate()
	assert.Zero(t, d.Live())
}
