package graphics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadLockPairs(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		var l ThreadLock
		l.Unlock()
		assert.False(t, l.Held())

		// a retried Init locks twice and fails once
		l.Lock()
		l.Lock()
		assert.True(t, l.Held())
		l.Unlock()
		assert.False(t, l.Held())

		l.Lock()
		assert.True(t, l.Held())
		l.Unlock()
	}()
	<-done
}
