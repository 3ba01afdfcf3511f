package graphics

import "runtime"

// ThreadLock pins the calling goroutine to its OS thread, as windowing
// and context APIs require. Lock and Unlock are idempotent, so a failed
// Init that is retried does not stack locks.
type ThreadLock struct {
	held bool
}

func (l *ThreadLock) Lock() {
	if !l.held {
		runtime.LockOSThread()
		l.held = true
	}
}

func (l *ThreadLock) Unlock() {
	if l.held {
		runtime.UnlockOSThread()
		l.held = false
	}
}

func (l *ThreadLock) Held() bool { return l.held }
