package display

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyInitialized = errors.New("display manager is already initialized")
	ErrNotInitialized     = errors.New("display manager is not initialized")

	// ErrScreenActive is returned when an operation needs no screen bound
	// but one is.
	ErrScreenActive = errors.New("a screen is already bound")

	// ErrScreenNotActive is returned when an operation needs a particular
	// screen bound and it is not.
	ErrScreenNotActive = errors.New("screen is not bound")

	ErrInvalidScreen    = errors.New("invalid screen")
	ErrNoContextVersion = errors.New("no requested context version could be created")
)

// InitializationError reports why Init failed. The manager is left
// uninitialized and Init may be retried.
type InitializationError struct {
	Stage string
	Err   error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("display init failed at %s: %v", e.Stage, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// notInitialized returns ErrNotInitialized, or panics with it in debug builds.
func notInitialized() error {
	if debugBuild {
		panic(ErrNotInitialized)
	}
	return ErrNotInitialized
}
