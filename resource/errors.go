package resource

import (
	"errors"
	"fmt"
)

var (
	ErrShaderCompile = errors.New("shader compilation failed")
	ErrShaderLink    = errors.New("shader link failed")
	ErrTextureInUse  = errors.New("texture is borrowed by a live mesh")
	ErrReleased      = errors.New("resource manager has been released")
	ErrNotOwned      = errors.New("resource is not owned by this manager")
)

type ShaderStage string

const (
	StageVertex   ShaderStage = "compile-vertex"
	StageFragment ShaderStage = "compile-fragment"
	StageLink     ShaderStage = "link"
)

// ShaderError carries the compiler or linker diagnostic.
type ShaderError struct {
	Stage ShaderStage
	Log   string
}

func (e *ShaderError) Error() string {
	return fmt.Sprintf("shader %s failed: %s", e.Stage, e.Log)
}

func (e *ShaderError) Is(target error) bool {
	if e.Stage == StageLink {
		return target == ErrShaderLink
	}
	return target == ErrShaderCompile
}

// LoadError reports an image that could not be read or decoded.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
