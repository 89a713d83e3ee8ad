package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDimensions  = errors.New("invalid grid dimensions")
	ErrShaderNotFound     = errors.New("shader not found")
	ErrShaderRegistryFull = errors.New("shader registry is full")
	ErrOutOfMemory        = errors.New("out of GPU memory")
	ErrMeshDestroyed      = errors.New("mesh has been destroyed")
	ErrBackendNotReady    = errors.New("renderer backend not initialized")
	ErrUnknown            = errors.New("unknown")
)

// ShaderCompileError reports a stage that failed to compile. Log holds the
// driver diagnostic verbatim.
type ShaderCompileError struct {
	Name  string
	Stage string
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("shader '%s': %s stage failed to compile: %s", e.Name, e.Stage, strings.TrimSpace(e.Log))
}

// ShaderLinkError reports a program that failed to link.
type ShaderLinkError struct {
	Name string
	Log  string
}

func (e *ShaderLinkError) Error() string {
	return fmt.Sprintf("shader '%s': program failed to link: %s", e.Name, strings.TrimSpace(e.Log))
}

// MeshAllocationError is returned when the backend cannot create or fill one
// of the buffers backing a mesh.
type MeshAllocationError struct {
	Resource string
	Bytes    uint64
	Err      error
}

func (e *MeshAllocationError) Error() string {
	return fmt.Sprintf("failed to allocate %s (%d bytes): %v", e.Resource, e.Bytes, e.Err)
}

func (e *MeshAllocationError) Unwrap() error {
	return e.Err
}

// UniformNotFoundError is a warning: draws carry on without the uniform.
type UniformNotFoundError struct {
	Program uint32
	Name    string
}

func (e *UniformNotFoundError) Error() string {
	return fmt.Sprintf("uniform '%s' not found in program %d", e.Name, e.Program)
}
