package renderer

import (
	"github.com/spaghettifunk/gridmesh/engine/math"
	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

// RendererBackend is the GPU API surface the engine systems are written
// against. Every method must be called from the goroutine that owns the
// graphics context. Handles are backend-defined; 0 is never a valid handle.
type RendererBackend interface {
	Initialize(appName string, appWidth, appHeight uint32) error
	Shutdown() error
	Resized(width, height uint32) error
	BeginFrame(deltaTime float64) error
	EndFrame(deltaTime float64) error

	// ShaderCreate allocates an empty stage object.
	ShaderCreate(stage metadata.ShaderStage) uint32
	// ShaderCompile compiles source into the stage and returns the compile
	// status together with the info log.
	ShaderCompile(shader uint32, source string) (bool, string)
	ShaderDestroy(shader uint32)

	ProgramCreate() uint32
	ProgramAttach(program, shader uint32)
	// ProgramLink links the attached stages and returns the link status
	// together with the info log.
	ProgramLink(program uint32) (bool, string)
	ProgramDestroy(program uint32)
	ProgramUse(program uint32)
	// UniformLocation returns -1 when the program has no active uniform with
	// that name.
	UniformLocation(program uint32, name string) int32
	// SetUniformMatrix4 writes to the program in use. Location -1 is ignored.
	SetUniformMatrix4(location int32, value math.Mat4)

	VertexArrayCreate() uint32
	VertexArrayBind(vertexArray uint32)
	VertexArrayDestroy(vertexArray uint32)
	// VertexAttribute describes a float attribute sourced from the array
	// buffer currently bound, and enables it on the bound vertex array.
	VertexAttribute(attribute metadata.VertexAttribute, stride uint32)

	BufferCreate() uint32
	BufferBind(target metadata.BufferTarget, buffer uint32)
	// BufferLoad replaces the storage of the buffer bound to target with data.
	// Fails with an error wrapping core.ErrOutOfMemory when storage cannot be
	// allocated.
	BufferLoad(target metadata.BufferTarget, data []byte) error
	BufferDestroy(buffer uint32)

	// DrawIndexed draws count uint32 indices as a triangle list using the
	// program in use and the bound vertex array.
	DrawIndexed(count uint32)

	Stats() metadata.BackendStats
}
