// Package opengl implements the renderer backend on an OpenGL 4.1 core
// context. The context must be current on the calling thread before
// Initialize is called.
package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/math"
	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

// Surface presents a finished frame.
type Surface interface {
	SwapBuffers()
}

type Config struct {
	ClearColour [3]float32
}

type Backend struct {
	config  Config
	surface Surface

	shaders      map[uint32]struct{}
	programs     map[uint32]struct{}
	vertexArrays map[uint32]struct{}
	buffers      map[uint32]uint64
	bufferBytes  uint64
	drawCalls    uint64

	// element buffers are part of vertex array state
	elementBinding map[uint32]uint32
	vertexArray    uint32
	arrayBuffer    uint32
}

func New(config Config, surface Surface) *Backend {
	return &Backend{
		config:         config,
		surface:        surface,
		shaders:        make(map[uint32]struct{}),
		programs:       make(map[uint32]struct{}),
		vertexArrays:   make(map[uint32]struct{}),
		buffers:        make(map[uint32]uint64),
		elementBinding: make(map[uint32]uint32),
	}
}

func (b *Backend) Initialize(appName string, appWidth, appHeight uint32) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL bindings: %w", err)
	}
	core.Logger().Info("OpenGL context",
		"app", appName,
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	c := b.config.ClearColour
	gl.ClearColor(c[0], c[1], c[2], 1)
	gl.Viewport(0, 0, int32(appWidth), int32(appHeight))
	return b.checkError("initialize")
}

func (b *Backend) Shutdown() error {
	for h := range b.programs {
		gl.DeleteProgram(h)
	}
	for h := range b.shaders {
		gl.DeleteShader(h)
	}
	for h := range b.vertexArrays {
		vao := h
		gl.DeleteVertexArrays(1, &vao)
	}
	for h := range b.buffers {
		buf := h
		gl.DeleteBuffers(1, &buf)
	}
	b.programs = make(map[uint32]struct{})
	b.shaders = make(map[uint32]struct{})
	b.vertexArrays = make(map[uint32]struct{})
	b.buffers = make(map[uint32]uint64)
	b.elementBinding = make(map[uint32]uint32)
	b.bufferBytes = 0
	return nil
}

func (b *Backend) Resized(width, height uint32) error {
	gl.Viewport(0, 0, int32(width), int32(height))
	return nil
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	return nil
}

func (b *Backend) EndFrame(deltaTime float64) error {
	if err := b.checkError("frame"); err != nil {
		core.LogWarn("%s", err)
	}
	if b.surface != nil {
		b.surface.SwapBuffers()
	}
	return nil
}

func (b *Backend) ShaderCreate(stage metadata.ShaderStage) uint32 {
	var kind uint32
	switch stage {
	case metadata.ShaderStageVertex:
		kind = gl.VERTEX_SHADER
	case metadata.ShaderStageFragment:
		kind = gl.FRAGMENT_SHADER
	default:
		return 0
	}
	h := gl.CreateShader(kind)
	if h != 0 {
		b.shaders[h] = struct{}{}
	}
	return h
}

func (b *Backend) ShaderCompile(shader uint32, source string) (bool, string) {
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		return false, infoLog(logLength, func(buf *uint8) {
			gl.GetShaderInfoLog(shader, logLength, nil, buf)
		})
	}
	return true, ""
}

func (b *Backend) ShaderDestroy(shader uint32) {
	if shader == 0 {
		return
	}
	gl.DeleteShader(shader)
	delete(b.shaders, shader)
}

func (b *Backend) ProgramCreate() uint32 {
	h := gl.CreateProgram()
	if h != 0 {
		b.programs[h] = struct{}{}
	}
	return h
}

func (b *Backend) ProgramAttach(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (b *Backend) ProgramLink(program uint32) (bool, string) {
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		return false, infoLog(logLength, func(buf *uint8) {
			gl.GetProgramInfoLog(program, logLength, nil, buf)
		})
	}
	return true, ""
}

func (b *Backend) ProgramDestroy(program uint32) {
	if program == 0 {
		return
	}
	gl.DeleteProgram(program)
	delete(b.programs, program)
}

func (b *Backend) ProgramUse(program uint32) {
	gl.UseProgram(program)
}

func (b *Backend) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (b *Backend) SetUniformMatrix4(location int32, value math.Mat4) {
	if location == -1 {
		return
	}
	gl.UniformMatrix4fv(location, 1, false, &value[0])
}

func (b *Backend) VertexArrayCreate() uint32 {
	var h uint32
	gl.GenVertexArrays(1, &h)
	if h != 0 {
		b.vertexArrays[h] = struct{}{}
	}
	return h
}

func (b *Backend) VertexArrayBind(vertexArray uint32) {
	gl.BindVertexArray(vertexArray)
	b.vertexArray = vertexArray
}

func (b *Backend) VertexArrayDestroy(vertexArray uint32) {
	if vertexArray == 0 {
		return
	}
	gl.DeleteVertexArrays(1, &vertexArray)
	delete(b.vertexArrays, vertexArray)
	delete(b.elementBinding, vertexArray)
	if b.vertexArray == vertexArray {
		b.vertexArray = 0
	}
}

func (b *Backend) VertexAttribute(attribute metadata.VertexAttribute, stride uint32) {
	gl.EnableVertexAttribArray(attribute.Location)
	gl.VertexAttribPointer(attribute.Location, attribute.Components, gl.FLOAT, false, int32(stride), gl.PtrOffset(int(attribute.Offset)))
}

func (b *Backend) BufferCreate() uint32 {
	var h uint32
	gl.GenBuffers(1, &h)
	if h != 0 {
		b.buffers[h] = 0
	}
	return h
}

func glTarget(target metadata.BufferTarget) uint32 {
	if target == metadata.BufferTargetElementArray {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func (b *Backend) BufferBind(target metadata.BufferTarget, buffer uint32) {
	gl.BindBuffer(glTarget(target), buffer)
	if target == metadata.BufferTargetElementArray {
		b.elementBinding[b.vertexArray] = buffer
	} else {
		b.arrayBuffer = buffer
	}
}

func (b *Backend) BufferLoad(target metadata.BufferTarget, data []byte) error {
	buffer := b.arrayBuffer
	if target == metadata.BufferTargetElementArray {
		buffer = b.elementBinding[b.vertexArray]
	}
	if buffer == 0 {
		return fmt.Errorf("no buffer bound to the %s target", target)
	}

	// drain stale errors so the check below only sees this upload
	for gl.GetError() != gl.NO_ERROR {
	}
	if len(data) == 0 {
		gl.BufferData(glTarget(target), 0, nil, gl.STATIC_DRAW)
	} else {
		gl.BufferData(glTarget(target), len(data), gl.Ptr(&data[0]), gl.STATIC_DRAW)
	}
	switch code := gl.GetError(); code {
	case gl.NO_ERROR:
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("glBufferData of %d bytes: %w", len(data), core.ErrOutOfMemory)
	default:
		return fmt.Errorf("glBufferData of %d bytes failed with 0x%04x", len(data), code)
	}

	b.bufferBytes = b.bufferBytes - b.buffers[buffer] + uint64(len(data))
	b.buffers[buffer] = uint64(len(data))
	return nil
}

func (b *Backend) BufferDestroy(buffer uint32) {
	if buffer == 0 {
		return
	}
	gl.DeleteBuffers(1, &buffer)
	b.bufferBytes -= b.buffers[buffer]
	delete(b.buffers, buffer)
	if b.arrayBuffer == buffer {
		b.arrayBuffer = 0
	}
	for vao, ebo := range b.elementBinding {
		if ebo == buffer {
			delete(b.elementBinding, vao)
		}
	}
}

func (b *Backend) DrawIndexed(count uint32) {
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, gl.PtrOffset(0))
	b.drawCalls++
}

func (b *Backend) Stats() metadata.BackendStats {
	return metadata.BackendStats{
		Shaders:      len(b.shaders),
		Programs:     len(b.programs),
		Buffers:      len(b.buffers),
		VertexArrays: len(b.vertexArrays),
		BufferBytes:  b.bufferBytes,
		DrawCalls:    b.drawCalls,
	}
}

func (b *Backend) checkError(where string) error {
	var codes []string
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		codes = append(codes, fmt.Sprintf("0x%04x", code))
	}
	if len(codes) > 0 {
		return fmt.Errorf("OpenGL errors during %s: %s", where, strings.Join(codes, ", "))
	}
	return nil
}

func infoLog(length int32, read func(buf *uint8)) string {
	if length <= 0 {
		return ""
	}
	log := make([]uint8, length)
	read(&log[0])
	return strings.TrimRight(string(log), "\x00")
}
