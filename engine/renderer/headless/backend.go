// Package headless implements the renderer backend without a GPU. It keeps
// every object in memory, validates shaders and draw state the way a desktop
// driver would and records draw calls so they can be inspected.
package headless

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/math"
	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

// Config tunes the simulated device.
type Config struct {
	// MemoryBudget caps the total bytes of buffer storage. 0 means unlimited.
	MemoryBudget uint64
	// RecordDraws keeps a copy of every draw call. Disable for long runs.
	RecordDraws bool
}

type shaderObject struct {
	stage    metadata.ShaderStage
	compiled bool
	iface    *stageInterface
}

type programObject struct {
	shaders  []uint32
	linked   bool
	uniforms []declaration
	values   map[int32]math.Mat4
}

// AttributeBinding is the recorded state of one vertex attribute.
type AttributeBinding struct {
	metadata.VertexAttribute
	Stride uint32
	Buffer uint32
}

type vertexArrayObject struct {
	elementBuffer uint32
	attributes    map[uint32]AttributeBinding
}

type bufferObject struct {
	data []byte
}

// DrawCall is a snapshot of one accepted DrawIndexed.
type DrawCall struct {
	Program     uint32
	VertexArray uint32
	Count       uint32
	// Uniforms maps uniform names to the matrix values set at draw time.
	Uniforms map[string]math.Mat4
}

type Backend struct {
	config Config
	id     uuid.UUID

	nextHandle uint32

	shaders      map[uint32]*shaderObject
	programs     map[uint32]*programObject
	vertexArrays map[uint32]*vertexArrayObject
	buffers      map[uint32]*bufferObject

	currentProgram     uint32
	currentVertexArray uint32
	arrayBuffer        uint32
	bytesInUse         uint64

	initialized bool
	inFrame     bool
	width       uint32
	height      uint32
	frame       uint64

	draws        []DrawCall
	drawCount    uint64
	invalidDraws int
	errors       []string
}

func New(config Config) *Backend {
	b := &Backend{
		config: config,
		id:     uuid.New(),
	}
	b.reset()
	return b
}

func (b *Backend) reset() {
	b.nextHandle = 0
	b.shaders = make(map[uint32]*shaderObject)
	b.programs = make(map[uint32]*programObject)
	b.vertexArrays = make(map[uint32]*vertexArrayObject)
	b.buffers = make(map[uint32]*bufferObject)
	b.currentProgram = 0
	b.currentVertexArray = 0
	b.arrayBuffer = 0
	b.bytesInUse = 0
}

func (b *Backend) Initialize(appName string, appWidth, appHeight uint32) error {
	b.width, b.height = appWidth, appHeight
	b.initialized = true
	core.Logger().Debug("headless context created", "app", appName, "context", b.id.String())
	return nil
}

func (b *Backend) Shutdown() error {
	stats := b.Stats()
	if stats.Shaders+stats.Programs+stats.Buffers+stats.VertexArrays > 0 {
		core.LogWarn("headless context %s torn down with live objects: %d shaders, %d programs, %d buffers, %d vertex arrays",
			b.id, stats.Shaders, stats.Programs, stats.Buffers, stats.VertexArrays)
	}
	b.reset()
	b.initialized = false
	return nil
}

func (b *Backend) Resized(width, height uint32) error {
	b.width, b.height = width, height
	return nil
}

func (b *Backend) BeginFrame(deltaTime float64) error {
	if b.inFrame {
		return fmt.Errorf("BeginFrame called twice without EndFrame")
	}
	b.inFrame = true
	return nil
}

func (b *Backend) EndFrame(deltaTime float64) error {
	if !b.inFrame {
		return fmt.Errorf("EndFrame called without BeginFrame")
	}
	b.inFrame = false
	b.frame++
	return nil
}

func (b *Backend) handle() uint32 {
	b.nextHandle++
	return b.nextHandle
}

func (b *Backend) invalidOperation(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	b.errors = append(b.errors, msg)
	core.LogDebug("headless: GL_INVALID_OPERATION: %s", msg)
}

func (b *Backend) ShaderCreate(stage metadata.ShaderStage) uint32 {
	if stage != metadata.ShaderStageVertex && stage != metadata.ShaderStageFragment {
		b.invalidOperation("unsupported shader stage %d", stage)
		return 0
	}
	h := b.handle()
	b.shaders[h] = &shaderObject{stage: stage}
	return h
}

func (b *Backend) ShaderCompile(shader uint32, source string) (bool, string) {
	s, ok := b.shaders[shader]
	if !ok {
		b.invalidOperation("compile of unknown shader %d", shader)
		return false, fmt.Sprintf("error: %d is not a shader object\n", shader)
	}
	iface, log := compileStage(s.stage, source)
	s.compiled = iface != nil
	s.iface = iface
	return s.compiled, log
}

func (b *Backend) ShaderDestroy(shader uint32) {
	if shader == 0 {
		return
	}
	if _, ok := b.shaders[shader]; !ok {
		b.invalidOperation("delete of unknown shader %d", shader)
		return
	}
	delete(b.shaders, shader)
}

func (b *Backend) ProgramCreate() uint32 {
	h := b.handle()
	b.programs[h] = &programObject{values: make(map[int32]math.Mat4)}
	return h
}

func (b *Backend) ProgramAttach(program, shader uint32) {
	p, ok := b.programs[program]
	if !ok {
		b.invalidOperation("attach to unknown program %d", program)
		return
	}
	if _, ok := b.shaders[shader]; !ok {
		b.invalidOperation("attach of unknown shader %d", shader)
		return
	}
	p.shaders = append(p.shaders, shader)
}

func (b *Backend) ProgramLink(program uint32) (bool, string) {
	p, ok := b.programs[program]
	if !ok {
		b.invalidOperation("link of unknown program %d", program)
		return false, fmt.Sprintf("error: %d is not a program object\n", program)
	}
	p.linked = false
	p.uniforms = nil

	var vertex, fragment *stageInterface
	for _, h := range p.shaders {
		s, ok := b.shaders[h]
		if !ok {
			continue
		}
		if !s.compiled {
			return false, "error: linking with uncompiled shader\n"
		}
		switch s.stage {
		case metadata.ShaderStageVertex:
			if vertex != nil {
				return false, "error: more than one vertex shader attached\n"
			}
			vertex = s.iface
		case metadata.ShaderStageFragment:
			if fragment != nil {
				return false, "error: more than one fragment shader attached\n"
			}
			fragment = s.iface
		}
	}
	if vertex == nil || fragment == nil {
		return false, "error: program needs a vertex and a fragment shader\n"
	}

	uniforms, log := linkStages(vertex, fragment)
	if log != "" {
		return false, log
	}
	p.uniforms = uniforms
	p.linked = true
	return true, ""
}

func (b *Backend) ProgramDestroy(program uint32) {
	if program == 0 {
		return
	}
	if _, ok := b.programs[program]; !ok {
		b.invalidOperation("delete of unknown program %d", program)
		return
	}
	delete(b.programs, program)
	if b.currentProgram == program {
		b.currentProgram = 0
	}
}

func (b *Backend) ProgramUse(program uint32) {
	if program == 0 {
		b.currentProgram = 0
		return
	}
	p, ok := b.programs[program]
	if !ok || !p.linked {
		b.invalidOperation("use of unknown or unlinked program %d", program)
		return
	}
	b.currentProgram = program
}

func (b *Backend) UniformLocation(program uint32, name string) int32 {
	p, ok := b.programs[program]
	if !ok || !p.linked {
		b.invalidOperation("uniform lookup on unknown or unlinked program %d", program)
		return -1
	}
	for i, u := range p.uniforms {
		if u.Name == name {
			return int32(i)
		}
	}
	return -1
}

func (b *Backend) SetUniformMatrix4(location int32, value math.Mat4) {
	if location == -1 {
		return
	}
	p, ok := b.programs[b.currentProgram]
	if !ok {
		b.invalidOperation("uniform upload without a program in use")
		return
	}
	if location < 0 || int(location) >= len(p.uniforms) {
		b.invalidOperation("uniform location %d out of range for program %d", location, b.currentProgram)
		return
	}
	if p.uniforms[location].Type != "mat4" {
		b.invalidOperation("uniform '%s' is %s, not mat4", p.uniforms[location].Name, p.uniforms[location].Type)
		return
	}
	p.values[location] = value
}

func (b *Backend) VertexArrayCreate() uint32 {
	h := b.handle()
	b.vertexArrays[h] = &vertexArrayObject{attributes: make(map[uint32]AttributeBinding)}
	return h
}

func (b *Backend) VertexArrayBind(vertexArray uint32) {
	if vertexArray != 0 {
		if _, ok := b.vertexArrays[vertexArray]; !ok {
			b.invalidOperation("bind of unknown vertex array %d", vertexArray)
			return
		}
	}
	b.currentVertexArray = vertexArray
}

func (b *Backend) VertexArrayDestroy(vertexArray uint32) {
	if vertexArray == 0 {
		return
	}
	if _, ok := b.vertexArrays[vertexArray]; !ok {
		b.invalidOperation("delete of unknown vertex array %d", vertexArray)
		return
	}
	delete(b.vertexArrays, vertexArray)
	if b.currentVertexArray == vertexArray {
		b.currentVertexArray = 0
	}
}

func (b *Backend) VertexAttribute(attribute metadata.VertexAttribute, stride uint32) {
	vao, ok := b.vertexArrays[b.currentVertexArray]
	if !ok {
		b.invalidOperation("vertex attribute %d set without a vertex array bound", attribute.Location)
		return
	}
	if b.arrayBuffer == 0 {
		b.invalidOperation("vertex attribute %d set without an array buffer bound", attribute.Location)
		return
	}
	vao.attributes[attribute.Location] = AttributeBinding{
		VertexAttribute: attribute,
		Stride:          stride,
		Buffer:          b.arrayBuffer,
	}
}

func (b *Backend) BufferCreate() uint32 {
	h := b.handle()
	b.buffers[h] = &bufferObject{}
	return h
}

func (b *Backend) BufferBind(target metadata.BufferTarget, buffer uint32) {
	if buffer != 0 {
		if _, ok := b.buffers[buffer]; !ok {
			b.invalidOperation("bind of unknown buffer %d", buffer)
			return
		}
	}
	switch target {
	case metadata.BufferTargetArray:
		b.arrayBuffer = buffer
	case metadata.BufferTargetElementArray:
		vao, ok := b.vertexArrays[b.currentVertexArray]
		if !ok {
			b.invalidOperation("element buffer %d bound without a vertex array", buffer)
			return
		}
		vao.elementBuffer = buffer
	}
}

func (b *Backend) boundBuffer(target metadata.BufferTarget) uint32 {
	switch target {
	case metadata.BufferTargetArray:
		return b.arrayBuffer
	case metadata.BufferTargetElementArray:
		if vao, ok := b.vertexArrays[b.currentVertexArray]; ok {
			return vao.elementBuffer
		}
	}
	return 0
}

func (b *Backend) BufferLoad(target metadata.BufferTarget, data []byte) error {
	h := b.boundBuffer(target)
	buf, ok := b.buffers[h]
	if !ok {
		err := fmt.Errorf("no buffer bound to the %s target", target)
		b.invalidOperation("%s", err)
		return err
	}

	size := uint64(len(data))
	inUse := b.bytesInUse - uint64(len(buf.data))
	if b.config.MemoryBudget > 0 && inUse+size > b.config.MemoryBudget {
		return fmt.Errorf("buffer %d: %d bytes requested, %d of %d in use: %w",
			h, size, inUse, b.config.MemoryBudget, core.ErrOutOfMemory)
	}

	buf.data = append(buf.data[:0:0], data...)
	b.bytesInUse = inUse + size
	return nil
}

func (b *Backend) BufferDestroy(buffer uint32) {
	if buffer == 0 {
		return
	}
	buf, ok := b.buffers[buffer]
	if !ok {
		b.invalidOperation("delete of unknown buffer %d", buffer)
		return
	}
	b.bytesInUse -= uint64(len(buf.data))
	delete(b.buffers, buffer)
	if b.arrayBuffer == buffer {
		b.arrayBuffer = 0
	}
	if vao, ok := b.vertexArrays[b.currentVertexArray]; ok && vao.elementBuffer == buffer {
		vao.elementBuffer = 0
	}
}

func (b *Backend) DrawIndexed(count uint32) {
	if err := b.validateDraw(count); err != nil {
		b.invalidDraws++
		b.invalidOperation("draw rejected: %s", err)
		return
	}
	b.drawCount++
	if !b.config.RecordDraws {
		return
	}

	p := b.programs[b.currentProgram]
	call := DrawCall{
		Program:     b.currentProgram,
		VertexArray: b.currentVertexArray,
		Count:       count,
		Uniforms:    make(map[string]math.Mat4, len(p.values)),
	}
	for loc, value := range p.values {
		call.Uniforms[p.uniforms[loc].Name] = value
	}
	b.draws = append(b.draws, call)
}

func (b *Backend) validateDraw(count uint32) error {
	p, ok := b.programs[b.currentProgram]
	if !ok || !p.linked {
		return fmt.Errorf("no linked program in use")
	}
	vao, ok := b.vertexArrays[b.currentVertexArray]
	if !ok {
		return fmt.Errorf("no vertex array bound")
	}
	ebo, ok := b.buffers[vao.elementBuffer]
	if !ok {
		return fmt.Errorf("vertex array %d has no element buffer", b.currentVertexArray)
	}
	if uint64(count)*uint64(metadata.IndexSize) > uint64(len(ebo.data)) {
		return fmt.Errorf("%d indices requested, element buffer holds %d", count, len(ebo.data)/int(metadata.IndexSize))
	}

	// Every index must address a whole vertex in every bound attribute.
	maxIndex := uint32(0)
	for i := uint32(0); i < count; i++ {
		if idx := binary.NativeEndian.Uint32(ebo.data[i*metadata.IndexSize:]); idx > maxIndex {
			maxIndex = idx
		}
	}
	for loc, attr := range vao.attributes {
		vbo, ok := b.buffers[attr.Buffer]
		if !ok {
			return fmt.Errorf("attribute %d sources deleted buffer %d", loc, attr.Buffer)
		}
		end := uint64(maxIndex)*uint64(attr.Stride) + uint64(attr.Offset) + uint64(attr.Components)*4
		if count > 0 && end > uint64(len(vbo.data)) {
			return fmt.Errorf("index %d reads past the end of buffer %d for attribute %d", maxIndex, attr.Buffer, loc)
		}
	}
	return nil
}

func (b *Backend) Stats() metadata.BackendStats {
	return metadata.BackendStats{
		Shaders:      len(b.shaders),
		Programs:     len(b.programs),
		Buffers:      len(b.buffers),
		VertexArrays: len(b.vertexArrays),
		BufferBytes:  b.bytesInUse,
		DrawCalls:    b.drawCount,
	}
}

// ID identifies this simulated context in logs.
func (b *Backend) ID() uuid.UUID {
	return b.id
}

// Frame returns the number of completed frames.
func (b *Backend) Frame() uint64 {
	return b.frame
}

// BufferData returns a copy of the storage of buffer.
func (b *Backend) BufferData(buffer uint32) ([]byte, bool) {
	buf, ok := b.buffers[buffer]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), buf.data...), true
}

// VertexArrayState returns the element buffer and attribute bindings recorded
// on a vertex array.
func (b *Backend) VertexArrayState(vertexArray uint32) (uint32, map[uint32]AttributeBinding, bool) {
	vao, ok := b.vertexArrays[vertexArray]
	if !ok {
		return 0, nil, false
	}
	attrs := make(map[uint32]AttributeBinding, len(vao.attributes))
	for k, v := range vao.attributes {
		attrs[k] = v
	}
	return vao.elementBuffer, attrs, true
}

// Draws returns the recorded draw calls.
func (b *Backend) Draws() []DrawCall {
	return append([]DrawCall(nil), b.draws...)
}

// InvalidDraws returns the number of draws rejected by validation.
func (b *Backend) InvalidDraws() int {
	return b.invalidDraws
}

// Errors returns every invalid operation reported so far.
func (b *Backend) Errors() []string {
	return append([]string(nil), b.errors...)
}

// ResetRecording clears recorded draws and errors.
func (b *Backend) ResetRecording() {
	b.draws = nil
	b.errors = nil
	b.invalidDraws = 0
}
