package systems

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/math"
	"github.com/spaghettifunk/gridmesh/engine/renderer"
	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

type GridState int

const (
	GridStateUninitialized GridState = iota
	GridStateGenerated
	GridStateFailed
	GridStateDestroyed
)

func (s GridState) String() string {
	switch s {
	case GridStateUninitialized:
		return "uninitialized"
	case GridStateGenerated:
		return "generated"
	case GridStateFailed:
		return "failed"
	case GridStateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

const (
	DefaultGridShaderName  = "GridShader"
	DefaultGridUniformName = "projectionViewWorldMatrix"
)

const gridVertexSource = `#version 410
layout(location = 0) in vec4 position;
layout(location = 1) in vec4 colour;
out vec4 vColour;
uniform mat4 projectionViewWorldMatrix;
void main() {
	vColour = colour;
	gl_Position = projectionViewWorldMatrix * position;
}
`

const gridFragmentSource = `#version 410
in vec4 vColour;
out vec4 fragColor;
void main() {
	fragColor = vColour;
}
`

// GridMesh is a procedurally generated grid on the XZ plane together with the
// program it is drawn with. All methods must be called from the render thread.
type GridMesh struct {
	ID       uuid.UUID
	Rows     uint32
	Cols     uint32
	Geometry *metadata.Geometry

	state       GridState
	generation  uint16
	shaderName  string
	uniformName string

	// location of uniformName in uniformShader; nil means nothing cached
	uniformShader     *metadata.Shader
	uniformProgram    uint32
	uniformGeneration uint32
	uniformLocation   int32
	warnedNotReady    bool

	shaderSystem   *ShaderSystem
	geometrySystem *GeometrySystem
	renderer       *renderer.Renderer
}

func NewGridMesh(r *renderer.Renderer, ss *ShaderSystem, gs *GeometrySystem) *GridMesh {
	return &GridMesh{
		ID:              uuid.New(),
		shaderName:      DefaultGridShaderName,
		uniformName:     DefaultGridUniformName,
		uniformLocation: -1,
		shaderSystem:    ss,
		geometrySystem:  gs,
		renderer:        r,
	}
}

// Init makes sure a program is registered under the mesh's shader name,
// compiling the built-in vertex colour shader if there is none.
func (m *GridMesh) Init() error {
	if _, err := m.shaderSystem.Get(m.shaderName); err == nil {
		return nil
	}
	if _, err := m.shaderSystem.Compile(m.shaderName, gridVertexSource, gridFragmentSource); err != nil {
		return fmt.Errorf("grid %s: %w", m.ID, err)
	}
	return nil
}

// Generate builds a rows x cols grid and uploads it, replacing the current
// one. Invalid dimensions are rejected before anything is released.
func (m *GridMesh) Generate(rows, cols uint32) error {
	if m.state == GridStateDestroyed {
		return core.ErrMeshDestroyed
	}

	config, err := m.geometrySystem.GenerateGridConfig(rows, cols, fmt.Sprintf("grid-%s", m.ID))
	if err != nil {
		core.LogError("grid %s: %s", m.ID, err)
		return err
	}

	if m.Geometry != nil {
		m.geometrySystem.Destroy(m.Geometry)
		m.Geometry = nil
	}

	geometry, err := m.geometrySystem.Create(config)
	if err != nil {
		m.state = GridStateFailed
		m.Rows, m.Cols = 0, 0
		return err
	}

	m.generation++
	geometry.Generation = m.generation
	m.Geometry = geometry
	m.Rows, m.Cols = rows, cols
	m.state = GridStateGenerated
	m.warnedNotReady = false
	core.Logger().Debug("grid generated", "id", m.ID, "rows", rows, "cols", cols, "generation", m.generation)
	return nil
}

// Draw renders the grid with projectionView bound to the mesh's uniform. It
// does nothing, apart from a one-off warning, while the mesh has no geometry
// or its program is unavailable.
func (m *GridMesh) Draw(projectionView math.Mat4) {
	if m.state != GridStateGenerated || !m.Geometry.IsValid() {
		m.warnNotReady("mesh is %s", m.state)
		return
	}
	shader, err := m.shaderSystem.Get(m.shaderName)
	if err != nil || !shader.IsUsable() {
		m.warnNotReady("no usable program named '%s'", m.shaderName)
		return
	}

	m.renderer.ProgramUse(shader.ID)
	if location := m.resolveUniform(shader); location != -1 {
		m.renderer.SetUniformMatrix4(location, projectionView)
	}
	m.renderer.VertexArrayBind(m.Geometry.VertexArrayID)
	m.renderer.DrawIndexed(m.Geometry.IndexCount)
	m.renderer.VertexArrayBind(0)
}

func (m *GridMesh) resolveUniform(shader *metadata.Shader) int32 {
	// drivers recycle program handles and a re-registered shader restarts at
	// generation 0, so the registry entry itself is part of the key
	if m.uniformShader == shader && m.uniformProgram == shader.ID && m.uniformGeneration == shader.Generation {
		return m.uniformLocation
	}
	location, err := m.shaderSystem.UniformLocation(shader.ID, m.uniformName)
	var notFound *core.UniformNotFoundError
	if errors.As(err, &notFound) {
		core.LogWarn("grid %s: %s, drawing without a transform", m.ID, err)
	}
	m.uniformShader = shader
	m.uniformProgram = shader.ID
	m.uniformGeneration = shader.Generation
	m.uniformLocation = location
	return location
}

func (m *GridMesh) warnNotReady(format string, args ...interface{}) {
	if m.warnedNotReady {
		return
	}
	m.warnedNotReady = true
	core.LogWarn("grid %s: skipping draw, %s", m.ID, fmt.Sprintf(format, args...))
}

// SetUniformName changes the uniform the transform is written to. It takes
// effect on the next Draw.
func (m *GridMesh) SetUniformName(name string) {
	m.uniformName = name
	m.uniformShader = nil
	m.uniformProgram = 0
	m.uniformLocation = -1
}

// SetShader switches the registry program the grid is drawn with.
func (m *GridMesh) SetShader(name string) {
	m.shaderName = name
	m.uniformShader = nil
	m.uniformProgram = 0
	m.uniformLocation = -1
	m.warnedNotReady = false
}

// Destroy releases the GPU storage. The mesh cannot be generated again.
func (m *GridMesh) Destroy() {
	if m.Geometry != nil {
		m.geometrySystem.Destroy(m.Geometry)
		m.Geometry = nil
	}
	m.Rows, m.Cols = 0, 0
	m.state = GridStateDestroyed
}

func (m *GridMesh) State() GridState {
	return m.state
}

func (m *GridMesh) ShaderName() string {
	return m.shaderName
}

func (m *GridMesh) UniformName() string {
	return m.uniformName
}

// Generation counts successful calls to Generate.
func (m *GridMesh) Generation() uint16 {
	return m.generation
}

func (m *GridMesh) VertexCount() uint32 {
	if m.Geometry == nil {
		return 0
	}
	return m.Geometry.VertexCount
}

// IndexCount is (Rows-1)*(Cols-1)*6 while the mesh is generated, 0 otherwise.
func (m *GridMesh) IndexCount() uint32 {
	if m.Geometry == nil {
		return 0
	}
	return m.Geometry.IndexCount
}
