package systems

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gridmesh/engine/renderer"
	"github.com/spaghettifunk/gridmesh/engine/renderer/headless"
)

type testRig struct {
	backend    *headless.Backend
	renderer   *renderer.Renderer
	shaders    *ShaderSystem
	geometries *GeometrySystem
}

func newTestRig(t *testing.T, memoryBudget uint64) *testRig {
	t.Helper()
	backend := headless.New(headless.Config{MemoryBudget: memoryBudget, RecordDraws: true})
	return newTestRigWith(t, backend, backend)
}

func newTestRigWith(t *testing.T, backend *headless.Backend, frontend renderer.RendererBackend) *testRig {
	t.Helper()
	r := renderer.New(renderer.Headless, frontend)
	require.NoError(t, r.Initialize("systems-test", 800, 600))

	ss, err := NewShaderSystem(&ShaderSystemConfig{MaxShaderCount: 8}, nil, r)
	require.NoError(t, err)
	gs, err := NewGeometrySystem(&GeometrySystemConfig{MaxGeometryCount: 8}, r)
	require.NoError(t, err)

	return &testRig{backend: backend, renderer: r, shaders: ss, geometries: gs}
}

// recyclingBackend hands out the lowest free program handle, the way GL
// drivers reuse deleted program names.
type recyclingBackend struct {
	*headless.Backend
	programs map[uint32]uint32
}

func newRecyclingBackend() *recyclingBackend {
	return &recyclingBackend{
		Backend:  headless.New(headless.Config{RecordDraws: true}),
		programs: make(map[uint32]uint32),
	}
}

func (b *recyclingBackend) ProgramCreate() uint32 {
	inner := b.Backend.ProgramCreate()
	if inner == 0 {
		return 0
	}
	handle := uint32(1)
	for ; ; handle++ {
		if _, used := b.programs[handle]; !used {
			break
		}
	}
	b.programs[handle] = inner
	return handle
}

func (b *recyclingBackend) ProgramAttach(program, shader uint32) {
	b.Backend.ProgramAttach(b.programs[program], shader)
}

func (b *recyclingBackend) ProgramLink(program uint32) (bool, string) {
	return b.Backend.ProgramLink(b.programs[program])
}

func (b *recyclingBackend) ProgramDestroy(program uint32) {
	b.Backend.ProgramDestroy(b.programs[program])
	delete(b.programs, program)
}

func (b *recyclingBackend) ProgramUse(program uint32) {
	b.Backend.ProgramUse(b.programs[program])
}

func (b *recyclingBackend) UniformLocation(program uint32, name string) int32 {
	return b.Backend.UniformLocation(b.programs[program], name)
}
