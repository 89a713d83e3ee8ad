package headless

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/math"
	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

const testVertex = `#version 410
layout(location = 0) in vec4 position;
layout(location = 1) in vec4 colour;
out vec4 vColour;
uniform mat4 projectionViewWorldMatrix;
void main() {
	vColour = colour;
	gl_Position = projectionViewWorldMatrix * position;
}
`

const testFragment = `#version 410
in vec4 vColour;
out vec4 fragColour;
void main() {
	fragColour = vColour;
}
`

func linkProgram(t *testing.T, b *Backend, vs, fs string) uint32 {
	t.Helper()
	v := b.ShaderCreate(metadata.ShaderStageVertex)
	ok, log := b.ShaderCompile(v, vs)
	require.True(t, ok, log)
	f := b.ShaderCreate(metadata.ShaderStageFragment)
	ok, log = b.ShaderCompile(f, fs)
	require.True(t, ok, log)

	p := b.ProgramCreate()
	b.ProgramAttach(p, v)
	b.ProgramAttach(p, f)
	ok, log = b.ProgramLink(p)
	require.True(t, ok, log)
	b.ShaderDestroy(v)
	b.ShaderDestroy(f)
	return p
}

func TestCompileStageErrors(t *testing.T) {
	tests := []struct {
		name   string
		stage  metadata.ShaderStage
		source string
		want   string
	}{
		{"empty", metadata.ShaderStageVertex, "  \n// nothing\n", "empty"},
		{"no version", metadata.ShaderStageVertex, "void main() {}\n", "#version directive must be the first statement"},
		{"old version", metadata.ShaderStageVertex, "#version 120\nvoid main() {}\n", "GLSL 120 is not supported"},
		{"unbalanced", metadata.ShaderStageFragment, "#version 410\nout vec4 c;\nvoid main() {\n c = vec4(1.0;\n}\n", "0:5(1): error: syntax error, unexpected '}'"},
		{"unclosed", metadata.ShaderStageFragment, "#version 410\nout vec4 c;\nvoid main() {\n", "unclosed '{'"},
		{"no output", metadata.ShaderStageFragment, "#version 410\nvoid main() {}\n", "writes no colour output"},
		{"redeclared", metadata.ShaderStageVertex, "#version 410\nuniform mat4 m;\nuniform mat4 m;\nvoid main() {}\n", "`m' redeclared"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(Config{})
			s := b.ShaderCreate(tt.stage)
			ok, log := b.ShaderCompile(s, tt.source)
			assert.False(t, ok)
			assert.Contains(t, log, tt.want)
			assert.Contains(t, log, "error")
		})
	}
}

func TestCommentsAreIgnored(t *testing.T) {
	b := New(Config{})
	s := b.ShaderCreate(metadata.ShaderStageFragment)
	ok, log := b.ShaderCompile(s, "/* header\n } */\n#version 410\nout vec4 c; // {\nvoid main() { c = vec4(1.0); }\n")
	assert.True(t, ok, log)
}

func TestLinkMismatchedInterface(t *testing.T) {
	b := New(Config{})
	v := b.ShaderCreate(metadata.ShaderStageVertex)
	ok, _ := b.ShaderCompile(v, testVertex)
	require.True(t, ok)
	f := b.ShaderCreate(metadata.ShaderStageFragment)
	ok, _ = b.ShaderCompile(f, "#version 410\nin vec3 vColour;\nin vec2 uv;\nout vec4 c;\nvoid main() { c = vec4(vColour, 1.0); }\n")
	require.True(t, ok)

	p := b.ProgramCreate()
	b.ProgramAttach(p, v)
	b.ProgramAttach(p, f)
	ok, log := b.ProgramLink(p)
	assert.False(t, ok)
	assert.Contains(t, log, "`vColour' declared as type `vec4' in the vertex stage and type `vec3'")
	assert.Contains(t, log, "`uv' has no matching output")

	b.ProgramUse(p)
	assert.Equal(t, int32(-1), b.UniformLocation(p, "projectionViewWorldMatrix"))
	assert.NotEmpty(t, b.Errors())
}

func TestLinkRequiresBothStages(t *testing.T) {
	b := New(Config{})
	v := b.ShaderCreate(metadata.ShaderStageVertex)
	ok, _ := b.ShaderCompile(v, testVertex)
	require.True(t, ok)
	p := b.ProgramCreate()
	b.ProgramAttach(p, v)
	ok, log := b.ProgramLink(p)
	assert.False(t, ok)
	assert.Contains(t, log, "needs a vertex and a fragment shader")
}

func TestUniformLocationsAndUpload(t *testing.T) {
	b := New(Config{})
	p := linkProgram(t, b, testVertex, testFragment)

	loc := b.UniformLocation(p, "projectionViewWorldMatrix")
	assert.Equal(t, int32(0), loc)
	assert.Equal(t, int32(-1), b.UniformLocation(p, "projectionViewMatrix"))

	b.ProgramUse(p)
	b.SetUniformMatrix4(-1, math.Mat4{})
	assert.Empty(t, b.Errors())
	b.SetUniformMatrix4(loc, mgl32.Ident4())
	assert.Empty(t, b.Errors())
	b.SetUniformMatrix4(7, mgl32.Ident4())
	assert.Len(t, b.Errors(), 1)
}

func uploadQuad(t *testing.T, b *Backend) (vao, vbo, ebo uint32) {
	t.Helper()
	vertices := []metadata.Vertex{
		{Position: math.Vec4{0, 0, 0, 1}}, {Position: math.Vec4{1, 0, 0, 1}},
		{Position: math.Vec4{0, 0, 1, 1}}, {Position: math.Vec4{1, 0, 1, 1}},
	}
	indices := []uint32{0, 2, 3, 0, 3, 1}

	vao = b.VertexArrayCreate()
	b.VertexArrayBind(vao)
	vbo = b.BufferCreate()
	b.BufferBind(metadata.BufferTargetArray, vbo)
	require.NoError(t, b.BufferLoad(metadata.BufferTargetArray, metadata.VertexBytes(vertices)))
	ebo = b.BufferCreate()
	b.BufferBind(metadata.BufferTargetElementArray, ebo)
	require.NoError(t, b.BufferLoad(metadata.BufferTargetElementArray, metadata.IndexBytes(indices)))
	for _, attr := range metadata.VertexLayout {
		b.VertexAttribute(attr, metadata.VertexSize)
	}
	b.VertexArrayBind(0)
	return vao, vbo, ebo
}

func TestDrawIndexedRecordsState(t *testing.T) {
	b := New(Config{RecordDraws: true})
	require.NoError(t, b.Initialize("test", 640, 480))
	p := linkProgram(t, b, testVertex, testFragment)
	vao, vbo, ebo := uploadQuad(t, b)

	element, attrs, ok := b.VertexArrayState(vao)
	require.True(t, ok)
	assert.Equal(t, ebo, element)
	require.Len(t, attrs, 2)
	assert.Equal(t, vbo, attrs[1].Buffer)
	assert.Equal(t, uint32(16), attrs[1].Offset)
	assert.Equal(t, uint32(32), attrs[0].Stride)

	stats := b.Stats()
	assert.Equal(t, uint64(4*32+6*4), stats.BufferBytes)
	assert.Equal(t, 0, stats.Shaders)

	require.NoError(t, b.BeginFrame(0))
	b.ProgramUse(p)
	b.SetUniformMatrix4(b.UniformLocation(p, "projectionViewWorldMatrix"), mgl32.Ident4())
	b.VertexArrayBind(vao)
	b.DrawIndexed(6)
	b.DrawIndexed(9)
	require.NoError(t, b.EndFrame(0))

	draws := b.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(6), draws[0].Count)
	assert.Equal(t, mgl32.Ident4(), draws[0].Uniforms["projectionViewWorldMatrix"])
	assert.Equal(t, 1, b.InvalidDraws())
	assert.Equal(t, uint64(1), b.Stats().DrawCalls)
	assert.Equal(t, uint64(1), b.Frame())
}

func TestDrawRejectsOutOfRangeIndex(t *testing.T) {
	b := New(Config{})
	p := linkProgram(t, b, testVertex, testFragment)
	vao := b.VertexArrayCreate()
	b.VertexArrayBind(vao)
	vbo := b.BufferCreate()
	b.BufferBind(metadata.BufferTargetArray, vbo)
	require.NoError(t, b.BufferLoad(metadata.BufferTargetArray, metadata.VertexBytes(make([]metadata.Vertex, 3))))
	ebo := b.BufferCreate()
	b.BufferBind(metadata.BufferTargetElementArray, ebo)
	require.NoError(t, b.BufferLoad(metadata.BufferTargetElementArray, metadata.IndexBytes([]uint32{0, 1, 3})))
	for _, attr := range metadata.VertexLayout {
		b.VertexAttribute(attr, metadata.VertexSize)
	}

	b.ProgramUse(p)
	b.DrawIndexed(3)
	assert.Equal(t, 1, b.InvalidDraws())
	assert.Zero(t, b.Stats().DrawCalls)
}

func TestMemoryBudget(t *testing.T) {
	b := New(Config{MemoryBudget: 100})
	vao := b.VertexArrayCreate()
	b.VertexArrayBind(vao)
	vbo := b.BufferCreate()
	b.BufferBind(metadata.BufferTargetArray, vbo)

	require.NoError(t, b.BufferLoad(metadata.BufferTargetArray, make([]byte, 96)))
	// replacing storage frees the old bytes first
	require.NoError(t, b.BufferLoad(metadata.BufferTargetArray, make([]byte, 64)))

	ebo := b.BufferCreate()
	b.BufferBind(metadata.BufferTargetElementArray, ebo)
	err := b.BufferLoad(metadata.BufferTargetElementArray, make([]byte, 48))
	assert.ErrorIs(t, err, core.ErrOutOfMemory)
	assert.Equal(t, uint64(64), b.Stats().BufferBytes)

	b.BufferDestroy(vbo)
	b.BufferDestroy(ebo)
	b.VertexArrayDestroy(vao)
	assert.Equal(t, metadata.BackendStats{}, b.Stats())
}

func TestShutdownReleasesEverything(t *testing.T) {
	b := New(Config{})
	require.NoError(t, b.Initialize("test", 1, 1))
	linkProgram(t, b, testVertex, testFragment)
	uploadQuad(t, b)
	require.NoError(t, b.Shutdown())
	assert.Equal(t, metadata.BackendStats{}, b.Stats())
}
