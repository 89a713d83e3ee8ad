package systems

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gridmesh/engine/assets"
	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

const brokenFragmentSource = `#version 410
in vec4 vColour;
out vec4 fragColor;
void main() {
	fragColor = vColour
`

func TestCompileRegistersProgram(t *testing.T) {
	rig := newTestRig(t, 0)

	shader, err := rig.shaders.Compile("DefaultShader", gridVertexSource, gridFragmentSource)
	require.NoError(t, err)
	assert.True(t, shader.IsUsable())
	assert.Equal(t, metadata.ShaderStateInitialized, shader.State)

	id, err := rig.shaders.GetProgramID("DefaultShader")
	require.NoError(t, err)
	assert.Equal(t, shader.ID, id)

	// stage objects are deleted once the program links
	stats := rig.backend.Stats()
	assert.Equal(t, 0, stats.Shaders)
	assert.Equal(t, 1, stats.Programs)
}

func TestCompileFailureRegistersNothing(t *testing.T) {
	rig := newTestRig(t, 0)

	_, err := rig.shaders.Compile("Broken", gridVertexSource, brokenFragmentSource)
	var compileErr *core.ShaderCompileError
	require.True(t, errors.As(err, &compileErr), "got %v", err)
	assert.Equal(t, "fragment", compileErr.Stage)
	assert.Contains(t, compileErr.Log, "error")

	_, err = rig.shaders.GetProgramID("Broken")
	assert.ErrorIs(t, err, core.ErrShaderNotFound)

	stats := rig.backend.Stats()
	assert.Equal(t, 0, stats.Shaders)
	assert.Equal(t, 0, stats.Programs)
}

func TestLinkFailureDeletesProgram(t *testing.T) {
	rig := newTestRig(t, 0)

	// compiles on its own but reads a varying the vertex stage never writes
	fragment := "#version 410\nin vec3 vNormal;\nout vec4 fragColor;\nvoid main() { fragColor = vec4(vNormal, 1.0); }\n"
	_, err := rig.shaders.Compile("Mismatch", gridVertexSource, fragment)
	var linkErr *core.ShaderLinkError
	require.True(t, errors.As(err, &linkErr), "got %v", err)
	assert.Contains(t, linkErr.Log, "vNormal")

	_, err = rig.shaders.Get("Mismatch")
	assert.ErrorIs(t, err, core.ErrShaderNotFound)
	assert.Equal(t, 0, rig.backend.Stats().Programs)
	assert.Equal(t, 0, rig.backend.Stats().Shaders)
}

func TestRecompileKeepsPreviousOnFailure(t *testing.T) {
	rig := newTestRig(t, 0)

	first, err := rig.shaders.Compile("Grid", gridVertexSource, gridFragmentSource)
	require.NoError(t, err)
	firstID := first.ID

	_, err = rig.shaders.Compile("Grid", gridVertexSource, brokenFragmentSource)
	require.Error(t, err)
	id, err := rig.shaders.GetProgramID("Grid")
	require.NoError(t, err)
	assert.Equal(t, firstID, id)

	second, err := rig.shaders.Compile("Grid", gridVertexSource, gridFragmentSource)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.NotEqual(t, firstID, second.ID)
	assert.Equal(t, uint32(1), second.Generation)
	assert.Equal(t, 1, rig.backend.Stats().Programs)
}

func TestRegistryIsBounded(t *testing.T) {
	rig := newTestRig(t, 0)
	rig.shaders.Config.MaxShaderCount = 1

	_, err := rig.shaders.Compile("A", gridVertexSource, gridFragmentSource)
	require.NoError(t, err)
	_, err = rig.shaders.Compile("B", gridVertexSource, gridFragmentSource)
	assert.ErrorIs(t, err, core.ErrShaderRegistryFull)
	// replacing an existing name is still allowed
	_, err = rig.shaders.Compile("A", gridVertexSource, gridFragmentSource)
	assert.NoError(t, err)
}

func TestUniformLocationCache(t *testing.T) {
	rig := newTestRig(t, 0)
	shader, err := rig.shaders.Compile("Grid", gridVertexSource, gridFragmentSource)
	require.NoError(t, err)

	loc, err := rig.shaders.UniformLocation(shader.ID, DefaultGridUniformName)
	require.NoError(t, err)
	assert.Equal(t, int32(0), loc)

	loc, err = rig.shaders.UniformLocation(shader.ID, "projectionViewMatrix")
	assert.Equal(t, int32(-1), loc)
	var notFound *core.UniformNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "projectionViewMatrix", notFound.Name)
	assert.Equal(t, shader.ID, notFound.Program)
}

func TestDestroyAndShutdown(t *testing.T) {
	rig := newTestRig(t, 0)
	_, err := rig.shaders.Compile("A", gridVertexSource, gridFragmentSource)
	require.NoError(t, err)
	b, err := rig.shaders.Compile("B", gridVertexSource, gridFragmentSource)
	require.NoError(t, err)

	require.NoError(t, rig.shaders.Destroy("B"))
	assert.Zero(t, b.ID)
	assert.False(t, b.IsUsable())
	assert.ErrorIs(t, rig.shaders.Destroy("B"), core.ErrShaderNotFound)

	require.NoError(t, rig.shaders.Shutdown())
	assert.Zero(t, rig.shaders.Count())
	assert.Equal(t, 0, rig.backend.Stats().Programs)
}

func TestCompileFilesAndReload(t *testing.T) {
	dir := t.TempDir()
	vertPath := filepath.Join(dir, "basic.vert")
	fragPath := filepath.Join(dir, "basic.frag")
	require.NoError(t, os.WriteFile(vertPath, []byte(gridVertexSource), 0o644))
	require.NoError(t, os.WriteFile(fragPath, []byte(gridFragmentSource), 0o644))

	am, err := assets.NewAssetManager(nil)
	require.NoError(t, err)
	defer am.Shutdown()

	rig := newTestRig(t, 0)
	rig.shaders.assetManager = am

	shader, err := rig.shaders.CompileFiles("DefaultShader", vertPath, fragPath)
	require.NoError(t, err)
	assert.True(t, shader.FileBacked())
	firstID := shader.ID

	// a broken edit keeps the running program
	require.NoError(t, os.WriteFile(fragPath, []byte(brokenFragmentSource), 0o644))
	names, err := rig.shaders.ReloadPath(fragPath)
	assert.Error(t, err)
	assert.Empty(t, names)
	assert.Equal(t, firstID, shader.ID)

	require.NoError(t, os.WriteFile(fragPath, []byte(gridFragmentSource), 0o644))
	names, err = rig.shaders.ReloadPath(fragPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"DefaultShader"}, names)
	assert.NotEqual(t, firstID, shader.ID)

	_, err = rig.shaders.Compile("Inline", gridVertexSource, gridFragmentSource)
	require.NoError(t, err)
	assert.Error(t, rig.shaders.Reload("Inline"))

	_, err = rig.shaders.CompileFiles("Missing", filepath.Join(dir, "nope.vert"), fragPath)
	assert.Error(t, err)
}
