package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gridmesh/engine/containers"
	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIndexAndLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "basic.vert"), "#version 410\nvoid main() {}\n")
	writeFile(t, filepath.Join(dir, "notes.md"), "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, filepath.Join(dir, "nested", "basic.frag"), "#version 410\n")

	am, err := NewAssetManager(nil)
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir, false))
	defer am.Shutdown()

	assert.Equal(t, 2, am.Count())
	info, ok := am.Info(filepath.Join(dir, "nested", "basic.frag"))
	require.True(t, ok)
	assert.Equal(t, metadata.ResourceTypeShader, info.Type)

	res, err := am.LoadAsset(filepath.Join(dir, "basic.vert"), nil)
	require.NoError(t, err)
	assert.Equal(t, "basic", res.Name)
	assert.Equal(t, metadata.ResourceTypeShader, res.Type)
	assert.Contains(t, res.String(), "void main")
	require.NoError(t, am.UnloadAsset(res))
	assert.Nil(t, res.Data)

	_, err = am.LoadAsset(filepath.Join(dir, "notes.md"), nil)
	assert.Error(t, err)
	_, err = am.LoadAsset(filepath.Join(dir, "missing.frag"), nil)
	assert.Error(t, err)
}

func TestConfigFilesAreNotIndexed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), "frames = 1\n")
	writeFile(t, filepath.Join(dir, "basic.frag"), "#version 410\n")

	am, err := NewAssetManager(nil)
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir, false))
	defer am.Shutdown()

	assert.Equal(t, 1, am.Count())
	_, ok := am.Info(filepath.Join(dir, "config.toml"))
	assert.False(t, ok)
	_, err = am.LoadAsset(filepath.Join(dir, "config.toml"), nil)
	assert.Error(t, err)
}

func TestEmptyShaderIsRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "empty.frag"), "  \n")

	am, err := NewAssetManager(nil)
	require.NoError(t, err)
	defer am.Shutdown()

	_, err = am.LoadAsset(filepath.Join(dir, "empty.frag"), nil)
	assert.ErrorContains(t, err, "is empty")
}

func TestWatcherEnqueuesShaderReloads(t *testing.T) {
	dir := t.TempDir()
	frag := filepath.Join(dir, "basic.frag")
	writeFile(t, frag, "#version 410\n")

	queue := containers.NewRingQueue[string](16)
	am, err := NewAssetManager(queue)
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir, true))
	defer am.Shutdown()

	writeFile(t, filepath.Join(dir, "readme.md"), "not an asset")
	writeFile(t, frag, "#version 410\nout vec4 c;\nvoid main() { c = vec4(1.0); }\n")

	var got []string
	require.Eventually(t, func() bool {
		got = append(got, queue.Drain()...)
		return len(got) > 0
	}, 5*time.Second, 20*time.Millisecond)

	for _, p := range got {
		assert.Equal(t, frag, p)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	am, err := NewAssetManager(nil)
	require.NoError(t, err)
	require.NoError(t, am.Initialize(t.TempDir(), true))
	require.NoError(t, am.Shutdown())
	require.NoError(t, am.Shutdown())
}
