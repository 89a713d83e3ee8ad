package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gridmesh/engine/math"
	"github.com/spaghettifunk/gridmesh/engine/renderer/components"
)

func TestCameraSystemConfig(t *testing.T) {
	_, err := NewCameraSystem(&CameraSystemConfig{MaxCameraCount: 0})
	assert.Error(t, err)
	_, err = NewCameraSystem(&CameraSystemConfig{MaxCameraCount: invalidCameraID})
	assert.Error(t, err)
}

func TestCameraAcquireRelease(t *testing.T) {
	cs, err := NewCameraSystem(&CameraSystemConfig{MaxCameraCount: 2})
	require.NoError(t, err)

	def, err := cs.Acquire(components.DEFAULT_CAMERA_NAME)
	require.NoError(t, err)
	assert.Same(t, cs.GetDefault(), def)

	a, err := cs.Acquire("a")
	require.NoError(t, err)
	again, err := cs.Acquire("a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = cs.Acquire("b")
	require.NoError(t, err)
	_, err = cs.Acquire("c")
	assert.Error(t, err)

	a.SetPosition(math.Vec3{1, 2, 3})
	cs.Release("a")
	assert.Contains(t, cs.Lookup, "a")
	cs.Release("a")
	assert.NotContains(t, cs.Lookup, "a")
	assert.Equal(t, math.Vec3{}, a.GetPosition())

	// the freed slot is reused
	c, err := cs.Acquire("c")
	require.NoError(t, err)
	assert.NotNil(t, c)

	cs.Release("missing")
	cs.Release(components.DEFAULT_CAMERA_NAME)
	require.NoError(t, cs.Shutdown())
	assert.Empty(t, cs.Lookup)
}
