package metadata

import (
	"encoding/binary"
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gridmesh/engine/math"
)

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, uint32(32), VertexSize)
	assert.Equal(t, uint32(0), VertexPositionOffset)
	assert.Equal(t, uint32(16), VertexColourOffset)
	require.Len(t, VertexLayout, 2)
	assert.Equal(t, uint32(0), VertexLayout[0].Location)
	assert.Equal(t, uint32(1), VertexLayout[1].Location)
}

func TestVertexBytes(t *testing.T) {
	vertices := []Vertex{
		{Position: math.Vec4{1, 0, 2, 1}, Colour: math.Vec4{0.5, 0.5, 0.5, 1}},
		{Position: math.Vec4{3, 0, 4, 1}, Colour: math.Vec4{0, 0, 0, 1}},
	}
	b := VertexBytes(vertices)
	require.Len(t, b, 64)

	f := func(offset int) float32 {
		return stdmath.Float32frombits(binary.NativeEndian.Uint32(b[offset:]))
	}
	// second vertex: position.z at 32+8, colour.a at 32+16+12
	assert.Equal(t, float32(4), f(40))
	assert.Equal(t, float32(1), f(60))
	assert.Equal(t, float32(0.5), f(16))

	assert.Nil(t, VertexBytes(nil))
	assert.Len(t, IndexBytes([]uint32{0, 1, 2}), 12)
}
