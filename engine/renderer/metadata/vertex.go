package metadata

import (
	"unsafe"

	"github.com/spaghettifunk/gridmesh/engine/math"
)

/**
 * @brief Represents a single grid vertex as it is laid out in GPU memory.
 * The layout is part of the interop contract: stride 32, position at 0, colour at 16.
 */
type Vertex struct {
	/** @brief The homogeneous position of the vertex. */
	Position math.Vec4
	/** @brief The RGBA colour of the vertex. */
	Colour math.Vec4
}

const (
	VertexSize           = uint32(unsafe.Sizeof(Vertex{}))
	VertexPositionOffset = uint32(unsafe.Offsetof(Vertex{}.Position))
	VertexColourOffset   = uint32(unsafe.Offsetof(Vertex{}.Colour))
	// IndexSize is the size of a single uint32 index.
	IndexSize = uint32(4)
)

// VertexAttribute describes one float attribute of the vertex layout.
type VertexAttribute struct {
	Location   uint32
	Components int32
	Offset     uint32
}

// VertexLayout is the attribute table bound to every grid vertex array.
var VertexLayout = []VertexAttribute{
	{Location: 0, Components: 4, Offset: VertexPositionOffset},
	{Location: 1, Components: 4, Offset: VertexColourOffset},
}

// VertexBytes reinterprets the vertices as the byte image uploaded to the GPU.
// The returned slice aliases the input.
func VertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*int(VertexSize))
}

// IndexBytes reinterprets the indices as the byte image uploaded to the GPU.
// The returned slice aliases the input.
func IndexBytes(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), len(indices)*int(IndexSize))
}
