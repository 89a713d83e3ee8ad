package metadata

import (
	"github.com/spaghettifunk/gridmesh/engine/math"
)

/** @brief The name of the default geometry. */
const DefaultGeometryName string = "default"

/**
 * @brief Represents the configuration for a geometry.
 * Lives on the CPU only; it is dropped once the geometry is uploaded.
 */
type GeometryConfig struct {
	/** @brief The number of vertices. */
	VertexCount uint32
	/** @brief An array of Vertices. */
	Vertices []Vertex
	/** @brief The number of indices. */
	IndexCount uint32
	/** @brief An array of Indices. */
	Indices []uint32

	Center  math.Vec3
	Extents math.Extents3D

	/** @brief The Name of the geometry. */
	Name string
}

/**
 * @brief Represents geometry uploaded to the GPU: a vertex array
 * binding one vertex buffer and one index buffer.
 */
type Geometry struct {
	/** @brief The geometry name. */
	Name string
	/** @brief The vertex array object handle. 0 when not created. */
	VertexArrayID uint32
	/** @brief The vertex buffer handle. 0 when not created. */
	VertexBufferID uint32
	/** @brief The index buffer handle. 0 when not created. */
	IndexBufferID uint32
	/** @brief The number of vertices in the vertex buffer. */
	VertexCount uint32
	/** @brief The number of indices in the index buffer. */
	IndexCount uint32
	/** @brief The geometry generation. Incremented every time the geometry is uploaded. */
	Generation uint16
	/** @brief The center of the geometry in local coordinates. */
	Center math.Vec3
	/** @brief The extents of the geometry in local coordinates. */
	Extents math.Extents3D
}

// IsValid reports whether all three GPU handles are held.
func (g *Geometry) IsValid() bool {
	return g != nil && g.VertexArrayID != 0 && g.VertexBufferID != 0 && g.IndexBufferID != 0
}
