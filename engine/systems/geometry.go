package systems

import (
	"fmt"
	stdmath "math"

	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/math"
	"github.com/spaghettifunk/gridmesh/engine/renderer"
	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

/** @brief The geometry system configuration. */
type GeometrySystemConfig struct {
	/**
	 * @brief NOTE: The maximum number of geometries that can hold GPU
	 * storage at the same time.
	 */
	MaxGeometryCount uint32
}

type GeometrySystem struct {
	Config *GeometrySystemConfig
	// geometries currently holding GPU handles
	live     map[*metadata.Geometry]struct{}
	renderer *renderer.Renderer
}

func NewGeometrySystem(config *GeometrySystemConfig, r *renderer.Renderer) (*GeometrySystem, error) {
	if config.MaxGeometryCount == 0 {
		err := fmt.Errorf("func NewGeometrySystem - config.MaxGeometryCount must be > 0")
		core.LogError("%s", err)
		return nil, err
	}
	return &GeometrySystem{
		Config:   config,
		live:     make(map[*metadata.Geometry]struct{}),
		renderer: r,
	}, nil
}

/**
 * @brief Shuts down the geometry system, releasing every geometry still alive.
 */
func (gs *GeometrySystem) Shutdown() error {
	for g := range gs.live {
		gs.Destroy(g)
	}
	return nil
}

/**
 * @brief Uploads a geometry config to the GPU: one vertex array recording
 * the vertex layout, one vertex buffer and one index buffer. On failure every
 * handle created so far is released.
 *
 * @param config The geometry configuration. Its slices are not retained.
 * @return The uploaded geometry, or a *core.MeshAllocationError.
 */
func (gs *GeometrySystem) Create(config *metadata.GeometryConfig) (*metadata.Geometry, error) {
	if config == nil || config.VertexCount == 0 || config.IndexCount == 0 {
		return nil, fmt.Errorf("func Create - geometry config is empty")
	}
	if uint32(len(gs.live)) >= gs.Config.MaxGeometryCount {
		err := fmt.Errorf("unable to create geometry '%s': %d geometries alive. Adjust configuration to allow more", config.Name, len(gs.live))
		core.LogError("%s", err)
		return nil, err
	}

	r := gs.renderer
	g := &metadata.Geometry{
		Name:        config.Name,
		VertexCount: config.VertexCount,
		IndexCount:  config.IndexCount,
		Center:      config.Center,
		Extents:     config.Extents,
	}

	vertexBytes := metadata.VertexBytes(config.Vertices)
	indexBytes := metadata.IndexBytes(config.Indices)

	g.VertexArrayID = r.VertexArrayCreate()
	if g.VertexArrayID == 0 {
		return nil, gs.rollback(g, &core.MeshAllocationError{Resource: "vertex array", Err: core.ErrOutOfMemory})
	}
	r.VertexArrayBind(g.VertexArrayID)

	g.VertexBufferID = r.BufferCreate()
	if g.VertexBufferID == 0 {
		return nil, gs.rollback(g, &core.MeshAllocationError{Resource: "vertex buffer", Bytes: uint64(len(vertexBytes)), Err: core.ErrOutOfMemory})
	}
	r.BufferBind(metadata.BufferTargetArray, g.VertexBufferID)
	if err := r.BufferLoad(metadata.BufferTargetArray, vertexBytes); err != nil {
		return nil, gs.rollback(g, &core.MeshAllocationError{Resource: "vertex buffer", Bytes: uint64(len(vertexBytes)), Err: err})
	}
	for _, attribute := range metadata.VertexLayout {
		r.VertexAttribute(attribute, metadata.VertexSize)
	}

	g.IndexBufferID = r.BufferCreate()
	if g.IndexBufferID == 0 {
		return nil, gs.rollback(g, &core.MeshAllocationError{Resource: "index buffer", Bytes: uint64(len(indexBytes)), Err: core.ErrOutOfMemory})
	}
	r.BufferBind(metadata.BufferTargetElementArray, g.IndexBufferID)
	if err := r.BufferLoad(metadata.BufferTargetElementArray, indexBytes); err != nil {
		return nil, gs.rollback(g, &core.MeshAllocationError{Resource: "index buffer", Bytes: uint64(len(indexBytes)), Err: err})
	}

	// the element binding stays recorded in the vertex array
	r.VertexArrayBind(0)
	r.BufferBind(metadata.BufferTargetArray, 0)

	gs.live[g] = struct{}{}
	core.LogDebug("geometry '%s' uploaded: %d vertices, %d indices", g.Name, g.VertexCount, g.IndexCount)
	return g, nil
}

func (gs *GeometrySystem) rollback(g *metadata.Geometry, err error) error {
	gs.releaseHandles(g)
	core.LogError("%s", err)
	return err
}

/**
 * @brief Releases the GPU storage of a geometry. Unknown or already
 * destroyed geometries are ignored.
 */
func (gs *GeometrySystem) Destroy(g *metadata.Geometry) {
	if g == nil {
		return
	}
	if _, ok := gs.live[g]; !ok {
		return
	}
	gs.releaseHandles(g)
	delete(gs.live, g)
}

func (gs *GeometrySystem) releaseHandles(g *metadata.Geometry) {
	r := gs.renderer
	r.VertexArrayBind(0)
	r.BufferBind(metadata.BufferTargetArray, 0)
	if g.IndexBufferID != 0 {
		r.BufferDestroy(g.IndexBufferID)
		g.IndexBufferID = 0
	}
	if g.VertexBufferID != 0 {
		r.BufferDestroy(g.VertexBufferID)
		g.VertexBufferID = 0
	}
	if g.VertexArrayID != 0 {
		r.VertexArrayDestroy(g.VertexArrayID)
		g.VertexArrayID = 0
	}
}

// LiveCount returns the number of geometries currently holding GPU handles.
func (gs *GeometrySystem) LiveCount() int {
	return len(gs.live)
}

/**
 * @brief Generates the CPU side of a rows x cols grid lying on the XZ plane.
 * Vertex (r, c) is at (c, 0, r) and is shaded sin((c/(cols-1)) * (r/(rows-1)))
 * on every colour channel. Each cell is split into two triangles.
 *
 * @param rows The number of vertex rows, at least 2.
 * @param cols The number of vertex columns, at least 2.
 * @param name The name of the geometry.
 * @return A geometry config, or core.ErrInvalidDimensions.
 */
func (gs *GeometrySystem) GenerateGridConfig(rows, cols uint32, name string) (*metadata.GeometryConfig, error) {
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("grid %dx%d needs at least 2 rows and 2 columns: %w", rows, cols, core.ErrInvalidDimensions)
	}
	vertexCount := uint64(rows) * uint64(cols)
	indexCount := uint64(rows-1) * uint64(cols-1) * 6
	if indexCount > stdmath.MaxUint32 || vertexCount*uint64(metadata.VertexSize) > stdmath.MaxInt32 {
		return nil, fmt.Errorf("grid %dx%d is too large to address: %w", rows, cols, core.ErrInvalidDimensions)
	}
	if name == "" {
		name = metadata.DefaultGeometryName
	}

	config := &metadata.GeometryConfig{
		VertexCount: uint32(vertexCount),
		Vertices:    make([]metadata.Vertex, vertexCount),
		IndexCount:  uint32(indexCount),
		Indices:     make([]uint32, indexCount),
		Name:        name,
	}

	lastRow := float32(rows - 1)
	lastCol := float32(cols - 1)
	for r := uint32(0); r < rows; r++ {
		for c := uint32(0); c < cols; c++ {
			shade := float32(stdmath.Sin(float64((float32(c) / lastCol) * (float32(r) / lastRow))))
			config.Vertices[r*cols+c] = metadata.Vertex{
				Position: math.Vec4{float32(c), 0, float32(r), 1},
				Colour:   math.Vec4{shade, shade, shade, 1},
			}
		}
	}

	index := 0
	for r := uint32(0); r < rows-1; r++ {
		for c := uint32(0); c < cols-1; c++ {
			topLeft := r*cols + c
			bottomLeft := (r+1)*cols + c
			// triangle 1
			config.Indices[index+0] = topLeft
			config.Indices[index+1] = bottomLeft
			config.Indices[index+2] = bottomLeft + 1
			// triangle 2
			config.Indices[index+3] = topLeft
			config.Indices[index+4] = bottomLeft + 1
			config.Indices[index+5] = topLeft + 1
			index += 6
		}
	}

	config.Extents = math.Extents3D{
		Min: math.Vec3{0, 0, 0},
		Max: math.Vec3{lastCol, 0, lastRow},
	}
	config.Center = config.Extents.Center()
	return config, nil
}
