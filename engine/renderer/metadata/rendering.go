package metadata

/** @brief The buffer binding points used by the engine. */
type BufferTarget int

const (
	/** @brief Per-vertex attribute data. */
	BufferTargetArray BufferTarget = iota
	/** @brief Index data; the binding is part of the vertex array state. */
	BufferTargetElementArray
)

func (t BufferTarget) String() string {
	switch t {
	case BufferTargetArray:
		return "array"
	case BufferTargetElementArray:
		return "element array"
	default:
		return "unknown"
	}
}

// BackendStats counts the GPU objects a backend currently holds.
type BackendStats struct {
	Shaders      int
	Programs     int
	Buffers      int
	VertexArrays int
	// BufferBytes is the sum of every live buffer's storage.
	BufferBytes uint64
	DrawCalls   uint64
}
