package metadata

/**
 * @brief Represents the current state of a given shader.
 */
type ShaderState int

const (
	/** @brief The shader has not yet gone through the creation process, and is unusable.*/
	ShaderStateNotCreated ShaderState = iota
	/** @brief The shader program is linked and ready for use.*/
	ShaderStateInitialized
)

/** @brief Shader stages available in the system. */
type ShaderStage int

const (
	ShaderStageVertex   ShaderStage = 0x00000001
	ShaderStageFragment ShaderStage = 0x00000004
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

/**
 * @brief Represents a linked shader program on the frontend.
 */
type Shader struct {
	/** @brief The linked program handle. 0 means invalid and must never be drawn with. */
	ID uint32
	/** @brief The name the program is registered under. */
	Name string
	/** @brief The internal State of the shader. */
	State ShaderState
	/** @brief Source file of the vertex stage, empty when built from text. */
	VertexPath string
	/** @brief Source file of the fragment stage, empty when built from text. */
	FragmentPath string
	/** @brief Incremented every time a program is (re)linked under this name. */
	Generation uint32
}

// IsUsable reports whether the program may be bound for drawing.
func (s *Shader) IsUsable() bool {
	return s != nil && s.ID != 0 && s.State == ShaderStateInitialized
}

// FileBacked reports whether both stages were loaded from disk.
func (s *Shader) FileBacked() bool {
	return s.VertexPath != "" && s.FragmentPath != ""
}
