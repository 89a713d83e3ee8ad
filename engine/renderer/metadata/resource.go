package metadata

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown resource type, ignored by the asset manager. */
	ResourceTypeNone ResourceType = iota
	/** @brief Text resource type. */
	ResourceTypeText
	/** @brief Shader stage source resource type. */
	ResourceTypeShader
)

/** @brief A resource loaded from disk by the asset manager. */
type Resource struct {
	/** @brief The resource name. */
	Name string
	/** @brief The full path the resource was read from. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The size of the data in bytes. */
	DataSize uint64
	/** @brief The raw resource data. */
	Data []byte
}

// String returns the data as text, as needed for shader sources.
func (r *Resource) String() string {
	return string(r.Data)
}
