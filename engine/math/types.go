package math

import "github.com/go-gl/mathgl/mgl32"

// Vec3 represents a 3D vector
type Vec3 = mgl32.Vec3

// Vec4 represents a 4D vector
type Vec4 = mgl32.Vec4

/** @brief a 4x4 column-major matrix, typically used to represent object transformations. */
type Mat4 = mgl32.Mat4

/**
 * @brief Represents the extents of a 3d object.
 */
type Extents3D struct {
	/** @brief The minimum extents of the object. */
	Min Vec3
	/** @brief The maximum extents of the object. */
	Max Vec3
}

// Center returns the midpoint of the extents.
func (e Extents3D) Center() Vec3 {
	return e.Min.Add(e.Max).Mul(0.5)
}
