package components

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/gridmesh/engine/math"
)

/**
 * @brief A free-look camera described by a position and two angles in
 * degrees: Theta around the world Y axis, measured from +X towards +Z, and
 * Phi the elevation above the XZ plane. Ideally, these are created and
 * managed by the camera system.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position math.Vec3
	/** @brief Heading in degrees. */
	Theta float32
	/** @brief Elevation in degrees, kept within +-89. */
	Phi float32
	/** @brief Degrees per second the camera orbits around Pivot. 0 disables orbiting. */
	OrbitSpeed float32
	/** @brief The point the camera orbits around. */
	Pivot math.Vec3

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: IMPORTANT: Do not get this directly, use GetView() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix       math.Mat4
	ProjectionMatrix math.Mat4
}

type CameraLookup struct {
	ID             uint16
	ReferenceCount uint16
	Camera         *Camera
}

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

// 89 degrees, to stay clear of gimbal lock at the poles.
const pitchLimit float32 = 89.0

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Position = math.Vec3{}
	c.Theta = 0
	c.Phi = 0
	c.OrbitSpeed = 0
	c.Pivot = math.Vec3{}
	c.IsDirty = true
	c.ViewMatrix = mgl32.Ident4()
	c.ProjectionMatrix = mgl32.Ident4()
}

// SetViewFor places the camera at position looking along the direction given
// by theta and phi, both in degrees.
func (c *Camera) SetViewFor(position math.Vec3, theta, phi float32) {
	c.Position = position
	c.Theta = theta
	c.Phi = math.Clamp(phi, -pitchLimit, pitchLimit)
	c.IsDirty = true
}

// SetPerspective builds the projection from a vertical field of view in
// radians.
func (c *Camera) SetPerspective(fovy, aspect, near, far float32) {
	c.ProjectionMatrix = mgl32.Perspective(fovy, aspect, near, far)
}

func (c *Camera) SetProjection(projection math.Mat4) {
	c.ProjectionMatrix = projection
}

func (c *Camera) GetProjection() math.Mat4 {
	return c.ProjectionMatrix
}

func (c *Camera) GetPosition() math.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = mgl32.LookAtV(c.Position, c.Position.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// Transform returns projection * view, the matrix handed to draw calls.
func (c *Camera) Transform() math.Mat4 {
	return c.ProjectionMatrix.Mul4(c.GetView())
}

// Update advances the orbit by deltaTime seconds.
func (c *Camera) Update(deltaTime float64) {
	if c.OrbitSpeed == 0 {
		return
	}
	c.Orbit(c.OrbitSpeed * float32(deltaTime))
}

// Orbit rotates the camera around the vertical axis through Pivot by degrees,
// turning the heading with it so the pivot stays at the same spot on screen.
func (c *Camera) Orbit(degrees float32) {
	rotation := mgl32.HomogRotate3DY(math.DegToRad(degrees))
	offset := c.Position.Sub(c.Pivot)
	c.Position = c.Pivot.Add(rotation.Mul4x1(offset.Vec4(1)).Vec3())
	// a positive rotation about Y turns +X towards -Z, i.e. decreases Theta
	c.Theta = wrapDegrees(c.Theta - degrees)
	c.IsDirty = true
}

func (c *Camera) Forward() math.Vec3 {
	theta := float64(math.DegToRad(c.Theta))
	phi := float64(math.DegToRad(c.Phi))
	return mgl32.Vec3{
		float32(stdmath.Cos(phi) * stdmath.Cos(theta)),
		float32(stdmath.Sin(phi)),
		float32(stdmath.Cos(phi) * stdmath.Sin(theta)),
	}.Normalize()
}

func wrapDegrees(d float32) float32 {
	w := float32(stdmath.Mod(float64(d), 360))
	if w < 0 {
		w += 360
	}
	return w
}
