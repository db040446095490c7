// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Vec3 is a 3-component float vector used for positions, scales, and Euler rotations.
type Vec3 [3]float32

// Color is an RGBA color with components in [0, 1], laid out to match a
// vec4<f32> in GPU instance buffers.
type Color [4]float32

// Pose holds the world transform of a scene object: position, Euler rotation
// (radians, Y-X-Z order), and per-axis scale.
type Pose struct {
	// Position is the world-space translation.
	Position Vec3
	// Rotation holds Euler angles in radians around each axis.
	Rotation Vec3
	// Scale holds per-axis scale factors. The zero Pose is not renderable; use
	// DefaultPose (unit scale) as a starting point.
	Scale Vec3
}

// DefaultPose returns a Pose at the origin with no rotation and unit scale.
//
// Returns:
//   - Pose: the identity pose
func DefaultPose() Pose {
	return Pose{Scale: Vec3{1, 1, 1}}
}

// Matrix writes the pose's 4x4 column-major model matrix into out.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
func (p Pose) Matrix(out []float32) {
	BuildModelMatrix(out,
		p.Position[0], p.Position[1], p.Position[2],
		p.Rotation[0], p.Rotation[1], p.Rotation[2],
		p.Scale[0], p.Scale[1], p.Scale[2],
	)
}
