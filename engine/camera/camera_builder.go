package camera

import "github.com/Carmen-Shannon/vista-go/common"

// CameraOption defines a functional option for the NewCamera builder.
type CameraOption func(*cameraImpl)

// WithPosition sets the initial world position.
//
// Parameters:
//   - p: the world position
//
// Returns:
//   - CameraOption: the functional option
func WithPosition(p common.Vec3) CameraOption {
	return func(c *cameraImpl) {
		c.position = p
	}
}

// WithFov sets the field of view.
//
// Parameters:
//   - radians: the field of view in radians (values <= 0 are ignored)
//
// Returns:
//   - CameraOption: the functional option
func WithFov(radians float32) CameraOption {
	return func(c *cameraImpl) {
		if radians > 0 {
			c.fov = radians
		}
	}
}

// WithAspect sets the initial aspect ratio.
//
// Parameters:
//   - aspect: the aspect ratio (values <= 0 are ignored)
//
// Returns:
//   - CameraOption: the functional option
func WithAspect(aspect float32) CameraOption {
	return func(c *cameraImpl) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: the near plane distance
//   - far: the far plane distance (must exceed near)
//
// Returns:
//   - CameraOption: the functional option
func WithClipPlanes(near, far float32) CameraOption {
	return func(c *cameraImpl) {
		if near > 0 && far > near {
			c.near = near
			c.far = far
		}
	}
}
