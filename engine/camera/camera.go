// Package camera holds the observer state the detail selection reads: a world
// position plus the perspective parameters the renderer needs. Matrix math
// stays out of this core; collaborators derive view/projection themselves.
package camera

import (
	"sync"

	"github.com/Carmen-Shannon/vista-go/common"
)

type cameraImpl struct {
	mu *sync.Mutex

	position common.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32
}

// Camera defines the interface for the observer. Detail selection consumes
// the world position; the perspective parameters ride along for the renderer.
type Camera interface {
	// Position returns the camera's world position.
	//
	// Returns:
	//   - common.Vec3: the world position
	Position() common.Vec3

	// SetPosition moves the camera.
	//
	// Parameters:
	//   - p: the new world position
	SetPosition(p common.Vec3)

	// Fov returns the field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// SetAspect updates the aspect ratio, typically on window resize.
	//
	// Parameters:
	//   - aspect: the new aspect ratio (values <= 0 are ignored)
	SetAspect(aspect float32)

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32
}

// Compile-time check that cameraImpl implements Camera.
var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with the provided options.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		fov:    1.0472, // 60 degrees
		aspect: 16.0 / 9.0,
		near:   0.1,
		far:    1000,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *cameraImpl) Position() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) SetPosition(p common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}
