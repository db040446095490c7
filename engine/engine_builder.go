package engine

import (
	"time"

	"github.com/Carmen-Shannon/vista-go/engine/camera"
	"github.com/Carmen-Shannon/vista-go/engine/instance"
	"github.com/Carmen-Shannon/vista-go/engine/lod"
	"github.com/Carmen-Shannon/vista-go/engine/provider"
	"github.com/Carmen-Shannon/vista-go/engine/quality"
	"github.com/Carmen-Shannon/vista-go/engine/scene"
	"github.com/Carmen-Shannon/vista-go/engine/variant"
	"github.com/Carmen-Shannon/vista-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// The tick callback will be called at this rate for game logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow sets a custom configured window for the engine to use rather than allowing the engine
// to create and manage one internally. Omit for headless operation.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithWorld sets the scene graph the engine operates on.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorld(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.world = s
	}
}

// WithCamera sets the observer whose position drives detail selection.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.cam = c
	}
}

// WithVariantCache sets the variant cache backing detail selection.
//
// Parameters:
//   - cache: the variant cache
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithVariantCache(cache variant.Cache) EngineBuilderOption {
	return func(e *engine) {
		e.cache = cache
	}
}

// WithDetailRegistry sets a pre-configured detail level registry.
//
// Parameters:
//   - r: the registry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDetailRegistry(r lod.Registry) EngineBuilderOption {
	return func(e *engine) {
		e.lods = r
	}
}

// WithSynchronizer sets a pre-configured instance synchronizer.
//
// Parameters:
//   - s: the synchronizer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSynchronizer(s instance.Synchronizer) EngineBuilderOption {
	return func(e *engine) {
		e.sync = s
	}
}

// WithQualityController sets a pre-configured adaptive quality controller.
//
// Parameters:
//   - c: the controller
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithQualityController(c quality.Controller) EngineBuilderOption {
	return func(e *engine) {
		e.quality = c
	}
}

// WithSubmitQueue sets the GPU submit queue staged buffer writes drain to.
// Omit for headless operation; staged writes are then discarded after each
// frame.
//
// Parameters:
//   - q: the submit queue
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSubmitQueue(q provider.SubmitQueue) EngineBuilderOption {
	return func(e *engine) {
		e.submit = q
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}
