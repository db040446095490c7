// Package quality implements the closed-loop adaptive quality controller. It
// samples frame times into a bounded history and, on a cooldown cadence,
// steps a scalar quality level down under load and back up when headroom
// returns, deriving concrete rendering settings from the level.
package quality

import (
	"log"
	"sync"
	"time"
)

// Clock returns a monotonic timestamp in milliseconds. Injectable so tests
// can drive the cooldown deterministically.
type Clock func() float64

// adaptiveController is the implementation of the Controller interface.
type adaptiveController struct {
	mu *sync.Mutex

	label string
	clock Clock

	level float32
	floor float32

	stepDown float32
	stepUp   float32

	targetFPS  float64
	cooldownMS float64

	history      *frameHistory
	lastAdjustMS float64

	settings Settings

	// onChange, when set, is invoked with the new settings after every
	// adjustment or override.
	onChange func(level float32, s Settings)
}

// Controller defines the interface for the adaptive quality controller.
// Sample feeds it measured frame times; Render wraps a frame submission and
// samples its duration; Settings exposes the currently derived knobs.
type Controller interface {
	// Sample records one frame's measured duration and applies the adjustment
	// policy if the cooldown window has elapsed.
	//
	// Parameters:
	//   - frameMS: the frame duration in milliseconds
	Sample(frameMS float64)

	// Render times the provided frame submission and records its duration as
	// a sample.
	//
	// Parameters:
	//   - submit: the frame submission to time (ignored when nil)
	Render(submit func())

	// Level returns the current quality level in [floor, 1.0].
	//
	// Returns:
	//   - float32: the quality level
	Level() float32

	// Settings returns the knobs derived from the current quality level.
	//
	// Returns:
	//   - Settings: the derived settings
	Settings() Settings

	// SetTargetFPS changes the frame-rate target the controller steers
	// toward. The frame-time history is reset so samples measured against the
	// old budget never drive the first adjustment under the new one.
	//
	// Parameters:
	//   - fps: the target frames per second (values <= 0 are ignored)
	SetTargetFPS(fps float64)

	// SetFloor changes the lower bound of the quality level, raising the
	// current level if it now sits below the floor. Raising the level also
	// resets the frame-time history, since samples taken at the old level no
	// longer describe the current rendering cost.
	//
	// Parameters:
	//   - floor: the quality floor (clamped to [0, 1])
	SetFloor(floor float32)

	// ForceLevel overrides the quality level directly. The frame-time history
	// is reset so the next automatic adjustment is not driven by samples
	// taken at the old level, and the cooldown restarts.
	//
	// Parameters:
	//   - level: the forced level (clamped to [floor, 1])
	ForceLevel(level float32)
}

// Compile-time check that adaptiveController implements Controller.
var _ Controller = &adaptiveController{}

// NewController creates an adaptive quality Controller with the provided
// options.
//
// Parameters:
//   - label: identifier used in log output
//   - options: functional options to configure the controller
//
// Returns:
//   - Controller: the newly created controller
func NewController(label string, options ...ControllerOption) Controller {
	c := &adaptiveController{
		mu:         &sync.Mutex{},
		label:      label,
		level:      1,
		floor:      0.3,
		stepDown:   0.1,
		stepUp:     0.05,
		targetFPS:  60,
		cooldownMS: 2000,
	}
	historyLen := 30
	for _, opt := range options {
		opt(c, &historyLen)
	}
	if c.clock == nil {
		start := time.Now()
		c.clock = func() float64 {
			return float64(time.Since(start)) / float64(time.Millisecond)
		}
	}
	c.history = newFrameHistory(historyLen)
	c.settings = DeriveSettings(c.level)
	c.lastAdjustMS = c.clock()
	return c
}

func (c *adaptiveController) Sample(frameMS float64) {
	if frameMS <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history.Push(frameMS)

	now := c.clock()
	if !CooldownElapsed(now, c.lastAdjustMS, c.cooldownMS) {
		return
	}
	if !c.history.Full() {
		// Not enough evidence at the current level yet; wait for the buffer
		// to fill before acting on its mean.
		return
	}

	targetMS := 1000 / c.targetFPS
	switch Decide(c.history.Mean(), targetMS) {
	case AdjustDown:
		c.apply(c.level-c.stepDown, now)
	case AdjustUp:
		if c.level < 1 {
			c.apply(c.level+c.stepUp, now)
		}
	case AdjustNone:
	}
}

func (c *adaptiveController) Render(submit func()) {
	if submit == nil {
		return
	}
	start := c.clock()
	submit()
	c.Sample(c.clock() - start)
}

func (c *adaptiveController) Level() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *adaptiveController) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

func (c *adaptiveController) SetTargetFPS(fps float64) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targetFPS = fps
	c.history.Reset()
}

func (c *adaptiveController) SetFloor(floor float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if floor < 0 {
		floor = 0
	}
	if floor > 1 {
		floor = 1
	}
	c.floor = floor
	if c.level < floor {
		c.history.Reset()
		c.apply(floor, c.clock())
	}
}

func (c *adaptiveController) ForceLevel(level float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Reset()
	c.apply(level, c.clock())
}

// apply clamps and commits a new quality level, re-derives settings, and
// restarts the cooldown. Caller must hold c.mu.
func (c *adaptiveController) apply(level float32, nowMS float64) {
	if level < c.floor {
		level = c.floor
	}
	if level > 1 {
		level = 1
	}
	if level == c.level {
		c.lastAdjustMS = nowMS
		return
	}
	c.level = level
	c.settings = DeriveSettings(level)
	c.lastAdjustMS = nowMS
	log.Printf("[QualityController] %s: quality level -> %.2f (shadows %d, density %.2f)",
		c.label, level, c.settings.ShadowMapResolution, c.settings.PixelDensity)
	if c.onChange != nil {
		c.onChange(level, c.settings)
	}
}
