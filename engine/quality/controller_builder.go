package quality

// ControllerOption defines a functional option for the NewController builder.
// The second argument carries the history capacity so options can tune it
// before the ring buffer is allocated.
type ControllerOption func(*adaptiveController, *int)

// WithClock injects the timestamp source used for cooldown gating and Render
// timing. Tests use this to drive time deterministically.
//
// Parameters:
//   - clock: the millisecond clock (must not be nil)
//
// Returns:
//   - ControllerOption: the functional option
func WithClock(clock Clock) ControllerOption {
	return func(c *adaptiveController, _ *int) {
		if clock == nil {
			panic("quality: WithClock requires a non-nil clock")
		}
		c.clock = clock
	}
}

// WithTargetFPS sets the initial frame-rate target.
//
// Parameters:
//   - fps: the target frames per second (values <= 0 are ignored)
//
// Returns:
//   - ControllerOption: the functional option
func WithTargetFPS(fps float64) ControllerOption {
	return func(c *adaptiveController, _ *int) {
		if fps > 0 {
			c.targetFPS = fps
		}
	}
}

// WithCooldown sets the minimum milliseconds between adjustments.
//
// Parameters:
//   - ms: the cooldown window (values < 0 are ignored)
//
// Returns:
//   - ControllerOption: the functional option
func WithCooldown(ms float64) ControllerOption {
	return func(c *adaptiveController, _ *int) {
		if ms >= 0 {
			c.cooldownMS = ms
		}
	}
}

// WithSteps sets the per-adjustment step sizes. The recovery step is kept
// smaller than the reduction step so the controller backs off fast and
// recovers cautiously.
//
// Parameters:
//   - down: the step subtracted under load
//   - up: the step added when headroom returns
//
// Returns:
//   - ControllerOption: the functional option
func WithSteps(down, up float32) ControllerOption {
	return func(c *adaptiveController, _ *int) {
		if down > 0 {
			c.stepDown = down
		}
		if up > 0 {
			c.stepUp = up
		}
	}
}

// WithFloor sets the initial lower bound of the quality level.
//
// Parameters:
//   - floor: the quality floor (clamped to [0, 1] at application)
//
// Returns:
//   - ControllerOption: the functional option
func WithFloor(floor float32) ControllerOption {
	return func(c *adaptiveController, _ *int) {
		if floor >= 0 && floor <= 1 {
			c.floor = floor
		}
	}
}

// WithHistoryLen sets the frame-time ring buffer capacity.
//
// Parameters:
//   - n: the sample capacity (values < 1 are clamped to 1)
//
// Returns:
//   - ControllerOption: the functional option
func WithHistoryLen(n int) ControllerOption {
	return func(_ *adaptiveController, historyLen *int) {
		if n < 1 {
			n = 1
		}
		*historyLen = n
	}
}

// WithChangeHandler sets a callback invoked with the new level and settings
// after every committed adjustment or override.
//
// Parameters:
//   - handler: the callback
//
// Returns:
//   - ControllerOption: the functional option
func WithChangeHandler(handler func(level float32, s Settings)) ControllerOption {
	return func(c *adaptiveController, _ *int) {
		c.onChange = handler
	}
}
