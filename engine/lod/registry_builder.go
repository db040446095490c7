package lod

import "github.com/Carmen-Shannon/vista-go/engine/variant"

// RegistryOption defines a functional option for the NewRegistry builder.
type RegistryOption func(*lodRegistry)

// WithVariantCache attaches the variant cache the registry resolves level
// geometry through. Required.
//
// Parameters:
//   - cache: the variant cache (must not be nil)
//
// Returns:
//   - RegistryOption: the functional option
func WithVariantCache(cache variant.Cache) RegistryOption {
	return func(r *lodRegistry) {
		if cache == nil {
			panic("lod: WithVariantCache requires a non-nil cache")
		}
		r.cache = cache
	}
}

// WithUpdateInterval sets the minimum seconds between distance evaluations.
// Pending variant adoption still happens every Update call.
//
// Parameters:
//   - seconds: the throttle interval (values <= 0 evaluate every frame)
//
// Returns:
//   - RegistryOption: the functional option
func WithUpdateInterval(seconds float64) RegistryOption {
	return func(r *lodRegistry) {
		if seconds < 0 {
			seconds = 0
		}
		r.updateInterval = seconds
	}
}

// WithDefaultThresholds sets the distance thresholds used by registrations
// that do not supply their own.
//
// Parameters:
//   - thresholds: ascending level boundaries
//
// Returns:
//   - RegistryOption: the functional option
func WithDefaultThresholds(thresholds []float32) RegistryOption {
	return func(r *lodRegistry) {
		r.defaultThresholds = thresholds
	}
}

// WithDefaultHysteresis sets the hysteresis multipliers used by registrations
// that do not supply their own.
//
// Parameters:
//   - up: multiplier on a boundary when moving to a coarser level (>= 1)
//   - down: multiplier on a boundary when moving to a finer level (in (0, 1])
//
// Returns:
//   - RegistryOption: the functional option
func WithDefaultHysteresis(up, down float32) RegistryOption {
	return func(r *lodRegistry) {
		r.defaultHystUp = up
		r.defaultHystDown = down
	}
}

// WithDistanceMultiplier sets the initial global distance scale.
//
// Parameters:
//   - m: the multiplier (values <= 0 are ignored)
//
// Returns:
//   - RegistryOption: the functional option
func WithDistanceMultiplier(m float32) RegistryOption {
	return func(r *lodRegistry) {
		if m > 0 {
			r.distanceMultiplier = m
		}
	}
}

// WithLevelChangeHandler sets a callback invoked synchronously as each level
// switch commits, in addition to the Drain queue.
//
// Parameters:
//   - handler: the callback
//
// Returns:
//   - RegistryOption: the functional option
func WithLevelChangeHandler(handler func(LevelChange)) RegistryOption {
	return func(r *lodRegistry) {
		r.handler = handler
	}
}
