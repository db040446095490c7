package lod

// RegisterOption defines a per-object functional option for Registry.Register.
type RegisterOption func(*lodConfig)

// WithThresholds sets this object's distance thresholds, overriding the
// registry defaults. Must be positive and strictly ascending.
//
// Parameters:
//   - thresholds: ascending level boundaries
//
// Returns:
//   - RegisterOption: the functional option
func WithThresholds(thresholds []float32) RegisterOption {
	return func(c *lodConfig) {
		c.thresholds = thresholds
	}
}

// WithHysteresis sets this object's hysteresis multipliers, overriding the
// registry defaults.
//
// Parameters:
//   - up: multiplier on a boundary when moving to a coarser level (>= 1)
//   - down: multiplier on a boundary when moving to a finer level (in (0, 1])
//
// Returns:
//   - RegisterOption: the functional option
func WithHysteresis(up, down float32) RegisterOption {
	return func(c *lodConfig) {
		c.hystUp = up
		c.hystDown = down
	}
}

// WithGroup assigns the object to a named group so it participates in
// SetGroupLevel overrides.
//
// Parameters:
//   - group: the group name
//
// Returns:
//   - RegisterOption: the functional option
func WithGroup(group string) RegisterOption {
	return func(c *lodConfig) {
		c.group = group
	}
}

// WithDistanceBias scales this object's evaluated distance. Values below 1
// hold detail longer; above 1 shed it sooner.
//
// Parameters:
//   - bias: the per-object distance scale (must be positive)
//
// Returns:
//   - RegisterOption: the functional option
func WithDistanceBias(bias float32) RegisterOption {
	return func(c *lodConfig) {
		c.distanceBias = bias
	}
}

// WithApplier sets a custom level applier invoked on every committed switch,
// receiving the new level and the coarsest valid level. Objects without a
// renderable asset (e.g. containers whose children are truncated
// proportionally) must register with an applier; asset-backed objects may
// combine one with the normal representation swap.
//
// Parameters:
//   - apply: the applier callback
//
// Returns:
//   - RegisterOption: the functional option
func WithApplier(apply func(level, maxLevel int)) RegisterOption {
	return func(c *lodConfig) {
		c.applier = apply
	}
}

// WithInitialLevel starts the object at a level other than full detail. The
// variant for the level is resolved synchronously during Register.
//
// Parameters:
//   - level: the starting level (clamped to the valid range at evaluation)
//
// Returns:
//   - RegisterOption: the functional option
func WithInitialLevel(level int) RegisterOption {
	return func(c *lodConfig) {
		if level > 0 {
			c.level = level
		}
	}
}
