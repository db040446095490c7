package quality

// Adjustment is the outcome of one policy evaluation.
type Adjustment int

const (
	// AdjustNone leaves the quality level unchanged.
	AdjustNone Adjustment = iota
	// AdjustDown lowers the quality level by the full step.
	AdjustDown
	// AdjustUp raises the quality level by the smaller recovery step.
	AdjustUp
)

const (
	// overloadFactor is the ratio of mean frame time to target above which the
	// controller steps quality down.
	overloadFactor = 1.3

	// headroomFactor is the ratio below which the controller steps quality
	// back up. The gap between the two factors is the dead band that keeps
	// the controller from oscillating around the target.
	headroomFactor = 0.7
)

// CooldownElapsed reports whether enough time has passed since the last
// adjustment for the controller to act again. Keeping this a pure function of
// timestamps makes the gating independently testable.
//
// Parameters:
//   - nowMS: the current clock reading in milliseconds
//   - lastAdjustMS: the clock reading of the previous adjustment
//   - cooldownMS: the configured cooldown window
//
// Returns:
//   - bool: true when an adjustment is permitted
func CooldownElapsed(nowMS, lastAdjustMS, cooldownMS float64) bool {
	return nowMS-lastAdjustMS >= cooldownMS
}

// Decide maps a mean frame time against the target to an adjustment
// direction. It does not consult the cooldown; callers gate with
// CooldownElapsed first.
//
// Parameters:
//   - meanMS: the mean recorded frame time in milliseconds
//   - targetMS: the frame-time budget (1000 / target FPS)
//
// Returns:
//   - Adjustment: the direction to step, or AdjustNone inside the dead band
func Decide(meanMS, targetMS float64) Adjustment {
	if targetMS <= 0 || meanMS <= 0 {
		return AdjustNone
	}
	switch {
	case meanMS > targetMS*overloadFactor:
		return AdjustDown
	case meanMS < targetMS*headroomFactor:
		return AdjustUp
	default:
		return AdjustNone
	}
}
