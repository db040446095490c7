package lod

// DefaultHysteresisUp is the multiplier applied to a threshold when testing a
// switch to a coarser level. Values above 1 push the boundary outward so an
// object sitting exactly on a threshold does not flicker between levels.
const DefaultHysteresisUp float32 = 1.1

// DefaultHysteresisDown is the multiplier applied to a threshold when testing
// a switch back to a finer level. Values below 1 pull the boundary inward,
// forming a dead band together with DefaultHysteresisUp.
const DefaultHysteresisDown float32 = 0.91

// SelectLevel computes the detail level for an object at the given distance.
// thresholds holds the ascending distance boundaries between levels; level 0
// is the finest and len(thresholds) the coarsest. The current level widens the
// boundaries in both directions so small distance oscillations around a
// threshold never cause a switch.
//
// Parameters:
//   - current: the object's current detail level
//   - distance: the camera-to-object distance, scaled by any quality multiplier
//   - thresholds: ascending level boundaries (empty pins the object to level 0)
//   - hystUp: multiplier on a boundary when moving to a coarser level
//   - hystDown: multiplier on a boundary when moving to a finer level
//
// Returns:
//   - int: the selected level, in [0, len(thresholds)]
func SelectLevel(current int, distance float32, thresholds []float32, hystUp, hystDown float32) int {
	if len(thresholds) == 0 {
		return 0
	}
	if current < 0 {
		current = 0
	}
	if current > len(thresholds) {
		current = len(thresholds)
	}

	level := current
	for level < len(thresholds) && distance > thresholds[level]*hystUp {
		level++
	}
	for level > 0 && distance < thresholds[level-1]*hystDown {
		level--
	}
	return level
}

// validThresholds reports whether a threshold slice is strictly ascending and
// positive, the shape SelectLevel requires.
func validThresholds(thresholds []float32) bool {
	prev := float32(0)
	for _, t := range thresholds {
		if t <= prev {
			return false
		}
		prev = t
	}
	return true
}
