package lod

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectLevelBasicBands(t *testing.T) {
	thresholds := []float32{10, 30, 60}

	assert.Equal(t, 0, SelectLevel(0, 5, thresholds, 1.1, 0.91))
	assert.Equal(t, 1, SelectLevel(0, 15, thresholds, 1.1, 0.91))
	assert.Equal(t, 2, SelectLevel(0, 45, thresholds, 1.1, 0.91))
	assert.Equal(t, 3, SelectLevel(0, 100, thresholds, 1.1, 0.91))
}

func TestSelectLevelHysteresisDeadBand(t *testing.T) {
	thresholds := []float32{10, 30, 60}

	// At level 0, the coarsening boundary is 10 * 1.1 = 11: sitting just past
	// the raw threshold does not switch.
	assert.Equal(t, 0, SelectLevel(0, 10.5, thresholds, 1.1, 0.91))
	assert.Equal(t, 1, SelectLevel(0, 11.1, thresholds, 1.1, 0.91))

	// At level 1, the refining boundary is 10 * 0.91 = 9.1: drifting just
	// under the raw threshold does not switch back.
	assert.Equal(t, 1, SelectLevel(1, 9.5, thresholds, 1.1, 0.91))
	assert.Equal(t, 0, SelectLevel(1, 9.0, thresholds, 1.1, 0.91))
}

func TestSelectLevelNoFlappingAcrossBoundary(t *testing.T) {
	thresholds := []float32{10, 30, 60}

	// Oscillating between 9.5 and 10.5 around the raw threshold must never
	// change the level, whichever side it started on.
	level := 0
	for i := 0; i < 20; i++ {
		d := float32(9.5)
		if i%2 == 0 {
			d = 10.5
		}
		level = SelectLevel(level, d, thresholds, 1.1, 0.91)
		assert.Equal(t, 0, level)
	}

	level = 1
	for i := 0; i < 20; i++ {
		d := float32(9.5)
		if i%2 == 0 {
			d = 10.5
		}
		level = SelectLevel(level, d, thresholds, 1.1, 0.91)
		assert.Equal(t, 1, level)
	}
}

func TestSelectLevelThirtyBandScenario(t *testing.T) {
	thresholds := []float32{10, 30, 60}

	// Walking out from 5 to 35: the 30 threshold only coarsens once its
	// 30 * 1.1 = 33 boundary is behind the camera, and the evaluation at 35
	// lands the band in a single switch.
	assert.Equal(t, 0, SelectLevel(0, 5, thresholds, 1.1, 0.91))
	assert.Equal(t, 1, SelectLevel(1, 32.9, thresholds, 1.1, 0.91))
	assert.Equal(t, 2, SelectLevel(1, 33.5, thresholds, 1.1, 0.91))
	assert.Equal(t, 2, SelectLevel(0, 35, thresholds, 1.1, 0.91))

	// Stepping back to 28 sits inside the dead band; no return switch until
	// the distance drops under 30 * 0.91 = 27.3.
	assert.Equal(t, 2, SelectLevel(2, 28, thresholds, 1.1, 0.91))
	assert.Equal(t, 2, SelectLevel(2, 27.31, thresholds, 1.1, 0.91))
	assert.Equal(t, 1, SelectLevel(2, 26.9, thresholds, 1.1, 0.91))
}

func TestSelectLevelMultiStep(t *testing.T) {
	thresholds := []float32{10, 30, 60}

	// A large jump crosses several boundaries in one evaluation.
	assert.Equal(t, 3, SelectLevel(0, 500, thresholds, 1.1, 0.91))
	assert.Equal(t, 0, SelectLevel(3, 1, thresholds, 1.1, 0.91))
}

func TestSelectLevelEmptyThresholds(t *testing.T) {
	assert.Equal(t, 0, SelectLevel(2, 1000, nil, 1.1, 0.91))
}

func TestSelectLevelClampsCurrent(t *testing.T) {
	thresholds := []float32{10, 30, 60}
	assert.Equal(t, 3, SelectLevel(9, 100, thresholds, 1.1, 0.91))
	assert.Equal(t, 0, SelectLevel(-4, 1, thresholds, 1.1, 0.91))
}

func TestValidThresholds(t *testing.T) {
	assert.True(t, validThresholds([]float32{10, 30, 60}))
	assert.True(t, validThresholds(nil))
	assert.False(t, validThresholds([]float32{10, 10, 60}))
	assert.False(t, validThresholds([]float32{30, 10}))
	assert.False(t, validThresholds([]float32{0, 10}))
}
