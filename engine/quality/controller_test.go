package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the controller's cooldown deterministically.
type fakeClock struct {
	nowMS float64
}

func (c *fakeClock) Now() float64       { return c.nowMS }
func (c *fakeClock) Advance(ms float64) { c.nowMS += ms }

func newTestController(clk *fakeClock, options ...ControllerOption) Controller {
	base := []ControllerOption{
		WithClock(clk.Now),
		WithTargetFPS(60),
		WithCooldown(2000),
		WithSteps(0.1, 0.05),
		WithFloor(0.3),
	}
	return NewController("test", append(base, options...)...)
}

func TestSustainedOverloadStepsDownOncePerCooldown(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)

	// 100 frames well over the 16.67ms budget with a 2000ms cooldown: the
	// controller must step down exactly once when the cooldown elapses, not
	// on every subsequent frame.
	for i := 0; i < 100; i++ {
		clk.Advance(23)
		c.Sample(23)
	}

	assert.InDelta(t, 0.9, float64(c.Level()), 1e-6)
}

func TestRepeatedCooldownsKeepSteppingToFloor(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)

	// Enough overloaded frames for many cooldown windows: the level walks
	// down one step per window and stops at the floor.
	for i := 0; i < 2000; i++ {
		clk.Advance(25)
		c.Sample(25)
	}

	assert.InDelta(t, 0.3, float64(c.Level()), 1e-6)
}

func TestHeadroomStepsUpBySmallerStep(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)
	c.ForceLevel(0.5)

	for i := 0; i < 200; i++ {
		clk.Advance(5)
		c.Sample(5)
	}

	// 200 frames * 5ms = 1000ms: no cooldown window elapsed after the
	// override, so nothing moved yet.
	assert.InDelta(t, 0.5, float64(c.Level()), 1e-6)

	for i := 0; i < 220; i++ {
		clk.Advance(5)
		c.Sample(5)
	}

	// One window elapsed: exactly one upward step of the smaller size.
	assert.InDelta(t, 0.55, float64(c.Level()), 1e-6)
}

func TestAdjustmentBoundedByStep(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)

	before := c.Level()
	for i := 0; i < 100; i++ {
		clk.Advance(23)
		c.Sample(23)
	}
	after := c.Level()

	assert.LessOrEqual(t, float64(before-after), 0.1+1e-6)
	assert.GreaterOrEqual(t, after, float32(0.3))
	assert.LessOrEqual(t, after, float32(1))
}

func TestLevelNeverLeavesRange(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)

	c.ForceLevel(-5)
	assert.Equal(t, float32(0.3), c.Level())

	c.ForceLevel(9)
	assert.Equal(t, float32(1), c.Level())
}

func TestForceLevelResetsHistory(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)

	// Build up a heavily overloaded history.
	for i := 0; i < 50; i++ {
		clk.Advance(40)
		c.Sample(40)
	}

	c.ForceLevel(0.8)
	require.Equal(t, float32(0.8), c.Level())

	// Post-override frames are fast. If the stale 40ms history survived the
	// override, the full buffer plus elapsed cooldown would force a downward
	// step here; instead the refilled history shows headroom.
	for i := 0; i < 400; i++ {
		clk.Advance(8)
		c.Sample(8)
	}
	assert.GreaterOrEqual(t, c.Level(), float32(0.8))
}

func TestInsufficientHistoryBlocksAdjustment(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)

	// Far apart in time but only a handful of samples: the buffer never
	// fills, so no adjustment happens.
	for i := 0; i < 10; i++ {
		clk.Advance(500)
		c.Sample(40)
	}
	assert.Equal(t, float32(1), c.Level())
}

func TestSettingsTrackLevel(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)

	assert.Equal(t, DeriveSettings(1), c.Settings())

	c.ForceLevel(0.5)
	assert.Equal(t, DeriveSettings(0.5), c.Settings())
}

func TestSetFloorRaisesLevel(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)
	c.ForceLevel(0.3)

	c.SetFloor(0.6)
	assert.Equal(t, float32(0.6), c.Level())
}

func TestSetFloorResetsHistory(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)
	c.ForceLevel(0.3)

	// Fast frames recorded at the low level fill the buffer.
	for i := 0; i < 30; i++ {
		clk.Advance(5)
		c.Sample(5)
	}

	c.SetFloor(0.8)
	require.Equal(t, float32(0.8), c.Level())

	// A genuinely slow frame lands after the cooldown. If the fast pre-floor
	// history survived the raise, its mean would step the level up despite
	// the overload; a reset buffer holds too few samples to adjust at all.
	clk.Advance(2500)
	c.Sample(100)
	assert.Equal(t, float32(0.8), c.Level())
}

func TestChangeHandlerObservesAdjustments(t *testing.T) {
	clk := &fakeClock{}
	var gotLevels []float32
	c := newTestController(clk, WithChangeHandler(func(level float32, _ Settings) {
		gotLevels = append(gotLevels, level)
	}))

	for i := 0; i < 100; i++ {
		clk.Advance(23)
		c.Sample(23)
	}

	require.Len(t, gotLevels, 1)
	assert.InDelta(t, 0.9, float64(gotLevels[0]), 1e-6)
}

func TestRenderTimesSubmission(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)

	calls := 0
	c.Render(func() {
		calls++
		clk.Advance(23)
	})
	assert.Equal(t, 1, calls)

	// The sampled duration lands in the history like a direct Sample call.
	for i := 0; i < 99; i++ {
		c.Render(func() { clk.Advance(23) })
	}
	assert.InDelta(t, 0.9, float64(c.Level()), 1e-6)
}

func TestSetTargetFPSMovesBudget(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)
	c.SetTargetFPS(30) // 33.3ms budget

	// 23ms frames are comfortable headroom against a 30 FPS budget.
	for i := 0; i < 100; i++ {
		clk.Advance(23)
		c.Sample(23)
	}
	assert.Equal(t, float32(1), c.Level())
}

func TestSetTargetFPSResetsHistory(t *testing.T) {
	clk := &fakeClock{}
	c := newTestController(clk)

	// 15ms frames sit in the dead band against a 60 FPS budget.
	for i := 0; i < 30; i++ {
		clk.Advance(15)
		c.Sample(15)
	}
	require.Equal(t, float32(1), c.Level())

	c.SetTargetFPS(120) // 8.3ms budget

	// The same 15ms mean overshoots the new budget. Samples measured against
	// the old budget must not drive the first step down; the reset buffer is
	// not full, so a single post-change frame adjusts nothing.
	clk.Advance(2500)
	c.Sample(15)
	assert.Equal(t, float32(1), c.Level())
}
