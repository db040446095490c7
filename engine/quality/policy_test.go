package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideDeadBand(t *testing.T) {
	target := 1000.0 / 60.0 // 16.67ms

	// Inside the dead band nothing moves, even when over the raw target.
	assert.Equal(t, AdjustNone, Decide(target, target))
	assert.Equal(t, AdjustNone, Decide(target*1.29, target))
	assert.Equal(t, AdjustNone, Decide(target*0.71, target))

	assert.Equal(t, AdjustDown, Decide(target*1.31, target))
	assert.Equal(t, AdjustUp, Decide(target*0.69, target))
}

func TestDecideIgnoresDegenerateInput(t *testing.T) {
	assert.Equal(t, AdjustNone, Decide(0, 16.67))
	assert.Equal(t, AdjustNone, Decide(16.67, 0))
	assert.Equal(t, AdjustNone, Decide(-5, 16.67))
}

func TestCooldownElapsed(t *testing.T) {
	assert.False(t, CooldownElapsed(1000, 0, 2000))
	assert.True(t, CooldownElapsed(2000, 0, 2000))
	assert.True(t, CooldownElapsed(5000, 2000, 2000))
	assert.False(t, CooldownElapsed(3999, 2000, 2000))
}

func TestFrameHistoryRingBuffer(t *testing.T) {
	h := newFrameHistory(3)
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.Full())
	assert.Equal(t, 0.0, h.Mean())

	h.Push(10)
	h.Push(20)
	assert.Equal(t, 15.0, h.Mean())
	assert.False(t, h.Full())

	h.Push(30)
	assert.True(t, h.Full())
	assert.Equal(t, 20.0, h.Mean())

	// The oldest sample (10) is overwritten once full.
	h.Push(40)
	assert.Equal(t, 30.0, h.Mean())

	h.Reset()
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0.0, h.Mean())
}
