package lod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vista-go/common"
	"github.com/Carmen-Shannon/vista-go/engine/mesh"
	"github.com/Carmen-Shannon/vista-go/engine/variant"
)

type testObj struct {
	id    uint64
	pos   common.Vec3
	asset *mesh.Asset
}

func (o *testObj) ID() uint64            { return o.id }
func (o *testObj) Position() common.Vec3 { return o.pos }
func (o *testObj) Asset() *mesh.Asset    { return o.asset }

func newBall(id uint64, pos common.Vec3) *testObj {
	return &testObj{
		id:  id,
		pos: pos,
		asset: &mesh.Asset{
			ID:       "ball",
			Geometry: mesh.SphereGeometry(1, 32, 24),
			Material: mesh.Material{Name: "ball_mat", TextureResolution: 512},
		},
	}
}

func newTestRegistry(t *testing.T) (Registry, variant.Cache) {
	t.Helper()
	cache := variant.NewCache("test", variant.WithWorkers(2))
	r := NewRegistry("test",
		WithVariantCache(cache),
		WithUpdateInterval(0),
		WithDefaultThresholds([]float32{10, 30, 60}),
	)
	return r, cache
}

// driveTo pumps Update until the registry commits a switch for the expected
// level, collecting drained events along the way.
func driveTo(t *testing.T, r Registry, camPos common.Vec3, level int) []LevelChange {
	t.Helper()
	var events []LevelChange
	require.Eventually(t, func() bool {
		r.Update(camPos, 1)
		events = append(events, r.Drain()...)
		for _, ev := range events {
			if ev.To == level {
				return true
			}
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)
	return events
}

func TestRegisterRejectsUnsupportedObject(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Register(nil)
	assert.ErrorIs(t, err, ErrUnsupportedObject)

	_, err = r.Register(&testObj{id: 1})
	assert.ErrorIs(t, err, ErrUnsupportedObject)
	assert.Equal(t, 0, r.Len())
}

func TestRegisterRejectsInvalidConfig(t *testing.T) {
	r, _ := newTestRegistry(t)
	obj := newBall(1, common.Vec3{})

	_, err := r.Register(obj, WithThresholds([]float32{30, 10}))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = r.Register(obj, WithHysteresis(0.5, 0.91))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = r.Register(obj, WithHysteresis(1.1, 1.5))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRegisterStartsAtFullDetail(t *testing.T) {
	r, cache := newTestRegistry(t)

	h, err := r.Register(newBall(1, common.Vec3{}))
	require.NoError(t, err)

	level, err := r.Level(h)
	require.NoError(t, err)
	assert.Equal(t, 0, level)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, cache.Refs("ball", 0))
}

func TestUnregisterInvalidatesHandle(t *testing.T) {
	r, cache := newTestRegistry(t)

	h, err := r.Register(newBall(1, common.Vec3{}))
	require.NoError(t, err)

	require.NoError(t, r.Unregister(h))
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, cache.Refs("ball", 0))

	assert.ErrorIs(t, r.Unregister(h), ErrStaleHandle)
	_, err = r.Level(h)
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestHandleDoesNotAliasReusedSlot(t *testing.T) {
	r, _ := newTestRegistry(t)

	h1, err := r.Register(newBall(1, common.Vec3{}))
	require.NoError(t, err)
	require.NoError(t, r.Unregister(h1))

	// The freed arena slot is reused; the old handle must stay dead.
	h2, err := r.Register(newBall(2, common.Vec3{}))
	require.NoError(t, err)

	_, err = r.Level(h1)
	assert.ErrorIs(t, err, ErrStaleHandle)

	level, err := r.Level(h2)
	require.NoError(t, err)
	assert.Equal(t, 0, level)
}

func TestUpdateSwitchesByDistance(t *testing.T) {
	r, cache := newTestRegistry(t)

	h, err := r.Register(newBall(1, common.Vec3{}))
	require.NoError(t, err)

	events := driveTo(t, r, common.Vec3{100, 0, 0}, 3)

	level, err := r.Level(h)
	require.NoError(t, err)
	assert.Equal(t, 3, level)

	final := events[len(events)-1]
	assert.Equal(t, uint64(1), final.Entity)
	assert.Equal(t, 3, final.To)
	assert.InDelta(t, 100, final.Distance, 0.001)
	require.NotNil(t, final.Variant)

	// The old level's reference was released on commit.
	assert.Equal(t, 0, cache.Refs("ball", 0))
	assert.Equal(t, 1, cache.Refs("ball", 3))
}

func TestUpdateThrottleSkipsEvaluation(t *testing.T) {
	cache := variant.NewCache("test", variant.WithWorkers(1))
	r := NewRegistry("test",
		WithVariantCache(cache),
		WithUpdateInterval(10), // effectively never inside this test
		WithDefaultThresholds([]float32{10, 30, 60}),
	)

	h, err := r.Register(newBall(1, common.Vec3{}))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		r.Update(common.Vec3{100, 0, 0}, 0.5)
	}

	level, err := r.Level(h)
	require.NoError(t, err)
	assert.Equal(t, 0, level)
	assert.Nil(t, r.Drain())
}

func TestGroupLevelOverridesAndPins(t *testing.T) {
	r, _ := newTestRegistry(t)

	h, err := r.Register(newBall(1, common.Vec3{}), WithGroup("props"))
	require.NoError(t, err)

	r.SetGroupLevel("props", 2)

	level, err := r.Level(h)
	require.NoError(t, err)
	assert.Equal(t, 2, level)

	events := r.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].To)

	// Natural evaluation at point-blank range must not revert the pin.
	for i := 0; i < 5; i++ {
		r.Update(common.Vec3{1, 0, 0}, 1)
	}
	level, _ = r.Level(h)
	assert.Equal(t, 2, level)
	assert.Nil(t, r.Drain())

	// After release, distance takes over again.
	r.ReleaseGroupLevel("props")
	driveTo(t, r, common.Vec3{1, 0, 0}, 0)
	level, _ = r.Level(h)
	assert.Equal(t, 0, level)
}

func TestGroupLevelClampsToRange(t *testing.T) {
	r, _ := newTestRegistry(t)

	h, err := r.Register(newBall(1, common.Vec3{}), WithGroup("props"))
	require.NoError(t, err)

	r.SetGroupLevel("props", 99)
	level, _ := r.Level(h)
	assert.Equal(t, 3, level)
}

func TestDistanceMultiplierBiasesCoarser(t *testing.T) {
	r, _ := newTestRegistry(t)

	h, err := r.Register(newBall(1, common.Vec3{}))
	require.NoError(t, err)

	// Physical distance 5 would stay at level 0; multiplied by 10 it lands in
	// the level 2 band.
	r.SetDistanceMultiplier(10)
	driveTo(t, r, common.Vec3{5, 0, 0}, 2)

	level, _ := r.Level(h)
	assert.Equal(t, 2, level)
}

func TestChangeHandlerFires(t *testing.T) {
	cache := variant.NewCache("test", variant.WithWorkers(2))
	var got []LevelChange
	r := NewRegistry("test",
		WithVariantCache(cache),
		WithUpdateInterval(0),
		WithDefaultThresholds([]float32{10, 30, 60}),
		WithLevelChangeHandler(func(ev LevelChange) { got = append(got, ev) }),
	)

	_, err := r.Register(newBall(1, common.Vec3{}))
	require.NoError(t, err)

	driveTo(t, r, common.Vec3{0, 0, 15}, 1)
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[len(got)-1].To)
}

func TestUnregisterWhilePendingCancels(t *testing.T) {
	r, cache := newTestRegistry(t)

	h, err := r.Register(newBall(1, common.Vec3{}))
	require.NoError(t, err)

	// One evaluation far away starts an asynchronous generation.
	r.Update(common.Vec3{100, 0, 0}, 1)
	require.NoError(t, r.Unregister(h))

	// Both the held level-0 reference and the pending request are released;
	// the cache ends up empty once the worker result is discarded.
	require.Eventually(t, func() bool {
		return cache.Len() == 0
	}, 5*time.Second, 5*time.Millisecond)
}

func TestApplierRegistrationSwitchesWithoutVariants(t *testing.T) {
	r, cache := newTestRegistry(t)

	type call struct{ level, maxLevel int }
	var calls []call
	obj := &testObj{id: 7, pos: common.Vec3{0, 0, 100}}
	_, err := r.Register(obj, WithApplier(func(level, maxLevel int) {
		calls = append(calls, call{level, maxLevel})
	}))
	require.NoError(t, err)

	// Registration applies the starting level immediately.
	require.Len(t, calls, 1)
	assert.Equal(t, call{0, 3}, calls[0])
	assert.Equal(t, 0, cache.Len())

	// Applier switches commit synchronously; no variant is generated.
	r.Update(common.Vec3{}, 1)
	events := r.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].To)
	assert.Nil(t, events[0].Variant)
	assert.Equal(t, call{3, 3}, calls[len(calls)-1])
	assert.Equal(t, 0, cache.Len())
}

func TestApplierGroupForce(t *testing.T) {
	r, _ := newTestRegistry(t)

	var lastLevel int
	obj := &testObj{id: 8, pos: common.Vec3{}}
	_, err := r.Register(obj,
		WithGroup("blocks"),
		WithApplier(func(level, maxLevel int) { lastLevel = level }),
	)
	require.NoError(t, err)

	r.SetGroupLevel("blocks", 2)
	assert.Equal(t, 2, lastLevel)

	events := r.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, float32(0), events[0].Distance)
}

func TestSetEnabledSuspendsEvaluation(t *testing.T) {
	r, _ := newTestRegistry(t)

	h, err := r.Register(newBall(1, common.Vec3{0, 0, 100}))
	require.NoError(t, err)
	require.NoError(t, r.SetEnabled(h, false))

	// A disabled registration never leaves full detail even far away.
	for i := 0; i < 20; i++ {
		r.Update(common.Vec3{}, 1)
		time.Sleep(2 * time.Millisecond)
	}
	assert.Empty(t, r.Drain())
	level, err := r.Level(h)
	require.NoError(t, err)
	assert.Equal(t, 0, level)

	// Re-enabling resumes distance switching.
	require.NoError(t, r.SetEnabled(h, true))
	events := driveTo(t, r, common.Vec3{}, 3)
	assert.NotEmpty(t, events)

	assert.ErrorIs(t, r.SetEnabled(Handle{index: 99, gen: 0}, true), ErrStaleHandle)
}
