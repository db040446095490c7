package variant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vista-go/common"
	"github.com/Carmen-Shannon/vista-go/engine/mesh"
)

func sphereAsset(id string) *mesh.Asset {
	return &mesh.Asset{
		ID:       id,
		Geometry: mesh.SphereGeometry(1, 32, 24),
		Material: mesh.Material{Name: id + "_mat", TextureResolution: 512, NormalMapped: true},
	}
}

// degenerateAsset cannot be simplified: every vertex clusters into one cell.
func degenerateAsset(id string) *mesh.Asset {
	return &mesh.Asset{
		ID: id,
		Geometry: &mesh.Geometry{
			Positions: []common.Vec3{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
			Indices:   []uint32{0, 1, 2},
		},
	}
}

func TestAcquireMemoizes(t *testing.T) {
	c := NewCache("test", WithWorkers(1))
	src := sphereAsset("ball")

	v1, err := c.Acquire(src, 1)
	require.NoError(t, err)
	v2, err := c.Acquire(src, 1)
	require.NoError(t, err)

	// Same generated variant instance, generated once.
	assert.Same(t, v1, v2)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Refs("ball", 1))
	assert.Less(t, v1.Geometry.TriangleCount(), src.Geometry.TriangleCount())
}

func TestAcquireLevelZeroReturnsSource(t *testing.T) {
	c := NewCache("test", WithWorkers(1))
	src := sphereAsset("ball")

	v, err := c.Acquire(src, 0)
	require.NoError(t, err)
	assert.Same(t, src, v)
}

func TestAcquireRejectsInvalid(t *testing.T) {
	c := NewCache("test", WithWorkers(1))

	_, err := c.Acquire(nil, 1)
	assert.Error(t, err)

	_, err = c.Acquire(sphereAsset("ball"), -1)
	assert.Error(t, err)
}

func TestAcquireFallsBackOnSimplificationFailure(t *testing.T) {
	c := NewCache("test", WithWorkers(1))
	src := degenerateAsset("broken")

	v, err := c.Acquire(src, 2)
	assert.Error(t, err)
	// The full-detail source stands in for the unbuildable variant.
	assert.Same(t, src, v)

	// The fallback is cached like any other entry.
	v2, err := c.Acquire(src, 2)
	require.NoError(t, err)
	assert.Same(t, src, v2)
	assert.Equal(t, 2, c.Refs("broken", 2))
}

func TestReleaseEvictsAtZeroRefs(t *testing.T) {
	c := NewCache("test", WithWorkers(1))
	src := sphereAsset("ball")

	c.Acquire(src, 1)
	c.Acquire(src, 1)
	assert.Equal(t, 1, c.Len())

	c.Release("ball", 1)
	assert.Equal(t, 1, c.Len())
	c.Release("ball", 1)
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Get("ball", 1))
}

func TestAcquireAsyncCachedHit(t *testing.T) {
	c := NewCache("test", WithWorkers(1))
	src := sphereAsset("ball")

	want, err := c.Acquire(src, 1)
	require.NoError(t, err)

	v, pending := c.AcquireAsync(src, 1)
	assert.False(t, pending)
	assert.Same(t, want, v)
	assert.Equal(t, 2, c.Refs("ball", 1))
}

func TestAcquireAsyncGeneratesAndPolls(t *testing.T) {
	c := NewCache("test", WithWorkers(2))
	src := sphereAsset("ball")

	v, pending := c.AcquireAsync(src, 2)
	assert.Nil(t, v)
	assert.True(t, pending)

	require.Eventually(t, func() bool {
		return c.Get("ball", 2) != nil
	}, 5*time.Second, 5*time.Millisecond)

	events := c.Poll()
	require.Len(t, events, 1)
	assert.Equal(t, "ball", events[0].AssetID)
	assert.Equal(t, 2, events[0].Level)
	assert.NoError(t, events[0].Err)

	// Drained.
	assert.Nil(t, c.Poll())

	got := c.Get("ball", 2)
	require.NotNil(t, got)
	assert.Less(t, got.Geometry.TriangleCount(), src.Geometry.TriangleCount())
}

func TestAcquireAsyncDuplicateRequestsShareEntry(t *testing.T) {
	c := NewCache("test", WithWorkers(1))
	src := sphereAsset("ball")

	_, p1 := c.AcquireAsync(src, 1)
	_, p2 := c.AcquireAsync(src, 1)
	assert.True(t, p1)
	assert.True(t, p2)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, c.Refs("ball", 1))
}

func TestReleaseWhilePendingCancels(t *testing.T) {
	c := NewCache("test", WithWorkers(1))
	src := sphereAsset("ball")

	_, pending := c.AcquireAsync(src, 3)
	require.True(t, pending)
	c.Release("ball", 3)

	// The worker result is discarded on arrival and the entry evicted.
	require.Eventually(t, func() bool {
		return c.Len() == 0
	}, 5*time.Second, 5*time.Millisecond)
	assert.Nil(t, c.Poll())
}

func TestAsyncFailureFallsBackWithEvent(t *testing.T) {
	c := NewCache("test", WithWorkers(1))
	src := degenerateAsset("broken")

	_, pending := c.AcquireAsync(src, 1)
	require.True(t, pending)

	var events []Event
	require.Eventually(t, func() bool {
		events = append(events, c.Poll()...)
		return len(events) > 0
	}, 5*time.Second, 5*time.Millisecond)

	assert.Error(t, events[0].Err)
	assert.Same(t, src, c.Get("broken", 1))
}
