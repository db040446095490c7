package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vista-go/common"
)

func TestDetailRatio(t *testing.T) {
	assert.Equal(t, float32(1), DetailRatio(0))
	assert.Equal(t, float32(0.5), DetailRatio(1))
	assert.Equal(t, float32(0.25), DetailRatio(2))
	assert.Equal(t, float32(0.125), DetailRatio(3))
	assert.Equal(t, float32(1), DetailRatio(-1))
}

func TestSimplifyGeometryReducesTriangles(t *testing.T) {
	src := SphereGeometry(1, 48, 32)
	srcTris := src.TriangleCount()

	out, err := SimplifyGeometry(src, 0.25)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Greater(t, out.TriangleCount(), 0)
	assert.Less(t, out.TriangleCount(), srcTris)
	assert.Less(t, out.VertexCount(), src.VertexCount())

	// The source must survive untouched.
	assert.Equal(t, srcTris, src.TriangleCount())
}

func TestSimplifyGeometryFullRatioClones(t *testing.T) {
	src := CubeGeometry(1)
	out, err := SimplifyGeometry(src, 1)
	require.NoError(t, err)

	assert.Equal(t, src.Positions, out.Positions)
	assert.Equal(t, src.Indices, out.Indices)

	// Mutating the clone must not leak into the source.
	out.Positions[0][0] = 99
	assert.NotEqual(t, src.Positions[0][0], out.Positions[0][0])
}

func TestSimplifyGeometryRejectsEmpty(t *testing.T) {
	_, err := SimplifyGeometry(nil, 0.5)
	assert.Error(t, err)

	_, err = SimplifyGeometry(&Geometry{}, 0.5)
	assert.Error(t, err)
}

func TestSimplifyGeometryRejectsBadRatio(t *testing.T) {
	src := CubeGeometry(1)
	_, err := SimplifyGeometry(src, 0)
	assert.Error(t, err)

	_, err = SimplifyGeometry(src, 1.5)
	assert.Error(t, err)
}

func TestSimplifyGeometryCollapsedMeshErrors(t *testing.T) {
	// Every vertex in the same spot clusters into one cell, so all triangles
	// degenerate.
	g := &Geometry{
		Positions: []common.Vec3{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
		Indices:   []uint32{0, 1, 2},
	}
	_, err := SimplifyGeometry(g, 0.5)
	assert.Error(t, err)
}

func TestSimplifyMaterial(t *testing.T) {
	src := Material{
		Name:              "m",
		TextureResolution: 1024,
		NormalMapped:      true,
	}

	l1 := SimplifyMaterial(src, 1)
	assert.Equal(t, 512, l1.TextureResolution)
	assert.True(t, l1.NormalMapped)

	l2 := SimplifyMaterial(src, 2)
	assert.Equal(t, 256, l2.TextureResolution)
	assert.False(t, l2.NormalMapped)

	// Deep levels floor at the minimum resolution instead of vanishing.
	l9 := SimplifyMaterial(src, 9)
	assert.Equal(t, 64, l9.TextureResolution)

	// Level 0 is the unmodified source.
	assert.Equal(t, src, SimplifyMaterial(src, 0))
}
