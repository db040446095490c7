package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vista-go/common"
	"github.com/Carmen-Shannon/vista-go/engine/mesh"
)

func cubeAsset() *mesh.Asset {
	return &mesh.Asset{
		ID:       "cube",
		Geometry: mesh.CubeGeometry(1),
		Material: mesh.Material{Name: "cube_mat"},
	}
}

func TestAddIndexesObjectAndChildren(t *testing.T) {
	s := NewScene("test")

	parent := NewContainerObject(1, common.DefaultPose())
	child := NewMeshObject(2, cubeAsset(), common.DefaultPose())
	parent.AddChild(child)

	s.Add(parent)

	assert.Equal(t, 2, s.Len())
	assert.Same(t, parent, s.Object(1))
	assert.Same(t, child, s.Object(2))
}

func TestRemoveDropsSubtree(t *testing.T) {
	s := NewScene("test")

	parent := NewContainerObject(1, common.DefaultPose())
	child := NewMeshObject(2, cubeAsset(), common.DefaultPose())
	parent.AddChild(child)
	s.Add(parent)

	assert.True(t, s.Remove(1))
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Object(2))
	assert.False(t, s.Remove(1))
}

func TestRemoveSelectedClearsSelection(t *testing.T) {
	s := NewScene("test")
	obj := NewMeshObject(1, cubeAsset(), common.DefaultPose())
	s.Add(obj)
	s.Select(1)
	require.Equal(t, uint64(1), s.Selected())

	s.Remove(1)
	assert.Equal(t, uint64(0), s.Selected())
}

func TestPoseLookup(t *testing.T) {
	s := NewScene("test")
	pose := common.DefaultPose()
	pose.Position = common.Vec3{1, 2, 3}
	s.Add(NewMeshObject(1, cubeAsset(), pose))

	got, ok := s.Pose(1)
	require.True(t, ok)
	assert.Equal(t, pose, got)

	_, ok = s.Pose(42)
	assert.False(t, ok)
}

func TestSelectNotifiesHandlers(t *testing.T) {
	s := NewScene("test")
	s.Add(NewMeshObject(1, cubeAsset(), common.DefaultPose()))

	var got []uint64
	s.OnSelectionChange(func(entity uint64) { got = append(got, entity) })

	s.Select(1)
	s.Select(1) // no-op, already selected
	s.Select(0)

	assert.Equal(t, []uint64{1, 0}, got)
}

func TestSelectUnknownEntityIgnored(t *testing.T) {
	s := NewScene("test")
	s.Add(NewMeshObject(1, cubeAsset(), common.DefaultPose()))
	s.Select(1)

	s.Select(99)
	assert.Equal(t, uint64(1), s.Selected())
}

func TestBuildModeNotifiesOnChange(t *testing.T) {
	s := NewScene("test")

	var got []bool
	s.OnBuildModeChange(func(enabled bool) { got = append(got, enabled) })

	s.SetBuildMode(true)
	s.SetBuildMode(true) // no-op
	s.SetBuildMode(false)

	assert.Equal(t, []bool{true, false}, got)
	assert.False(t, s.BuildMode())
}

func TestNextIDSkipsExistingIDs(t *testing.T) {
	s := NewScene("test")
	s.Add(NewMeshObject(7, cubeAsset(), common.DefaultPose()))

	id := s.NextID()
	assert.Greater(t, id, uint64(7))
	assert.Nil(t, s.Object(id))
}
