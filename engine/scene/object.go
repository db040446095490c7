package scene

import (
	"sync"

	"github.com/Carmen-Shannon/vista-go/common"
	"github.com/Carmen-Shannon/vista-go/engine/mesh"
)

// Kind distinguishes renderable objects from pure grouping nodes.
type Kind int

const (
	// KindMesh objects carry an asset and occupy a representation slot.
	KindMesh Kind = iota
	// KindContainer objects only group children; they have no asset and
	// cannot carry detail levels.
	KindContainer
)

// sceneObject is the implementation of the Object interface.
type sceneObject struct {
	mu *sync.Mutex

	id       uint64
	kind     Kind
	pose     common.Pose
	asset    *mesh.Asset
	children []Object
}

// Object is one node in the scene: a stable entity ID, a world pose, and for
// mesh objects the full-detail asset variants derive from.
type Object interface {
	// ID returns the object's stable entity ID.
	//
	// Returns:
	//   - uint64: the entity ID
	ID() uint64

	// Kind returns whether the object is a renderable mesh or a container.
	//
	// Returns:
	//   - Kind: the object kind
	Kind() Kind

	// Pose returns the object's world pose.
	//
	// Returns:
	//   - common.Pose: the pose
	Pose() common.Pose

	// SetPose replaces the object's world pose.
	//
	// Parameters:
	//   - p: the new pose
	SetPose(p common.Pose)

	// Position returns the translation part of the pose.
	//
	// Returns:
	//   - common.Vec3: the world position
	Position() common.Vec3

	// Asset returns the full-detail asset, or nil for containers.
	//
	// Returns:
	//   - *mesh.Asset: the asset
	Asset() *mesh.Asset

	// Children returns a copy of the direct child list.
	//
	// Returns:
	//   - []Object: the children
	Children() []Object

	// AddChild appends a child node. Nil children are ignored.
	//
	// Parameters:
	//   - child: the child to append
	AddChild(child Object)

	// RemoveChild removes the direct child with the given entity ID.
	//
	// Parameters:
	//   - id: the child's entity ID
	//
	// Returns:
	//   - bool: true if a child was removed
	RemoveChild(id uint64) bool
}

// Compile-time check that sceneObject implements Object.
var _ Object = &sceneObject{}

// NewMeshObject creates a renderable object for an asset at the given pose.
//
// Parameters:
//   - id: the stable entity ID (must not be zero)
//   - asset: the full-detail asset (must not be nil)
//   - pose: the initial world pose
//
// Returns:
//   - Object: the newly created object
func NewMeshObject(id uint64, asset *mesh.Asset, pose common.Pose) Object {
	if id == 0 {
		panic("scene: NewMeshObject requires a non-zero entity ID")
	}
	if asset == nil {
		panic("scene: NewMeshObject requires a non-nil asset")
	}
	return &sceneObject{
		mu:    &sync.Mutex{},
		id:    id,
		kind:  KindMesh,
		pose:  pose,
		asset: asset,
	}
}

// NewContainerObject creates a grouping node with no renderable asset.
//
// Parameters:
//   - id: the stable entity ID (must not be zero)
//   - pose: the initial world pose
//
// Returns:
//   - Object: the newly created object
func NewContainerObject(id uint64, pose common.Pose) Object {
	if id == 0 {
		panic("scene: NewContainerObject requires a non-zero entity ID")
	}
	return &sceneObject{
		mu:   &sync.Mutex{},
		id:   id,
		kind: KindContainer,
		pose: pose,
	}
}

func (o *sceneObject) ID() uint64 {
	return o.id
}

func (o *sceneObject) Kind() Kind {
	return o.kind
}

func (o *sceneObject) Pose() common.Pose {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pose
}

func (o *sceneObject) SetPose(p common.Pose) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pose = p
}

func (o *sceneObject) Position() common.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pose.Position
}

func (o *sceneObject) Asset() *mesh.Asset {
	return o.asset
}

func (o *sceneObject) Children() []Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Object, len(o.children))
	copy(out, o.children)
	return out
}

func (o *sceneObject) AddChild(child Object) {
	if child == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.children = append(o.children, child)
}

func (o *sceneObject) RemoveChild(id uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, c := range o.children {
		if c.ID() == id {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return true
		}
	}
	return false
}
