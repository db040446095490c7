// Package scene holds the logical object graph the rendering core operates
// on: flat entity lookup over a tree of mesh and container nodes, plus the
// selection and build-mode state other subsystems observe.
package scene

import (
	"sync"

	"github.com/Carmen-Shannon/vista-go/common"
)

// worldScene is the implementation of the Scene interface.
type worldScene struct {
	mu *sync.Mutex

	label string

	// objects is the flat entity index over every node added to the scene,
	// roots and descendants alike.
	objects map[uint64]Object
	roots   []Object

	selected  uint64
	buildMode bool

	// nextID hands out entity IDs for convenience constructors; externally
	// created objects bring their own.
	nextID uint64

	selectionHandlers []func(entity uint64)
	buildModeHandlers []func(enabled bool)
}

// Scene defines the interface for the logical object graph. It indexes every
// added object by entity ID, tracks the current selection and build mode, and
// notifies registered handlers when either changes.
type Scene interface {
	// Add indexes an object (and its current descendants) and appends it as a
	// root node.
	//
	// Parameters:
	//   - obj: the object to add (ignored when nil)
	Add(obj Object)

	// Remove drops an object and its descendants from the scene. A removed
	// selected object clears the selection.
	//
	// Parameters:
	//   - id: the entity ID to remove
	//
	// Returns:
	//   - bool: true if the object was present
	Remove(id uint64) bool

	// Object returns the object with the given entity ID.
	//
	// Parameters:
	//   - id: the entity ID
	//
	// Returns:
	//   - Object: the object, or nil if absent
	Object(id uint64) Object

	// Objects returns every indexed object in unspecified order.
	//
	// Returns:
	//   - []Object: all objects
	Objects() []Object

	// Len returns the number of indexed objects.
	//
	// Returns:
	//   - int: the object count
	Len() int

	// NextID reserves and returns a fresh entity ID.
	//
	// Returns:
	//   - uint64: the reserved ID
	NextID() uint64

	// Pose returns the world pose of an entity. The second return is false
	// for unknown entities, so stale references degrade to a skipped update.
	//
	// Parameters:
	//   - entity: the entity ID
	//
	// Returns:
	//   - common.Pose: the pose
	//   - bool: true if the entity exists
	Pose(entity uint64) (common.Pose, bool)

	// Select changes the current selection and notifies handlers. Zero clears
	// the selection.
	//
	// Parameters:
	//   - entity: the entity ID to select, or 0 for none
	Select(entity uint64)

	// Selected returns the currently selected entity, or 0.
	//
	// Returns:
	//   - uint64: the selected entity ID
	Selected() uint64

	// SetBuildMode toggles build mode and notifies handlers on change.
	//
	// Parameters:
	//   - enabled: the new build mode state
	SetBuildMode(enabled bool)

	// BuildMode returns the current build mode state.
	//
	// Returns:
	//   - bool: true when build mode is active
	BuildMode() bool

	// OnSelectionChange registers a handler invoked with the newly selected
	// entity (or 0) whenever the selection changes.
	//
	// Parameters:
	//   - handler: the callback
	OnSelectionChange(handler func(entity uint64))

	// OnBuildModeChange registers a handler invoked whenever build mode
	// toggles.
	//
	// Parameters:
	//   - handler: the callback
	OnBuildModeChange(handler func(enabled bool))
}

// Compile-time check that worldScene implements Scene.
var _ Scene = &worldScene{}

// NewScene creates an empty Scene.
//
// Parameters:
//   - label: identifier used in log output
//
// Returns:
//   - Scene: the newly created scene
func NewScene(label string) Scene {
	return &worldScene{
		mu:      &sync.Mutex{},
		label:   common.Coalesce(label, "scene"),
		objects: make(map[uint64]Object),
	}
}

func (s *worldScene) Add(obj Object) {
	if obj == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots = append(s.roots, obj)
	s.index(obj)
}

func (s *worldScene) Remove(id uint64) bool {
	s.mu.Lock()

	obj, ok := s.objects[id]
	if !ok {
		s.mu.Unlock()
		return false
	}

	s.unindex(obj)
	for i, r := range s.roots {
		if r.ID() == id {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			break
		}
	}

	clearSelection := s.selected != 0 && s.objects[s.selected] == nil
	s.mu.Unlock()

	if clearSelection {
		s.Select(0)
	}
	return true
}

func (s *worldScene) Object(id uint64) Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[id]
}

func (s *worldScene) Objects() []Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Object, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, o)
	}
	return out
}

func (s *worldScene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *worldScene) NextID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}

func (s *worldScene) Pose(entity uint64) (common.Pose, bool) {
	s.mu.Lock()
	obj := s.objects[entity]
	s.mu.Unlock()
	if obj == nil {
		return common.Pose{}, false
	}
	return obj.Pose(), true
}

func (s *worldScene) Select(entity uint64) {
	s.mu.Lock()
	if entity != 0 && s.objects[entity] == nil {
		s.mu.Unlock()
		return // stale reference, keep the current selection
	}
	if s.selected == entity {
		s.mu.Unlock()
		return
	}
	s.selected = entity
	handlers := make([]func(uint64), len(s.selectionHandlers))
	copy(handlers, s.selectionHandlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h(entity)
	}
}

func (s *worldScene) Selected() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *worldScene) SetBuildMode(enabled bool) {
	s.mu.Lock()
	if s.buildMode == enabled {
		s.mu.Unlock()
		return
	}
	s.buildMode = enabled
	handlers := make([]func(bool), len(s.buildModeHandlers))
	copy(handlers, s.buildModeHandlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h(enabled)
	}
}

func (s *worldScene) BuildMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildMode
}

func (s *worldScene) OnSelectionChange(handler func(entity uint64)) {
	if handler == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectionHandlers = append(s.selectionHandlers, handler)
}

func (s *worldScene) OnBuildModeChange(handler func(enabled bool)) {
	if handler == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildModeHandlers = append(s.buildModeHandlers, handler)
}

// index adds obj and its descendants to the entity map. Caller must hold s.mu.
func (s *worldScene) index(obj Object) {
	s.objects[obj.ID()] = obj
	if obj.ID() > s.nextID {
		s.nextID = obj.ID()
	}
	for _, c := range obj.Children() {
		s.index(c)
	}
}

// unindex removes obj and its descendants from the entity map. Caller must
// hold s.mu.
func (s *worldScene) unindex(obj Object) {
	delete(s.objects, obj.ID())
	for _, c := range obj.Children() {
		s.unindex(c)
	}
}
