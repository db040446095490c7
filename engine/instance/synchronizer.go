// Package instance keeps logical entities and batched GPU instance slots
// consistent. A synchronizer owns the bidirectional entity ↔ (representation,
// slot) mapping, repairs it across swap-removes, pushes pose updates for
// manipulated entities, and applies selection highlight coloring that is
// restored exactly when the selection moves on.
package instance

import (
	"sync"

	"github.com/Carmen-Shannon/vista-go/common"
	"github.com/Carmen-Shannon/vista-go/engine/representation"
)

// PoseSource supplies world poses for entities. The scene implements it; an
// unknown entity returns false and its update is skipped.
type PoseSource interface {
	Pose(entity uint64) (common.Pose, bool)
}

// DefaultHighlightColor is the tint applied to selected entities. Alpha below
// one lets the renderer blend it over the base material.
var DefaultHighlightColor = common.Color{1.0, 0.85, 0.2, 1.0}

// mapping locates one entity's GPU instance.
type mapping struct {
	rep  representation.Representation
	slot uint32
}

// highlightRecord remembers a slot's color before a highlight was applied so
// clearing the selection can restore it verbatim.
type highlightRecord struct {
	rep      representation.Representation
	slot     uint32
	original common.Color
}

// instanceSynchronizer is the implementation of the Synchronizer interface.
type instanceSynchronizer struct {
	mu *sync.Mutex

	label string
	poses PoseSource

	// entities is the forward map; the reverse direction (slot → entity) lives
	// in each representation's slot table, and the two are repaired together
	// on every swap-remove.
	entities map[uint64]mapping

	// reps tracks every representation the synchronizer has seen, so Update
	// can flush each touched one exactly once per frame.
	reps map[representation.Representation]bool

	// manipulated marks entities whose pose must be pushed on the next
	// Update. Entries persist until the entity is detached or unmarked.
	manipulated map[uint64]bool

	selected   uint64
	highlights []highlightRecord
	highlight  common.Color

	// buildMode, while active, treats the selected entity as continuously
	// manipulated so drag edits stream into the GPU buffer every frame.
	buildMode bool
}

// Synchronizer defines the interface for the entity/instance mapping layer.
// Attach and Detach move entities in and out of representations; OnSelect
// applies and exactly restores highlight coloring; Update pushes pending pose
// changes and flushes each touched representation once.
type Synchronizer interface {
	// Attach claims a slot for an entity in the given representation and
	// records the mapping. An entity already attached elsewhere is moved.
	//
	// Parameters:
	//   - entity: the entity ID (must not be zero)
	//   - rep: the representation to claim a slot in
	//
	// Returns:
	//   - uint32: the claimed slot
	//   - error: a claim error from the representation
	Attach(entity uint64, rep representation.Representation) (uint32, error)

	// Detach frees an entity's slot and drops its mapping, repairing the
	// mapping of whichever entity the representation swapped into the freed
	// slot. Unknown entities are ignored.
	//
	// Parameters:
	//   - entity: the entity ID
	//
	// Returns:
	//   - bool: true if the entity was attached
	Detach(entity uint64) bool

	// Move reattaches an entity to a different representation, carrying its
	// current transform, color, and visibility across, and keeping any active
	// highlight restorable. Used when a detail level switch changes which
	// representation renders the entity.
	//
	// Parameters:
	//   - entity: the entity ID
	//   - to: the destination representation
	//
	// Returns:
	//   - uint32: the slot in the destination
	//   - error: a claim error from the destination
	Move(entity uint64, to representation.Representation) (uint32, error)

	// RegisterRepresentation scans a representation's slot table for entity
	// associations and adopts any not yet mapped, so representations populated
	// by a loader before the synchronizer existed still get tracked. Entities
	// already mapped elsewhere keep their existing mapping. Idempotent; a nil
	// representation registers nothing.
	//
	// Parameters:
	//   - rep: the representation to scan
	//
	// Returns:
	//   - int: the number of newly adopted entity mappings
	RegisterRepresentation(rep representation.Representation) int

	// SetVisible toggles the visibility of an entity's instance slot. Unknown
	// entities are a silent no-op.
	//
	// Parameters:
	//   - entity: the entity ID
	//   - visible: the new visibility
	SetVisible(entity uint64, visible bool)

	// Lookup returns the representation and slot an entity occupies.
	//
	// Parameters:
	//   - entity: the entity ID
	//
	// Returns:
	//   - representation.Representation: the representation (nil if unattached)
	//   - uint32: the slot
	//   - bool: true if the entity is attached
	Lookup(entity uint64) (representation.Representation, uint32, bool)

	// EntityCount returns the number of attached entities.
	//
	// Returns:
	//   - int: the attached entity count
	EntityCount() int

	// OnSelect changes the highlighted entity. The previous selection's slots
	// get their captured colors back first, byte for byte; zero clears the
	// selection without highlighting anything new.
	//
	// Parameters:
	//   - entity: the entity ID to highlight, or 0 for none
	OnSelect(entity uint64)

	// Selected returns the currently highlighted entity, or 0.
	//
	// Returns:
	//   - uint64: the highlighted entity ID
	Selected() uint64

	// SetManipulated marks or unmarks an entity for pose pushes on Update.
	//
	// Parameters:
	//   - entity: the entity ID
	//   - manipulated: true to push the entity's pose each Update
	SetManipulated(entity uint64, manipulated bool)

	// OnBuildModeChange toggles build mode. While active the selected entity
	// is treated as manipulated every frame; leaving build mode clears the
	// selection and restores all highlight state.
	//
	// Parameters:
	//   - enabled: the new build mode state
	OnBuildModeChange(enabled bool)

	// Update pushes the pose of every manipulated entity into its slot and
	// flushes each representation that accumulated changes, once.
	//
	// Parameters:
	//   - dt: seconds since the previous Update (reserved for interpolation)
	//
	// Returns:
	//   - int: the number of representations flushed
	Update(dt float64) int

	// Flush forces a flush of every tracked representation with dirty slots,
	// regardless of manipulation marks.
	//
	// Returns:
	//   - int: the number of representations flushed
	Flush() int
}

// Compile-time check that instanceSynchronizer implements Synchronizer.
var _ Synchronizer = &instanceSynchronizer{}

// NewSynchronizer creates a Synchronizer with the provided options.
//
// Parameters:
//   - label: identifier used in log output
//   - options: functional options to configure the synchronizer
//
// Returns:
//   - Synchronizer: the newly created synchronizer
func NewSynchronizer(label string, options ...SynchronizerOption) Synchronizer {
	s := &instanceSynchronizer{
		mu:          &sync.Mutex{},
		label:       label,
		entities:    make(map[uint64]mapping),
		reps:        make(map[representation.Representation]bool),
		manipulated: make(map[uint64]bool),
		highlight:   DefaultHighlightColor,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.poses == nil {
		panic("instance: NewSynchronizer requires a pose source, use WithPoseSource")
	}
	return s
}

func (s *instanceSynchronizer) Attach(entity uint64, rep representation.Representation) (uint32, error) {
	if rep == nil {
		return 0, representation.ErrNilRepresentation
	}

	s.mu.Lock()
	if old, ok := s.entities[entity]; ok && old.rep == rep {
		slot := old.slot
		s.mu.Unlock()
		return slot, nil
	}
	s.mu.Unlock()

	// Moving between representations reuses the carry logic so color and
	// visibility survive.
	if _, _, attached := s.Lookup(entity); attached {
		return s.Move(entity, rep)
	}

	slot, err := rep.Claim(entity)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.entities[entity] = mapping{rep: rep, slot: slot}
	s.reps[rep] = true
	s.mu.Unlock()

	// New attachments always need an initial pose push.
	s.pushPose(entity)
	return slot, nil
}

func (s *instanceSynchronizer) Detach(entity uint64) bool {
	s.mu.Lock()
	m, ok := s.entities[entity]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.entities, entity)
	delete(s.manipulated, entity)

	// A detached entity cannot keep a live highlight; drop its records so a
	// later restore does not write into a freed (possibly reused) slot.
	s.dropHighlights(m.rep, m.slot)
	if s.selected == entity {
		s.selected = 0
	}

	movedFrom, swapped := m.rep.Free(m.slot)
	if swapped {
		s.repairSwap(m.rep, movedFrom, m.slot)
	}
	s.mu.Unlock()
	return true
}

func (s *instanceSynchronizer) Move(entity uint64, to representation.Representation) (uint32, error) {
	if to == nil {
		return 0, representation.ErrNilRepresentation
	}

	s.mu.Lock()
	m, attached := s.entities[entity]
	if attached && m.rep == to {
		slot := m.slot
		s.mu.Unlock()
		return slot, nil
	}

	var (
		carryColor   common.Color
		carryVisible = true
		hadState     bool
	)
	if attached {
		carryColor = m.rep.Color(m.slot)
		carryVisible = m.rep.Visible(m.slot)
		hadState = true
	}
	s.mu.Unlock()

	slot, err := to.Claim(entity)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if hadState {
		to.SetColor(slot, carryColor)
		to.SetVisible(slot, carryVisible)
		to.SetMatrix(slot, m.rep.Matrix(m.slot))

		// Retarget any highlight records so clearing the selection restores
		// into the new slot, then free the old one.
		s.retargetHighlights(m.rep, m.slot, to, slot)
		movedFrom, swapped := m.rep.Free(m.slot)
		if swapped {
			s.repairSwap(m.rep, movedFrom, m.slot)
		}
	}
	s.entities[entity] = mapping{rep: to, slot: slot}
	s.reps[to] = true
	s.mu.Unlock()

	if !hadState {
		s.pushPose(entity)
	}
	return slot, nil
}

func (s *instanceSynchronizer) RegisterRepresentation(rep representation.Representation) int {
	if rep == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reps[rep] = true

	adopted := 0
	for slot, entity := range rep.Entities() {
		if entity == representation.EmptySlot {
			continue
		}
		if _, ok := s.entities[entity]; ok {
			continue
		}
		s.entities[entity] = mapping{rep: rep, slot: uint32(slot)}
		adopted++
	}
	return adopted
}

func (s *instanceSynchronizer) SetVisible(entity uint64, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.entities[entity]; ok {
		m.rep.SetVisible(m.slot, visible)
	}
}

func (s *instanceSynchronizer) Lookup(entity uint64) (representation.Representation, uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.entities[entity]
	if !ok {
		return nil, 0, false
	}
	return m.rep, m.slot, true
}

func (s *instanceSynchronizer) EntityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}

func (s *instanceSynchronizer) OnSelect(entity uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected == entity {
		return
	}

	// Restore every captured color exactly as it was before highlighting.
	for _, h := range s.highlights {
		h.rep.SetColor(h.slot, h.original)
	}
	s.highlights = s.highlights[:0]
	s.selected = 0

	if entity == 0 {
		return
	}

	m, ok := s.entities[entity]
	if !ok {
		return // stale reference, selection stays cleared
	}

	s.highlights = append(s.highlights, highlightRecord{
		rep:      m.rep,
		slot:     m.slot,
		original: m.rep.Color(m.slot),
	})
	m.rep.SetColor(m.slot, s.highlight)
	s.selected = entity
}

func (s *instanceSynchronizer) Selected() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *instanceSynchronizer) SetManipulated(entity uint64, manipulated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if manipulated {
		s.manipulated[entity] = true
	} else {
		delete(s.manipulated, entity)
	}
}

func (s *instanceSynchronizer) OnBuildModeChange(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildMode = enabled
	if enabled {
		return
	}
	// Leaving build mode drops all highlight state so edit-session tinting
	// never outlives the session.
	for _, h := range s.highlights {
		h.rep.SetColor(h.slot, h.original)
	}
	s.highlights = s.highlights[:0]
	s.selected = 0
}

func (s *instanceSynchronizer) Update(dt float64) int {
	s.mu.Lock()
	targets := make([]uint64, 0, len(s.manipulated)+1)
	for entity := range s.manipulated {
		targets = append(targets, entity)
	}
	if s.buildMode && s.selected != 0 && !s.manipulated[s.selected] {
		targets = append(targets, s.selected)
	}
	s.mu.Unlock()

	for _, entity := range targets {
		s.pushPose(entity)
	}

	return s.Flush()
}

func (s *instanceSynchronizer) Flush() int {
	s.mu.Lock()
	reps := make([]representation.Representation, 0, len(s.reps))
	for rep := range s.reps {
		reps = append(reps, rep)
	}
	s.mu.Unlock()

	flushed := 0
	for _, rep := range reps {
		if rep.Dirty() {
			rep.Flush()
			flushed++
		}
	}
	return flushed
}

// pushPose writes an entity's current pose matrix into its slot. Unknown
// entities and entities without a pose are skipped silently.
func (s *instanceSynchronizer) pushPose(entity uint64) {
	s.mu.Lock()
	m, ok := s.entities[entity]
	s.mu.Unlock()
	if !ok {
		return
	}

	pose, ok := s.poses.Pose(entity)
	if !ok {
		return
	}

	var mat [16]float32
	pose.Matrix(mat[:])
	m.rep.SetMatrix(m.slot, mat)
}

// repairSwap fixes the forward mapping after a representation swap-removed a
// slot: the entity that lived in movedFrom now lives in movedTo. Highlight
// records pointing at the moved slot follow it. Caller must hold s.mu.
func (s *instanceSynchronizer) repairSwap(rep representation.Representation, movedFrom, movedTo uint32) {
	moved := rep.EntityAt(movedTo)
	if moved == representation.EmptySlot {
		return
	}
	if m, ok := s.entities[moved]; ok && m.rep == rep && m.slot == movedFrom {
		s.entities[moved] = mapping{rep: rep, slot: movedTo}
	}
	for i := range s.highlights {
		h := &s.highlights[i]
		if h.rep == rep && h.slot == movedFrom {
			h.slot = movedTo
		}
	}
}

// dropHighlights discards highlight records for a slot about to be freed.
// Caller must hold s.mu.
func (s *instanceSynchronizer) dropHighlights(rep representation.Representation, slot uint32) {
	kept := s.highlights[:0]
	for _, h := range s.highlights {
		if h.rep == rep && h.slot == slot {
			continue
		}
		kept = append(kept, h)
	}
	s.highlights = kept
}

// retargetHighlights moves highlight records from one slot to another across
// a representation switch. Caller must hold s.mu.
func (s *instanceSynchronizer) retargetHighlights(from representation.Representation, fromSlot uint32, to representation.Representation, toSlot uint32) {
	for i := range s.highlights {
		h := &s.highlights[i]
		if h.rep == from && h.slot == fromSlot {
			h.rep = to
			h.slot = toSlot
		}
	}
}
