package representation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/vista-go/common"
	"github.com/Carmen-Shannon/vista-go/engine/provider"
)

// ErrNilRepresentation is returned by callers handed a nil representation
// where a live one is required.
var ErrNilRepresentation = errors.New("nil representation")

// InstanceBinding is the bind group binding index of the instance buffer that
// Flush targets. Kept as a package constant because every representation in
// this core shares the same instance-buffer layout.
const InstanceBinding = 0

// EmptySlot is the entity value stored in unoccupied slots.
const EmptySlot uint64 = 0

// batchedRepresentation is the implementation of the Representation interface.
type batchedRepresentation struct {
	mu *sync.Mutex

	// label identifies the representation in logs and provider labels.
	label string

	// assetID and level identify which variant this representation renders.
	// All objects sharing (assetID, level) occupy slots in the same
	// representation.
	assetID string
	level   int

	// prov holds the GPU buffer this representation's instance data lives in.
	prov provider.Provider

	// stagedWriteData is the slice of BufferWrites staged by Flush and drained
	// by the frame driver via StagedWriteData.
	stagedWriteData []provider.BufferWrite

	// maxSlots and slotCount track capacity and the number of occupied slots.
	maxSlots, slotCount uint32

	// instances is the CPU-side source of truth for per-slot matrix and color
	// data; slices of it are staged to the GPU on Flush.
	instances []GPUInstance

	// entities maps slot index to the occupying entity ID (EmptySlot if free).
	// Slots below slotCount are always occupied; swap-remove keeps them dense.
	entities []uint64

	// visible tracks per-slot visibility. Invisible slots upload a zeroed
	// instance so the GPU skips them without compacting the buffer.
	visible []bool

	// Sparse dirty tracking: dirtyIndices holds slot indices mutated since the
	// last Flush; dirtyBitset provides O(1) dedup so the same slot isn't
	// enqueued twice.
	dirtyIndices []uint32
	dirtyBitset  []uint64 // 1 bit per slot; word = index/64, bit = index%64

	// staging is a reusable byte buffer for coalesced uploads, avoiding
	// per-frame heap allocations. wgpu's queue.WriteBuffer copies data before
	// returning, so reuse across frames is safe.
	staging []byte
}

// Representation defines the interface for a batched GPU-resident instance
// store: a single buffer holding many logical entities' transforms and colors,
// addressed by slot index. Entities claim slots, mutate them through the
// Set* methods, and the frame driver flushes coalesced dirty ranges once per
// frame per touched representation.
type Representation interface {
	// Label returns the representation's identifier.
	//
	// Returns:
	//   - string: the label
	Label() string

	// AssetID returns the source asset this representation renders.
	//
	// Returns:
	//   - string: the asset ID
	AssetID() string

	// Level returns the detail level this representation renders.
	//
	// Returns:
	//   - int: the detail level (0 = full detail)
	Level() int

	// Provider returns the GPU buffer provider backing this representation.
	//
	// Returns:
	//   - provider.Provider: the buffer provider
	Provider() provider.Provider

	// Claim registers an entity in the next free slot, growing capacity if
	// needed.
	//
	// Parameters:
	//   - entity: the entity ID to register (must not be EmptySlot)
	//
	// Returns:
	//   - uint32: the claimed slot index
	//   - error: error if the entity ID is invalid
	Claim(entity uint64) (uint32, error)

	// Free releases the slot at the given index using a swap-remove strategy.
	// Returns the old last slot that was swapped into the freed slot and
	// whether a swap occurred; when true the caller must update the swapped
	// entity's stored slot index.
	//
	// Parameters:
	//   - slot: the slot index to free
	//
	// Returns:
	//   - uint32: the old last slot index that was moved (only meaningful when bool is true)
	//   - bool: true if the last slot was swapped into the freed slot
	Free(slot uint32) (uint32, bool)

	// EntityAt returns the entity occupying a slot, or EmptySlot.
	//
	// Parameters:
	//   - slot: the slot index to query
	//
	// Returns:
	//   - uint64: the occupying entity ID or EmptySlot
	EntityAt(slot uint32) uint64

	// Entities returns a copy of the occupied slot-to-entity table, indexed by
	// slot. Used by the instance synchronizer to build its reverse maps.
	//
	// Returns:
	//   - []uint64: entity IDs for slots [0, SlotCount)
	Entities() []uint64

	// SlotCount returns the number of occupied slots.
	//
	// Returns:
	//   - uint32: the occupied slot count
	SlotCount() uint32

	// MaxSlots returns the current slot capacity.
	//
	// Returns:
	//   - uint32: the capacity
	MaxSlots() uint32

	// SetMatrix sets the world transform for a slot and marks it dirty.
	// Out-of-range slots are ignored.
	//
	// Parameters:
	//   - slot: the slot index to update
	//   - m: the 4x4 column-major model matrix
	SetMatrix(slot uint32, m [16]float32)

	// Matrix returns the current world transform for a slot.
	//
	// Parameters:
	//   - slot: the slot index to query
	//
	// Returns:
	//   - [16]float32: the stored matrix (zeros if out of range)
	Matrix(slot uint32) [16]float32

	// SetColor sets the tint color for a slot and marks it dirty.
	// Out-of-range slots are ignored.
	//
	// Parameters:
	//   - slot: the slot index to update
	//   - c: the RGBA color
	SetColor(slot uint32, c common.Color)

	// Color returns the current tint color for a slot.
	//
	// Parameters:
	//   - slot: the slot index to query
	//
	// Returns:
	//   - common.Color: the stored color (zeros if out of range)
	Color(slot uint32) common.Color

	// SetVisible toggles a slot's visibility and marks it dirty. Invisible
	// slots upload a zeroed instance rather than compacting the buffer, so
	// slot indices stay stable across level switches.
	//
	// Parameters:
	//   - slot: the slot index to update
	//   - visible: true to render the slot
	SetVisible(slot uint32, visible bool)

	// Visible returns whether a slot is currently visible.
	//
	// Parameters:
	//   - slot: the slot index to query
	//
	// Returns:
	//   - bool: true if visible (false if out of range)
	Visible(slot uint32) bool

	// Dirty reports whether any slot has been mutated since the last Flush.
	//
	// Returns:
	//   - bool: true if a Flush would stage data
	Dirty() bool

	// Flush coalesces all dirty slots into contiguous staged buffer writes
	// targeting InstanceBinding and clears the dirty state. This is the single
	// per-frame dirty mark for the representation: callers mutate any number
	// of slots, then Flush once.
	//
	// Returns:
	//   - uint32: the number of slots staged
	Flush() uint32

	// StagedWriteData returns and clears the pending GPU buffer writes.
	// The frame driver calls this to drain staged writes and submit them
	// through a provider.SubmitQueue.
	//
	// Returns:
	//   - []provider.BufferWrite: the slice of pending buffer writes
	StagedWriteData() []provider.BufferWrite

	// Release frees GPU resources held by this representation's provider and
	// drops CPU-side slot data.
	Release()
}

// Compile-time check that batchedRepresentation implements Representation.
var _ Representation = &batchedRepresentation{}

// NewRepresentation creates a Representation for one (asset, level) variant
// with the provided options.
//
// Parameters:
//   - label: identifier used in logs and the provider label
//   - options: functional options to configure the representation
//
// Returns:
//   - Representation: the newly created representation
func NewRepresentation(label string, options ...RepresentationOption) Representation {
	label = common.Coalesce(label, "representation")
	r := &batchedRepresentation{
		mu:       &sync.Mutex{},
		label:    label,
		maxSlots: 256,
	}
	for _, opt := range options {
		opt(r)
	}
	r.prov = provider.NewProvider(label + "_instances")
	r.instances = make([]GPUInstance, r.maxSlots)
	r.entities = make([]uint64, r.maxSlots)
	r.visible = make([]bool, r.maxSlots)
	r.dirtyIndices = make([]uint32, 0, 64)
	r.dirtyBitset = make([]uint64, (r.maxSlots+63)/64)
	r.staging = make([]byte, int(r.maxSlots)*(&GPUInstance{}).Size())
	r.stagedWriteData = make([]provider.BufferWrite, 0, 2)
	return r
}

func (r *batchedRepresentation) Label() string {
	return r.label
}

func (r *batchedRepresentation) AssetID() string {
	return r.assetID
}

func (r *batchedRepresentation) Level() int {
	return r.level
}

func (r *batchedRepresentation) Provider() provider.Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prov
}

func (r *batchedRepresentation) Claim(entity uint64) (uint32, error) {
	if entity == EmptySlot {
		return 0, fmt.Errorf("representation %q: cannot claim a slot for the empty entity ID", r.label)
	}
	r.mu.Lock()
	if r.slotCount >= r.maxSlots {
		newCap := max(r.maxSlots*2, 8)
		r.mu.Unlock()
		r.grow(newCap)
		r.mu.Lock()
	}
	slot := r.slotCount
	r.slotCount++
	r.entities[slot] = entity
	r.visible[slot] = true
	r.enqueueDirty(slot)
	r.mu.Unlock()
	return slot, nil
}

func (r *batchedRepresentation) Free(slot uint32) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slotCount == 0 || slot >= r.slotCount {
		return 0, false
	}

	last := r.slotCount - 1
	swapped := slot != last

	if swapped {
		// Move the last slot's data into the freed slot and mark it dirty so
		// the move is re-uploaded.
		r.instances[slot] = r.instances[last]
		r.entities[slot] = r.entities[last]
		r.visible[slot] = r.visible[last]
		r.enqueueDirty(slot)
	}

	// Zero out the now-unused last slot and decrement.
	r.instances[last] = GPUInstance{}
	r.entities[last] = EmptySlot
	r.visible[last] = false
	r.enqueueDirty(last)
	r.slotCount--

	return last, swapped
}

func (r *batchedRepresentation) EntityAt(slot uint32) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot >= r.slotCount {
		return EmptySlot
	}
	return r.entities[slot]
}

func (r *batchedRepresentation) Entities() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, r.slotCount)
	copy(out, r.entities[:r.slotCount])
	return out
}

func (r *batchedRepresentation) SlotCount() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slotCount
}

func (r *batchedRepresentation) MaxSlots() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxSlots
}

func (r *batchedRepresentation) SetMatrix(slot uint32, m [16]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot >= r.maxSlots {
		return
	}
	r.instances[slot].Model = m
	r.enqueueDirty(slot)
}

func (r *batchedRepresentation) Matrix(slot uint32) [16]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot >= r.maxSlots {
		return [16]float32{}
	}
	return r.instances[slot].Model
}

func (r *batchedRepresentation) SetColor(slot uint32, c common.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot >= r.maxSlots {
		return
	}
	r.instances[slot].Color = [4]float32(c)
	r.enqueueDirty(slot)
}

func (r *batchedRepresentation) Color(slot uint32) common.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot >= r.maxSlots {
		return common.Color{}
	}
	return common.Color(r.instances[slot].Color)
}

func (r *batchedRepresentation) SetVisible(slot uint32, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot >= r.maxSlots || r.visible[slot] == visible {
		return
	}
	r.visible[slot] = visible
	r.enqueueDirty(slot)
}

func (r *batchedRepresentation) Visible(slot uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot >= r.maxSlots {
		return false
	}
	return r.visible[slot]
}

func (r *batchedRepresentation) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dirtyIndices) > 0
}

func (r *batchedRepresentation) Flush() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.dirtyIndices) == 0 {
		return 0
	}

	// Sort dirty indices so adjacent ones coalesce into contiguous buffer
	// writes, minimizing GPU write commands while only uploading mutated data.
	sortUint32(r.dirtyIndices)

	instSize := uint64((&GPUInstance{}).Size())
	count := uint32(len(r.dirtyIndices))

	runStart := r.dirtyIndices[0]
	runEnd := runStart + 1 // exclusive

	for i := 1; i < len(r.dirtyIndices); i++ {
		idx := r.dirtyIndices[i]
		if idx == runEnd {
			runEnd++
		} else {
			r.flushRange(runStart, runEnd, instSize)
			runStart = idx
			runEnd = idx + 1
		}
	}
	r.flushRange(runStart, runEnd, instSize)

	// Clear dirty state: reset indices slice and zero the bitset.
	r.dirtyIndices = r.dirtyIndices[:0]
	for i := range r.dirtyBitset {
		r.dirtyBitset[i] = 0
	}

	return count
}

func (r *batchedRepresentation) StagedWriteData() []provider.BufferWrite {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.stagedWriteData
	r.stagedWriteData = r.stagedWriteData[:0]
	return w
}

func (r *batchedRepresentation) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.prov != nil {
		r.prov.Release()
	}
	r.instances = nil
	r.entities = nil
	r.visible = nil
	r.stagedWriteData = nil
	r.staging = nil
	r.dirtyIndices = nil
	r.dirtyBitset = nil
}

// enqueueDirty adds a slot index to the dirty queue if not already present.
// Uses a bitset for O(1) dedup. Caller must hold r.mu.
func (r *batchedRepresentation) enqueueDirty(slot uint32) {
	word := slot / 64
	bit := uint64(1) << (slot % 64)
	if r.dirtyBitset[word]&bit != 0 {
		return // already queued
	}
	r.dirtyBitset[word] |= bit
	r.dirtyIndices = append(r.dirtyIndices, slot)
}

// flushRange stages a contiguous run of dirty slots [start, end) as a single
// GPU buffer write. Invisible slots are staged zeroed so the GPU skips them.
// Caller must hold r.mu.
func (r *batchedRepresentation) flushRange(start, end uint32, instSize uint64) {
	offset := uint64(start) * instSize
	byteLen := uint64(end-start) * instSize
	buf := r.staging[offset : offset+byteLen]

	for slot := start; slot < end; slot++ {
		src := r.instances[slot]
		if !r.visible[slot] {
			src = GPUInstance{}
		}
		raw := common.StructToBytes(&src)
		copy(buf[uint64(slot-start)*instSize:], raw)
	}

	r.stagedWriteData = append(r.stagedWriteData, provider.BufferWrite{
		Provider: r.prov,
		Binding:  InstanceBinding,
		Offset:   offset,
		Data:     buf,
	})
}

// grow increases the slot capacity to newMax, preserving all existing slot
// data and marking every occupied slot dirty for re-upload.
func (r *batchedRepresentation) grow(newMax uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if newMax <= r.maxSlots {
		return
	}

	newInstances := make([]GPUInstance, newMax)
	copy(newInstances, r.instances[:r.slotCount])
	r.instances = newInstances

	newEntities := make([]uint64, newMax)
	copy(newEntities, r.entities[:r.slotCount])
	r.entities = newEntities

	newVisible := make([]bool, newMax)
	copy(newVisible, r.visible[:r.slotCount])
	r.visible = newVisible

	r.maxSlots = newMax
	r.staging = make([]byte, int(newMax)*(&GPUInstance{}).Size())

	// Rebuild the bitset for the new capacity and enqueue every live slot.
	r.dirtyBitset = make([]uint64, (newMax+63)/64)
	r.dirtyIndices = r.dirtyIndices[:0]
	for i := uint32(0); i < r.slotCount; i++ {
		r.enqueueDirty(i)
	}
}

// sortUint32 sorts a uint32 slice in ascending order using insertion sort.
// For the typical dirty queue sizes (0 to a few hundred), insertion sort
// outperforms sort.Slice due to zero allocation and low overhead.
func sortUint32(s []uint32) {
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && s[j] > key {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
}
