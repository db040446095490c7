// Package lod selects per-object detail levels from camera distance. A
// registry owns one configuration per registered object, arranged in an arena
// addressed by stable handles, and evaluates distance thresholds with
// hysteresis on a throttled update cadence. Variant geometry for switched
// levels is resolved through the variant cache, asynchronously when possible.
package lod

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/vista-go/common"
	"github.com/Carmen-Shannon/vista-go/engine/mesh"
	"github.com/Carmen-Shannon/vista-go/engine/variant"
)

var (
	// ErrUnsupportedObject is returned when a registered object cannot carry
	// detail levels, e.g. it has no renderable asset.
	ErrUnsupportedObject = errors.New("object cannot carry detail levels")

	// ErrStaleHandle is returned when a handle no longer refers to a live
	// registration.
	ErrStaleHandle = errors.New("handle does not refer to a live registration")

	// ErrInvalidConfig is returned when registration options describe an
	// unusable configuration.
	ErrInvalidConfig = errors.New("invalid detail configuration")
)

// Object is the view of a scene object the registry needs: a stable identity,
// a world position for distance evaluation, and the full-detail asset that
// variants are generated from. Asset may return nil for objects that apply
// levels through a custom applier instead of representation swaps.
type Object interface {
	ID() uint64
	Position() common.Vec3
	Asset() *mesh.Asset
}

// Handle is a stable reference to one registration in the registry's arena.
// The generation counter detects reuse of a freed slot, so handles held after
// Unregister fail with ErrStaleHandle instead of aliasing a new object.
type Handle struct {
	index uint32
	gen   uint32
}

// LevelChange reports one committed detail level switch.
type LevelChange struct {
	// Handle identifies the registration that switched.
	Handle Handle

	// Entity is the ID of the object that switched.
	Entity uint64

	// From and To are the previous and new detail levels.
	From, To int

	// Distance is the scaled camera distance at the evaluation that triggered
	// the switch (zero for group-forced switches).
	Distance float32

	// Variant is the asset variant now in use at the new level, or nil for
	// applier-only registrations.
	Variant *mesh.Asset
}

const pendingNone = -1

// lodConfig is one object's detail configuration inside the arena.
type lodConfig struct {
	obj Object

	// asset is the renderable source asset, or nil for applier-only
	// registrations (e.g. containers). Nil asset means no variant cache
	// involvement.
	asset *mesh.Asset

	// applier, when set, is invoked on every committed switch with the new
	// level and the coarsest valid level.
	applier func(level, maxLevel int)

	thresholds []float32
	hystUp     float32
	hystDown   float32

	// distanceBias scales the evaluated distance for this object only,
	// letting large or important objects hold detail longer.
	distanceBias float32

	group string
	level int

	// disabled suspends distance evaluation without dropping the
	// registration or its variant references.
	disabled bool

	// pendingLevel is the level awaiting asynchronous variant generation, or
	// pendingNone. The object keeps rendering its current level until the
	// variant is adopted.
	pendingLevel int

	// pinned marks a group-forced level; natural distance evaluation is
	// suspended until the group override is released.
	pinned bool

	// lastDistance is the scaled distance from the most recent evaluation,
	// reported with level change notifications.
	lastDistance float32
}

type regSlot struct {
	gen  uint32
	live bool
	cfg  lodConfig
}

// lodRegistry is the implementation of the Registry interface.
type lodRegistry struct {
	mu *sync.Mutex

	label    string
	slots    []regSlot
	freeList []uint32
	liveLen  int

	cache variant.Cache

	// updateInterval throttles distance evaluation; accum carries elapsed time
	// between Update calls.
	updateInterval float64
	accum          float64

	// distanceMultiplier scales every evaluated distance. The quality
	// controller raises it under load so distant objects shed detail sooner.
	distanceMultiplier float32

	defaultThresholds []float32
	defaultHystUp     float32
	defaultHystDown   float32

	events  []LevelChange
	handler func(LevelChange)
}

// Registry defines the interface for per-object detail level management.
// Register hands back a stable handle; Update evaluates all registrations
// against the camera position; committed switches are observable through
// Drain and an optional change handler.
type Registry interface {
	// Register adds an object to the registry with the provided per-object
	// options and resolves its starting level: asset-backed objects acquire a
	// variant, applier registrations get their applier invoked.
	//
	// Parameters:
	//   - obj: the object to manage (must expose a renderable asset or
	//     register a custom applier via WithApplier)
	//   - options: per-object configuration options
	//
	// Returns:
	//   - Handle: the stable handle for later calls
	//   - error: ErrUnsupportedObject, ErrInvalidConfig, or a variant error
	Register(obj Object, options ...RegisterOption) (Handle, error)

	// Unregister removes a registration and releases its variant references.
	//
	// Parameters:
	//   - h: the handle to remove
	//
	// Returns:
	//   - error: ErrStaleHandle if the handle is not live
	Unregister(h Handle) error

	// SetEnabled suspends or resumes distance evaluation for a registration.
	// A disabled registration keeps its current level and variant references.
	//
	// Parameters:
	//   - h: the handle to modify
	//   - enabled: false to suspend evaluation
	//
	// Returns:
	//   - error: ErrStaleHandle if the handle is not live
	SetEnabled(h Handle, enabled bool) error

	// Level returns the current detail level of a registration.
	//
	// Parameters:
	//   - h: the handle to query
	//
	// Returns:
	//   - int: the current level
	//   - error: ErrStaleHandle if the handle is not live
	Level(h Handle) (int, error)

	// Update advances the registry by dt seconds. It first adopts any finished
	// asynchronous variants, then, when the throttle interval has elapsed,
	// re-evaluates every unpinned registration against the camera position.
	//
	// Parameters:
	//   - camPos: the camera world position
	//   - dt: seconds since the previous Update
	Update(camPos common.Vec3, dt float64)

	// SetGroupLevel forces every registration in a group to a level and pins
	// them there. Pinned registrations skip natural distance evaluation until
	// ReleaseGroupLevel.
	//
	// Parameters:
	//   - group: the group name
	//   - level: the forced level (clamped to each object's valid range)
	SetGroupLevel(group string, level int)

	// ReleaseGroupLevel unpins a group; the next Update re-evaluates its
	// members by distance again.
	//
	// Parameters:
	//   - group: the group name
	ReleaseGroupLevel(group string)

	// SetDistanceMultiplier sets the global distance scale applied to every
	// evaluation. Values above 1 bias all objects toward coarser levels.
	//
	// Parameters:
	//   - m: the multiplier (values <= 0 are ignored)
	SetDistanceMultiplier(m float32)

	// Drain returns and clears the queued level change events, oldest first.
	//
	// Returns:
	//   - []LevelChange: the queued events (nil if none)
	Drain() []LevelChange

	// Len returns the number of live registrations.
	//
	// Returns:
	//   - int: the registration count
	Len() int

	// Close unregisters everything and releases all variant references.
	Close()
}

// Compile-time check that lodRegistry implements Registry.
var _ Registry = &lodRegistry{}

// NewRegistry creates a detail level Registry with the provided options.
//
// Parameters:
//   - label: identifier used in log output
//   - options: functional options to configure the registry
//
// Returns:
//   - Registry: the newly created registry
func NewRegistry(label string, options ...RegistryOption) Registry {
	r := &lodRegistry{
		mu:                 &sync.Mutex{},
		label:              label,
		updateInterval:     0.1,
		distanceMultiplier: 1,
		defaultThresholds:  []float32{10, 30, 60},
		defaultHystUp:      DefaultHysteresisUp,
		defaultHystDown:    DefaultHysteresisDown,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.cache == nil {
		panic("lod: NewRegistry requires a variant cache, use WithVariantCache")
	}
	return r
}

func (r *lodRegistry) Register(obj Object, options ...RegisterOption) (Handle, error) {
	if obj == nil {
		log.Printf("[LODRegistry] %s: declining registration of nil object", r.label)
		return Handle{}, fmt.Errorf("registering object: %w", ErrUnsupportedObject)
	}

	cfg := lodConfig{
		obj:          obj,
		thresholds:   r.defaultThresholds,
		hystUp:       r.defaultHystUp,
		hystDown:     r.defaultHystDown,
		distanceBias: 1,
		pendingLevel: pendingNone,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if a := obj.Asset(); a != nil && a.Geometry != nil {
		cfg.asset = a
	}
	if cfg.asset == nil && cfg.applier == nil {
		log.Printf("[LODRegistry] %s: declining registration of object %d, no renderable asset or applier", r.label, obj.ID())
		return Handle{}, fmt.Errorf("registering object: %w", ErrUnsupportedObject)
	}
	if err := cfg.validate(); err != nil {
		return Handle{}, err
	}

	cfg.level = common.ClampInt(cfg.level, 0, len(cfg.thresholds))
	if cfg.asset != nil {
		// Resolve the starting variant synchronously so the object is
		// renderable from its first frame. A simplification failure falls back
		// to full detail inside the cache and is not fatal to registration.
		if _, err := r.cache.Acquire(cfg.asset, cfg.level); err != nil && cfg.level == 0 {
			return Handle{}, fmt.Errorf("acquiring full-detail variant for %q: %w", cfg.asset.ID, err)
		}
	}
	if cfg.applier != nil {
		cfg.applier(cfg.level, len(cfg.thresholds))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.freeList); n > 0 {
		idx = r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, regSlot{})
	}
	s := &r.slots[idx]
	s.live = true
	s.cfg = cfg
	r.liveLen++

	return Handle{index: idx, gen: s.gen}, nil
}

func (r *lodRegistry) Unregister(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.slot(h)
	if err != nil {
		return err
	}

	if s.cfg.asset != nil {
		r.cache.Release(s.cfg.asset.ID, s.cfg.level)
		if s.cfg.pendingLevel != pendingNone {
			// Cancels generation if no one else wants it.
			r.cache.Release(s.cfg.asset.ID, s.cfg.pendingLevel)
		}
	}

	s.live = false
	s.gen++
	s.cfg = lodConfig{}
	r.freeList = append(r.freeList, h.index)
	r.liveLen--
	return nil
}

func (r *lodRegistry) SetEnabled(h Handle, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.slot(h)
	if err != nil {
		return err
	}
	s.cfg.disabled = !enabled
	return nil
}

func (r *lodRegistry) Level(h Handle) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.slot(h)
	if err != nil {
		return 0, err
	}
	return s.cfg.level, nil
}

func (r *lodRegistry) Update(camPos common.Vec3, dt float64) {
	// Adopt finished asynchronous generations every frame regardless of the
	// evaluation throttle, so pending switches land as soon as they are ready.
	events := r.cache.Poll()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ev := range events {
		r.adoptPending(ev)
	}

	r.accum += dt
	if r.accum < r.updateInterval {
		return
	}
	r.accum = 0

	for i := range r.slots {
		s := &r.slots[i]
		if !s.live || s.cfg.pinned || s.cfg.disabled {
			continue
		}
		cfg := &s.cfg

		distance := common.Distance(camPos, cfg.obj.Position()) * r.distanceMultiplier * cfg.distanceBias
		cfg.lastDistance = distance
		target := SelectLevel(cfg.level, distance, cfg.thresholds, cfg.hystUp, cfg.hystDown)
		if target == cfg.level {
			continue
		}
		r.requestSwitch(Handle{index: uint32(i), gen: s.gen}, cfg, target)
	}
}

func (r *lodRegistry) SetGroupLevel(group string, level int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		s := &r.slots[i]
		if !s.live || s.cfg.group != group {
			continue
		}
		cfg := &s.cfg
		cfg.pinned = true

		target := common.ClampInt(level, 0, len(cfg.thresholds))
		if target == cfg.level {
			continue
		}

		if cfg.asset == nil {
			cfg.lastDistance = 0
			r.commit(Handle{index: uint32(i), gen: s.gen}, cfg, target, nil)
			continue
		}

		// Forced levels resolve synchronously so the override takes effect on
		// this frame; a failed simplification falls back inside the cache.
		v, _ := r.cache.Acquire(cfg.asset, target)
		if v == nil {
			continue
		}
		r.abandonPending(cfg, cfg.asset.ID)
		cfg.lastDistance = 0
		r.commit(Handle{index: uint32(i), gen: s.gen}, cfg, target, v)
	}
}

func (r *lodRegistry) ReleaseGroupLevel(group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		s := &r.slots[i]
		if s.live && s.cfg.group == group {
			s.cfg.pinned = false
		}
	}
}

func (r *lodRegistry) SetDistanceMultiplier(m float32) {
	if m <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.distanceMultiplier = m
}

func (r *lodRegistry) Drain() []LevelChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	out := r.events
	r.events = nil
	return out
}

func (r *lodRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveLen
}

func (r *lodRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		s := &r.slots[i]
		if !s.live {
			continue
		}
		if s.cfg.asset != nil {
			r.cache.Release(s.cfg.asset.ID, s.cfg.level)
			if s.cfg.pendingLevel != pendingNone {
				r.cache.Release(s.cfg.asset.ID, s.cfg.pendingLevel)
			}
		}
		s.live = false
		s.gen++
		s.cfg = lodConfig{}
	}
	r.slots = nil
	r.freeList = nil
	r.liveLen = 0
	r.events = nil
}

// slot resolves a handle to its live slot. Caller must hold r.mu.
func (r *lodRegistry) slot(h Handle) (*regSlot, error) {
	if int(h.index) >= len(r.slots) {
		return nil, ErrStaleHandle
	}
	s := &r.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil, ErrStaleHandle
	}
	return s, nil
}

// requestSwitch moves cfg toward target: immediately when the variant is
// already cached, otherwise recording a pending level for later adoption.
// Caller must hold r.mu.
func (r *lodRegistry) requestSwitch(h Handle, cfg *lodConfig, target int) {
	// Applier-only registrations have no variant to resolve; the switch
	// commits immediately.
	if cfg.asset == nil {
		r.commit(h, cfg, target, nil)
		return
	}

	if cfg.pendingLevel == target {
		return // already waiting for this level
	}
	r.abandonPending(cfg, cfg.asset.ID)

	v, pending := r.cache.AcquireAsync(cfg.asset, target)
	if pending {
		cfg.pendingLevel = target
		return
	}
	if v == nil {
		return // invalid request, keep current level
	}
	r.commit(h, cfg, target, v)
}

// adoptPending commits switches whose asynchronous variant just finished.
// Caller must hold r.mu.
func (r *lodRegistry) adoptPending(ev variant.Event) {
	for i := range r.slots {
		s := &r.slots[i]
		if !s.live || s.cfg.pendingLevel != ev.Level {
			continue
		}
		cfg := &s.cfg
		if cfg.asset == nil || cfg.asset.ID != ev.AssetID {
			continue
		}

		v := r.cache.Get(ev.AssetID, ev.Level)
		if v == nil {
			cfg.pendingLevel = pendingNone
			continue
		}
		target := cfg.pendingLevel
		cfg.pendingLevel = pendingNone
		r.commit(Handle{index: uint32(i), gen: s.gen}, cfg, target, v)
	}
}

// abandonPending drops any in-flight switch, releasing its reference so an
// unwanted generation can be cancelled. Caller must hold r.mu.
func (r *lodRegistry) abandonPending(cfg *lodConfig, assetID string) {
	if cfg.pendingLevel == pendingNone {
		return
	}
	r.cache.Release(assetID, cfg.pendingLevel)
	cfg.pendingLevel = pendingNone
}

// commit finalizes a level switch: releases the old variant reference, updates
// the config, and publishes the change. Caller must hold r.mu.
func (r *lodRegistry) commit(h Handle, cfg *lodConfig, target int, v *mesh.Asset) {
	from := cfg.level
	if cfg.asset != nil {
		r.cache.Release(cfg.asset.ID, from)
	}
	cfg.level = target
	if cfg.applier != nil {
		cfg.applier(target, len(cfg.thresholds))
	}

	ev := LevelChange{Handle: h, Entity: cfg.obj.ID(), From: from, To: target, Distance: cfg.lastDistance, Variant: v}
	r.events = append(r.events, ev)
	if r.handler != nil {
		r.handler(ev)
	}
}

// validate checks a registration's configuration shape.
func (c *lodConfig) validate() error {
	if !validThresholds(c.thresholds) {
		return fmt.Errorf("thresholds must be positive and strictly ascending: %w", ErrInvalidConfig)
	}
	if c.hystUp < 1 {
		return fmt.Errorf("coarsening hysteresis %v must be >= 1: %w", c.hystUp, ErrInvalidConfig)
	}
	if c.hystDown <= 0 || c.hystDown > 1 {
		return fmt.Errorf("refining hysteresis %v must be in (0, 1]: %w", c.hystDown, ErrInvalidConfig)
	}
	if c.distanceBias <= 0 {
		return fmt.Errorf("distance bias %v must be positive: %w", c.distanceBias, ErrInvalidConfig)
	}
	return nil
}
