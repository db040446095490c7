// Package variant provides a memoized cache of simplified asset variants.
// Each (asset, level) pair is generated at most once and shared by every
// object rendering that asset at that detail level, with reference counting
// to release variants no object needs anymore.
package variant

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/vista-go/engine/mesh"
)

// entryState tracks the lifecycle of a cached variant.
type entryState int

const (
	// statePending means generation is in flight on the worker pool.
	statePending entryState = iota
	// stateReady means the variant is generated and usable.
	stateReady
	// stateFailed means simplification failed; the entry holds the full-detail
	// source asset as a fallback.
	stateFailed
)

// variantKey identifies one cached variant.
type variantKey struct {
	assetID string
	level   int
}

// Event reports the completion of an asynchronous variant generation.
type Event struct {
	// AssetID and Level identify the variant that finished generating.
	AssetID string
	Level   int

	// Err is non-nil when simplification failed and the cache fell back to
	// the full-detail source asset.
	Err error
}

type cacheEntry struct {
	key      variantKey
	state    entryState
	variant  *mesh.Asset
	refCount int

	// cancelled marks an in-flight entry whose last reference was released
	// before generation finished. The worker result is discarded on adoption.
	cancelled bool

	lastUsed time.Time
}

// variantCache is the implementation of the Cache interface.
type variantCache struct {
	mu *sync.Mutex

	label   string
	entries map[variantKey]*cacheEntry

	// pool runs asynchronous simplification jobs off the frame loop.
	pool   worker.DynamicWorkerPool
	taskID int

	// completed collects finished async generations between Poll calls.
	completed []Event

	// failedLogged dedups the fallback warning so a bad asset logs once, not
	// once per level per re-acquire.
	failedLogged map[string]bool
}

// Cache defines the interface for the memoized variant cache. Acquire returns
// a cached variant or generates it synchronously; AcquireAsync defers
// generation to a worker pool so the frame loop never blocks on simplification.
// Every successful Acquire/AcquireAsync must be paired with a Release.
type Cache interface {
	// Acquire returns the variant of an asset at the given detail level,
	// generating and caching it synchronously if absent. Level 0 is the
	// full-detail source asset. On simplification failure the full-detail
	// asset is cached as a fallback and the error is returned alongside it.
	//
	// Parameters:
	//   - source: the full-detail asset (must not be nil)
	//   - level: the detail level (0 = full detail)
	//
	// Returns:
	//   - *mesh.Asset: the variant (fallback source on failure, nil only on invalid input)
	//   - error: simplification error if the fallback was used, or invalid input
	Acquire(source *mesh.Asset, level int) (*mesh.Asset, error)

	// AcquireAsync returns the variant if already cached, or schedules its
	// generation on the worker pool and reports pending. While pending the
	// caller keeps rendering its current variant; completion is observed via
	// Poll. The reference is counted immediately, in both cases.
	//
	// Parameters:
	//   - source: the full-detail asset (must not be nil)
	//   - level: the detail level (0 = full detail)
	//
	// Returns:
	//   - *mesh.Asset: the variant if ready, nil while pending
	//   - bool: true if generation is pending
	AcquireAsync(source *mesh.Asset, level int) (*mesh.Asset, bool)

	// Poll drains completion events for asynchronous generations finished
	// since the last call. Call once per frame before level switching so
	// pending objects can adopt their new variants.
	//
	// Returns:
	//   - []Event: completion events, oldest first (nil if none)
	Poll() []Event

	// Get returns a cached, ready variant without touching reference counts.
	//
	// Parameters:
	//   - assetID: the source asset ID
	//   - level: the detail level
	//
	// Returns:
	//   - *mesh.Asset: the variant, or nil if absent or still pending
	Get(assetID string, level int) *mesh.Asset

	// Release decrements the reference count of a variant. When the count
	// reaches zero the entry is evicted; a pending entry is cancelled instead
	// and its worker result discarded on completion.
	//
	// Parameters:
	//   - assetID: the source asset ID
	//   - level: the detail level
	Release(assetID string, level int)

	// Refs returns the current reference count of a variant.
	//
	// Parameters:
	//   - assetID: the source asset ID
	//   - level: the detail level
	//
	// Returns:
	//   - int: the reference count (0 if absent)
	Refs(assetID string, level int) int

	// Len returns the number of cached entries, pending included.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Close evicts every entry and stops accepting work. Pending generations
	// are cancelled.
	Close()
}

// Compile-time check that variantCache implements Cache.
var _ Cache = &variantCache{}

// NewCache creates a variant Cache with the provided options.
//
// Parameters:
//   - label: identifier used in log output
//   - options: functional options to configure the cache
//
// Returns:
//   - Cache: the newly created cache
func NewCache(label string, options ...CacheOption) Cache {
	c := &variantCache{
		mu:           &sync.Mutex{},
		label:        label,
		entries:      make(map[variantKey]*cacheEntry),
		failedLogged: make(map[string]bool),
	}
	workers := 2
	for _, opt := range options {
		opt(c, &workers)
	}
	if c.pool == nil {
		c.pool = worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)
	}
	return c
}

func (c *variantCache) Acquire(source *mesh.Asset, level int) (*mesh.Asset, error) {
	if source == nil || source.Geometry == nil {
		return nil, fmt.Errorf("variant cache %q: nil source asset", c.label)
	}
	if level < 0 {
		return nil, fmt.Errorf("variant cache %q: negative detail level %d", c.label, level)
	}

	key := variantKey{assetID: source.ID, level: level}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.state != statePending {
		e.refCount++
		e.lastUsed = time.Now()
		v := e.variant
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	variant, err := c.generate(source, level)

	c.mu.Lock()
	defer c.mu.Unlock()
	// A pending async entry for the same key may exist; the synchronous result
	// wins, the stale worker result is discarded on adoption, and the pending
	// acquirers' references carry over.
	carried := 0
	if prev, ok := c.entries[key]; ok && prev.state == statePending {
		prev.cancelled = true
		carried = prev.refCount
	}
	e := &cacheEntry{key: key, variant: variant, refCount: carried + 1, lastUsed: time.Now()}
	if err != nil {
		e.state = stateFailed
		e.variant = source
		c.logFallback(source.ID, err)
	} else {
		e.state = stateReady
	}
	c.entries[key] = e
	return e.variant, err
}

func (c *variantCache) AcquireAsync(source *mesh.Asset, level int) (*mesh.Asset, bool) {
	if source == nil || source.Geometry == nil || level < 0 {
		return nil, false
	}

	key := variantKey{assetID: source.ID, level: level}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.refCount++
		e.lastUsed = time.Now()
		if e.state == statePending {
			e.cancelled = false
			return nil, true
		}
		return e.variant, false
	}

	// Level 0 needs no simplification; adopt the source directly.
	if level == 0 {
		e := &cacheEntry{key: key, state: stateReady, variant: source, refCount: 1, lastUsed: time.Now()}
		c.entries[key] = e
		return source, false
	}

	e := &cacheEntry{key: key, state: statePending, refCount: 1, lastUsed: time.Now()}
	c.entries[key] = e

	c.taskID++
	src := source
	c.pool.SubmitTask(worker.Task{
		ID: c.taskID,
		Do: func() (any, error) {
			variant, err := c.generate(src, level)
			c.adopt(key, src, variant, err)
			return nil, nil
		},
	})

	return nil, true
}

func (c *variantCache) Poll() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.completed) == 0 {
		return nil
	}
	out := c.completed
	c.completed = nil
	return out
}

func (c *variantCache) Get(assetID string, level int) *mesh.Asset {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[variantKey{assetID: assetID, level: level}]
	if !ok || e.state == statePending {
		return nil
	}
	return e.variant
}

func (c *variantCache) Release(assetID string, level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := variantKey{assetID: assetID, level: level}
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.refCount--
	if e.refCount > 0 {
		return
	}
	if e.state == statePending {
		// Keep the entry so adoption can observe the cancellation, but flag
		// the result for discard.
		e.cancelled = true
		return
	}
	delete(c.entries, key)
}

func (c *variantCache) Refs(assetID string, level int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[variantKey{assetID: assetID, level: level}]
	if !ok {
		return 0
	}
	return e.refCount
}

func (c *variantCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *variantCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.state == statePending {
			e.cancelled = true
			continue
		}
		delete(c.entries, key)
	}
	c.completed = nil
}

// generate produces the variant of source at the given level. Level 0 returns
// the source unchanged; deeper levels simplify geometry and material.
func (c *variantCache) generate(source *mesh.Asset, level int) (*mesh.Asset, error) {
	if level == 0 {
		return source, nil
	}
	geo, err := mesh.SimplifyGeometry(source.Geometry, mesh.DetailRatio(level))
	if err != nil {
		return nil, fmt.Errorf("simplifying %q to level %d: %w", source.ID, level, err)
	}
	return &mesh.Asset{
		ID:       source.ID,
		Geometry: geo,
		Material: mesh.SimplifyMaterial(source.Material, level),
	}, nil
}

// adopt installs the result of an asynchronous generation. Cancelled or
// superseded entries discard the result; failures fall back to the source.
func (c *variantCache) adopt(key variantKey, source *mesh.Asset, variant *mesh.Asset, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.state != statePending {
		return // superseded by a synchronous Acquire or already evicted
	}
	if e.cancelled {
		delete(c.entries, key)
		return
	}

	if err != nil {
		e.state = stateFailed
		e.variant = source
		c.logFallback(key.assetID, err)
	} else {
		e.state = stateReady
		e.variant = variant
	}
	e.lastUsed = time.Now()
	c.completed = append(c.completed, Event{AssetID: key.assetID, Level: key.level, Err: err})
}

// logFallback warns about a simplification failure once per asset. Caller must
// hold c.mu.
func (c *variantCache) logFallback(assetID string, err error) {
	if c.failedLogged[assetID] {
		return
	}
	c.failedLogged[assetID] = true
	log.Printf("[VariantCache] %s: falling back to full detail for asset %q: %v", c.label, assetID, err)
}
