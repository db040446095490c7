// Package engine drives the adaptive rendering core: a fixed-rate tick loop
// for logic, a render loop that runs detail selection, instance
// synchronization, and quality sampling in a fixed order each frame, and the
// pool of batched representations entities move between as their detail
// levels change.
package engine

import (
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/Carmen-Shannon/vista-go/engine/camera"
	"github.com/Carmen-Shannon/vista-go/engine/instance"
	"github.com/Carmen-Shannon/vista-go/engine/lod"
	"github.com/Carmen-Shannon/vista-go/engine/profiler"
	"github.com/Carmen-Shannon/vista-go/engine/provider"
	"github.com/Carmen-Shannon/vista-go/engine/quality"
	"github.com/Carmen-Shannon/vista-go/engine/representation"
	"github.com/Carmen-Shannon/vista-go/engine/scene"
	"github.com/Carmen-Shannon/vista-go/engine/variant"
	"github.com/Carmen-Shannon/vista-go/engine/window"
)

// repKey identifies one pooled representation.
type repKey struct {
	assetID string
	level   int
}

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	world   scene.Scene
	cam     camera.Camera
	cache   variant.Cache
	lods    lod.Registry
	sync    instance.Synchronizer
	quality quality.Controller
	submit  provider.SubmitQueue

	// repMu guards the representation pool; representations themselves are
	// internally synchronized.
	repMu *sync.Mutex
	reps  map[repKey]representation.Representation

	// handles maps entity IDs to their detail registration so removal can
	// unregister without the caller holding the handle.
	handleMu *sync.Mutex
	handles  map[uint64]lod.Handle
}

// Engine is the main entry point for the rendering core.
// It orchestrates the tick loop, the per-frame detail/sync/quality pipeline,
// and window management.
type Engine interface {
	// Window returns the underlying window, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// World returns the scene graph the engine operates on.
	//
	// Returns:
	//   - scene.Scene: the scene
	World() scene.Scene

	// Camera returns the observer whose position drives detail selection.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Quality returns the adaptive quality controller.
	//
	// Returns:
	//   - quality.Controller: the controller
	Quality() quality.Controller

	// Detail returns the detail level registry.
	//
	// Returns:
	//   - lod.Registry: the registry
	Detail() lod.Registry

	// Synchronizer returns the entity/instance mapping layer.
	//
	// Returns:
	//   - instance.Synchronizer: the synchronizer
	Synchronizer() instance.Synchronizer

	// AddObject adds an object subtree to the scene and registers it for
	// detail selection: mesh objects attach to the representation for their
	// starting level, containers with children register a proportional
	// child-truncation applier. Objects the detail registry declines as
	// unsupported are kept in the scene untracked rather than failing the
	// whole subtree.
	//
	// Parameters:
	//   - obj: the object to add
	//   - options: per-object detail options
	//
	// Returns:
	//   - error: a registration or attachment error
	AddObject(obj scene.Object, options ...lod.RegisterOption) error

	// RemoveObject detaches an entity from its representation, unregisters
	// its detail selection, and removes it from the scene.
	//
	// Parameters:
	//   - id: the entity ID
	//
	// Returns:
	//   - bool: true if the entity was present
	RemoveObject(id uint64) bool

	// Frame runs one iteration of the per-frame pipeline: detail selection,
	// level-change adoption, instance synchronization, staged write
	// submission, and quality sampling. The render loop calls this
	// internally; headless hosts and tests may drive it directly.
	//
	// Parameters:
	//   - dt: seconds since the previous frame
	Frame(dt float64)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic, physics, input processing, and animation updates.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each frame's
	// pipeline, receiving the delta time in seconds.
	//
	// Parameters:
	//   - callback: function to call each render frame
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the main engine loop (blocks until window closes or Quit).
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// Compile-time check that engine implements Engine.
var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// Subsystems not supplied by options are constructed with defaults and wired
// together: the scene feeds poses and selection events to the synchronizer,
// the variant cache backs the detail registry, and the quality controller
// adjusts the registry's distance multiplier as it steps.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		running:          false,
		wg:               sync.WaitGroup{},
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
		repMu:            &sync.Mutex{},
		reps:             make(map[repKey]representation.Representation),
		handleMu:         &sync.Mutex{},
		handles:          make(map[uint64]lod.Handle),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.world == nil {
		e.world = scene.NewScene("world")
	}
	if e.cam == nil {
		e.cam = camera.NewCamera()
	}
	if e.cache == nil {
		e.cache = variant.NewCache("variants")
	}
	if e.lods == nil {
		e.lods = lod.NewRegistry("detail", lod.WithVariantCache(e.cache))
	}
	if e.sync == nil {
		e.sync = instance.NewSynchronizer("sync", instance.WithPoseSource(e.world))
	}
	if e.quality == nil {
		// Lower quality pushes the detail distance multiplier up so distant
		// objects shed geometry along with the global knobs.
		e.quality = quality.NewController("quality",
			quality.WithChangeHandler(func(level float32, _ quality.Settings) {
				e.lods.SetDistanceMultiplier(2 - level)
			}),
		)
	}

	e.profiler.SetQualitySource(e.quality.Level)

	// Selection and build-mode events flow from the scene straight into the
	// synchronizer.
	e.world.OnSelectionChange(e.sync.OnSelect)
	e.world.OnBuildModeChange(e.sync.OnBuildModeChange)

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if height > 0 {
				e.cam.SetAspect(float32(width) / float32(height))
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) World() scene.Scene {
	return e.world
}

func (e *engine) Camera() camera.Camera {
	return e.cam
}

func (e *engine) Quality() quality.Controller {
	return e.quality
}

func (e *engine) Detail() lod.Registry {
	return e.lods
}

func (e *engine) Synchronizer() instance.Synchronizer {
	return e.sync
}

func (e *engine) AddObject(obj scene.Object, options ...lod.RegisterOption) error {
	if obj == nil {
		return nil
	}
	e.world.Add(obj)
	return e.track(obj, options)
}

// track registers an object subtree for detail selection, children first so a
// container's truncation applier finds its children already attached.
func (e *engine) track(obj scene.Object, options []lod.RegisterOption) error {
	for _, child := range obj.Children() {
		if err := e.track(child, options); err != nil {
			return err
		}
	}

	switch obj.Kind() {
	case scene.KindMesh:
		h, err := e.lods.Register(obj, options...)
		if errors.Is(err, lod.ErrUnsupportedObject) {
			// The object stays in the world untracked; the rest of the
			// subtree is still registered.
			log.Printf("[Engine] skipping detail tracking for object %d: %v", obj.ID(), err)
			return nil
		}
		if err != nil {
			return err
		}
		level, _ := e.lods.Level(h)
		rep := e.representationFor(obj.Asset().ID, level)
		if _, err := e.sync.Attach(obj.ID(), rep); err != nil {
			_ = e.lods.Unregister(h)
			return err
		}
		e.storeHandle(obj.ID(), h)
	case scene.KindContainer:
		// Childless containers carry nothing to degrade.
		if len(obj.Children()) == 0 {
			return nil
		}
		opts := make([]lod.RegisterOption, 0, len(options)+1)
		opts = append(opts, options...)
		opts = append(opts, lod.WithApplier(e.containerApplier(obj)))
		h, err := e.lods.Register(obj, opts...)
		if err != nil {
			return err
		}
		e.storeHandle(obj.ID(), h)
	}
	return nil
}

// containerApplier truncates a container's visible children proportionally to
// the detail level: full detail shows every child, the coarsest level none.
func (e *engine) containerApplier(obj scene.Object) func(level, maxLevel int) {
	return func(level, maxLevel int) {
		children := obj.Children()
		n := len(children)
		if n == 0 || maxLevel <= 0 {
			return
		}
		visible := (n*(maxLevel-level) + maxLevel - 1) / maxLevel
		for i, child := range children {
			e.sync.SetVisible(child.ID(), i < visible)
		}
	}
}

func (e *engine) storeHandle(id uint64, h lod.Handle) {
	e.handleMu.Lock()
	e.handles[id] = h
	e.handleMu.Unlock()
}

func (e *engine) RemoveObject(id uint64) bool {
	if obj := e.world.Object(id); obj != nil {
		e.untrack(obj)
	}
	return e.world.Remove(id)
}

// untrack unwinds a subtree's detail registrations and instance attachments.
func (e *engine) untrack(obj scene.Object) {
	for _, child := range obj.Children() {
		e.untrack(child)
	}

	e.handleMu.Lock()
	h, registered := e.handles[obj.ID()]
	delete(e.handles, obj.ID())
	e.handleMu.Unlock()

	if registered {
		_ = e.lods.Unregister(h)
	}
	e.sync.Detach(obj.ID())
}

func (e *engine) Frame(dt float64) {
	start := time.Now()

	// Detail selection sees this frame's camera first, so the synchronizer
	// below pushes transforms into this frame's final representations.
	e.lods.Update(e.cam.Position(), dt)

	// Committed level switches move their entities into the pooled
	// representation for the new (asset, level) pair.
	for _, ev := range e.lods.Drain() {
		if ev.Variant == nil {
			continue // applier-only switch, no representation to move to
		}
		rep := e.representationFor(ev.Variant.ID, ev.To)
		if _, err := e.sync.Move(ev.Entity, rep); err != nil {
			log.Printf("[Engine] moving entity %d to level %d: %v", ev.Entity, ev.To, err)
		}
	}

	e.sync.Update(dt)

	// Staged writes from every touched representation go to the GPU in one
	// pass. Headless hosts run without a submit queue and just drop them.
	e.repMu.Lock()
	reps := make([]representation.Representation, 0, len(e.reps))
	for _, rep := range e.reps {
		reps = append(reps, rep)
	}
	e.repMu.Unlock()
	for _, rep := range reps {
		writes := rep.StagedWriteData()
		if len(writes) > 0 && e.submit != nil {
			e.submit.WriteBuffers(writes)
		}
	}

	// The sample covers detail selection and synchronization too, so the
	// controller reacts to the whole frame's cost.
	e.quality.Sample(float64(time.Since(start)) / float64(time.Millisecond))
}

// representationFor returns the pooled representation for an (asset, level)
// pair, creating it on first use.
func (e *engine) representationFor(assetID string, level int) representation.Representation {
	key := repKey{assetID: assetID, level: level}
	e.repMu.Lock()
	defer e.repMu.Unlock()
	if rep, ok := e.reps[key]; ok {
		return rep
	}
	rep := representation.NewRepresentation(
		assetID+"_l"+strconv.Itoa(level),
		representation.WithAsset(assetID, level),
	)
	e.reps[key] = rep
	return rep
}

func (e *engine) Run() {
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.running = true
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic
// rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own
// goroutine, executing the per-frame pipeline via Frame.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := now.Sub(lastRender).Seconds()
			lastRender = now

			e.Frame(dt)

			if e.renderCallback != nil {
				e.renderCallback(float32(dt))
			}

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick()
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Send to channel for immediate update in running engine loop
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			// Channel has a pending update, drain and send new value
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		// Engine not running, just update the field
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}
