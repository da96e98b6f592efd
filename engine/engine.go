package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/panorama"
	"github.com/Carmen-Shannon/oxy-pano/engine/profiler"
)

// DefaultTickRate is the tick rate used when none is configured.
const DefaultTickRate = 60.0

// engine implements the Engine interface.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running     bool
	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	session panorama.Session
	camera  camera.Camera

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	lastState camera.State
	hasState  bool
	refreshes atomic.Uint64
	redraws   atomic.Uint64
}

// Engine drives a panorama session from a single goroutine.
// Each tick runs the tick callback, updates the camera, refreshes the session when the view changed or
// the session asks for it, applies finished fetches and calls the render callback when the sphere changed.
type Engine interface {
	// Session returns the driven session.
	//
	// Returns:
	//   - panorama.Session: the session
	Session() panorama.Session

	// Camera returns the camera whose view is streamed.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// EnableProfiler enables periodic profiler reports.
	EnableProfiler()

	// DisableProfiler disables periodic profiler reports.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called at the start of each tick, before the camera update.
	// Use this for input processing and scripted camera moves.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called at the end of a tick that changed the sphere.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// Tick runs one engine step. Run calls it at the tick rate; headless drivers and tests may call it
	// directly, but never concurrently with Run.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous tick
	Tick(deltaTime float32)

	// Counters returns how many ticks refreshed the session and how many rendered.
	//
	// Returns:
	//   - refreshes: ticks that called Refresh
	//   - redraws: ticks that called the render callback
	Counters() (refreshes, redraws uint64)

	// Run ticks until ctx is done or Quit is called.
	//
	// Parameters:
	//   - ctx: stops the loop when done
	//
	// Returns:
	//   - error: ctx.Err() when the context ended the loop, nil after Quit
	Run(ctx context.Context) error

	// Quit stops Run. Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an Engine driving session with the view of cam.
//
// Parameters:
//   - session: the panorama session
//   - cam: the camera
//   - options: functional options for engine configuration (profiling, tick rate, callbacks)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(session panorama.Session, cam camera.Camera, options ...EngineBuilderOption) Engine {
	if session == nil || cam == nil {
		panic("engine: session and camera are required")
	}
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		session:         session,
		camera:          cam,
		engineTickRate:  tickPeriod(DefaultTickRate),
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithSession(session))
	}
	return e
}

func (e *engine) Session() panorama.Session {
	return e.session
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Tick(dt float32) {
	e.mu.Lock()
	tickCallback, renderCallback := e.tickCallback, e.renderCallback
	profiling := e.profilingEnabled
	e.mu.Unlock()

	if tickCallback != nil {
		tickCallback(dt)
	}

	e.camera.Update()
	state := e.camera.State()
	if !e.hasState || state != e.lastState || e.session.NeedsRefresh() {
		e.session.Refresh(state)
		e.lastState = state
		e.hasState = true
		e.refreshes.Add(1)
	}

	e.session.ProcessCompletions()

	if e.session.NeedsRedraw() {
		if renderCallback != nil {
			renderCallback(dt)
		}
		e.session.MarkDrawn()
		e.redraws.Add(1)
	}

	if profiling {
		e.profiler.Tick()
	}
}

func (e *engine) Counters() (uint64, uint64) {
	return e.refreshes.Load(), e.redraws.Load()
}

func (e *engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		panic("engine: Run called twice")
	}
	e.running = true
	rate := e.engineTickRate
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	common.Logger().Info("engine: running", "tick", rate, "session", e.session.ID())
	lastTick := time.Now()
	e.Tick(0)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quitChannel:
			return nil
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.Tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// Quit closes the quit channel. Safe to call multiple times due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	newRate := tickPeriod(fps)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		e.engineTickRate = newRate
		return
	}
	// Non-blocking send - if a change is already pending, replace it
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func tickPeriod(fps float64) time.Duration {
	if fps <= 0 {
		fps = DefaultTickRate
	}
	return time.Duration(float64(time.Second) / fps)
}
