package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-sprites/engine/loader"
	"github.com/Carmen-Shannon/oxy-sprites/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sprites/engine/window"
)

// ErrNoRenderer is returned by Run when the engine was built without a renderer.
var ErrNoRenderer = errors.New("engine has no renderer")

// maxBeginFailures is how many BeginFrame failures in a row stop a headless loop.
// A windowed loop keeps retrying since surface acquisition fails while minimized.
const maxBeginFailures = 60

// engine implements the Engine interface.
// The frame loop runs on the goroutine that calls Run; with a window it is driven by the
// window's message loop so GLFW and the GPU surface stay on the main thread.
type engine struct {
	window   window.Window
	renderer renderer.Renderer
	assets   loader.Loader

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // stop after this many frames; 0 = unlimited
	frames           atomic.Uint64

	// frameErrLogged is set once a BeginFrame/EndFrame failure has been logged
	frameErrLogged bool
	// beginFailures counts consecutive BeginFrame failures
	beginFailures int
}

// Engine is the main entry point for the engine.
// It owns the frame lifecycle: BeginFrame, the draw callback, EndFrame, profiling and frame limiting.
type Engine interface {
	// Window returns the window, or nil for a headless engine.
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	Renderer() renderer.Renderer

	// Assets returns the texture loader handed to the setup callback.
	Assets() loader.Loader

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frames returns how many frames have completed.
	Frames() uint64

	// Quit stops the frame loop after the current frame.
	// Safe to call multiple times and from any goroutine; subsequent calls are no-ops.
	Quit()

	// Done is closed once Quit has been called.
	Done() <-chan struct{}
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// A renderer is required before Run; a window is optional and omitted for headless runs.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, profiling, limits)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel: make(chan struct{}),
		profiler:    profiler.NewProfiler(),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.renderer == nil {
				return
			}
			if err := e.renderer.Resize(width, height); err != nil {
				log.Printf("[Engine] resize to %dx%d failed: %v", width, height, err)
			}
		})
	}

	return e
}

// Run calls setup once, then draws frames until the window closes, Quit is called, or the
// frame cap is reached. Each frame is BeginFrame, draw, EndFrame. A panic in draw is logged
// and stops the loop instead of crashing the process.
//
// Parameters:
//   - e: the engine to run
//   - setup: builds the application state from the renderer and texture loader
//   - draw: renders one frame of the state
//
// Returns:
//   - error: the setup error, or nil once the loop has stopped
func Run[S any](e Engine, setup func(r renderer.Renderer, assets loader.Loader) (S, error), draw func(r renderer.Renderer, state S)) error {
	impl, ok := e.(*engine)
	if !ok {
		return fmt.Errorf("unsupported Engine implementation %T", e)
	}
	if impl.renderer == nil {
		return ErrNoRenderer
	}

	state, err := setup(impl.renderer, impl.assets)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	frame := func() {
		impl.frame(func() { draw(impl.renderer, state) })
	}

	if impl.window != nil {
		impl.window.SetUpdateCallback(frame)
		impl.window.ProcessMessages()
		impl.Quit()
		return nil
	}

	for !impl.quitting() {
		frame()
	}
	return nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Assets() loader.Loader {
	return e.assets
}

// Quit signals the frame loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

func (e *engine) Done() <-chan struct{} {
	return e.quitChannel
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

// frame runs one iteration of the render loop.
func (e *engine) frame(draw func()) {
	if e.quitting() {
		return
	}
	start := time.Now()

	if err := e.renderer.BeginFrame(); err != nil {
		e.logFrameError("begin", err)
		e.beginFailures++
		if errors.Is(err, renderer.ErrReleased) || (e.window == nil && e.beginFailures >= maxBeginFailures) {
			log.Printf("[Engine] stopping after %d failed frame begins: %v", e.beginFailures, err)
			e.Quit()
		}
		return
	}
	e.beginFailures = 0
	e.drawRecovered(draw)
	if err := e.renderer.EndFrame(); err != nil {
		e.logFrameError("end", err)
	}

	n := e.frames.Add(1)
	if e.profilingEnabled.Load() && e.profiler != nil {
		e.profiler.Tick(e.renderer.Stats())
	}
	if e.maxFrames > 0 && n >= e.maxFrames {
		e.Quit()
		return
	}

	// Frame rate limiting
	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// drawRecovered runs the draw callback, recovering from panics so the frame can still end.
func (e *engine) drawRecovered(draw func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] draw callback recovered from panic: %v", r)
			e.Quit()
		}
	}()
	draw()
}

// logFrameError logs the first frame lifecycle failure. Surface acquisition can fail for
// many frames in a row (e.g. while minimized), so later failures are not logged.
func (e *engine) logFrameError(stage string, err error) {
	if e.frameErrLogged {
		return
	}
	e.frameErrLogged = true
	log.Printf("[Engine] %s frame failed: %v", stage, err)
}
