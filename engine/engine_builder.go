package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-sprites/engine/loader"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sprites/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithWindow sets the window whose message loop drives the frames.
// Without a window the engine runs headless.
//
// Parameters:
//   - w: a spawned Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer frames are drawn with.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithAssets sets the texture loader handed to the setup callback.
//
// Parameters:
//   - assets: the loader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAssets(assets loader.Loader) EngineBuilderOption {
	return func(e *engine) {
		e.assets = assets
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithMaxFrames stops the loop after n frames. 0 runs until the window closes or Quit is called.
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}

// WithProfileInterval sets how often the profiler logs.
func WithProfileInterval(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profiler.SetInterval(interval)
	}
}
