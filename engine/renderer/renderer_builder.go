package renderer

import (
	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipeline registers a Pipeline as soon as the backend is created.
//
// Parameters:
//   - p: the Pipeline to register
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline option to a renderer
func WithPipeline(p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPipelines = append(r.pendingPipelines, p)
	}
}

// WithSurfaceSize sets the initial surface size in pixels.
//
// Parameters:
//   - width: the surface width
//   - height: the surface height
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSurfaceSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.config.Width = width
		r.config.Height = height
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.config.PresentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the renderer.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
// Higher values (MSAA8x, MSAA16x) are adapter-dependent and may not be supported
// by all hardware.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.config.MSAA = count
	}
}

// WithClearColor sets the color each frame is cleared to. The default is fully transparent black.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(c Color) RendererBuilderOption {
	return func(r *renderer) {
		r.config.ClearColor = c
	}
}

// WithTransparent requests a surface that composites its alpha channel with the desktop.
// Pair it with a transparent window and a clear color whose alpha is below 1.
//
// Parameters:
//   - transparent: true to composite with alpha, false for an opaque surface
//
// Returns:
//   - RendererBuilderOption: a function that applies the transparency option to a renderer
func WithTransparent(transparent bool) RendererBuilderOption {
	return func(r *renderer) {
		r.config.Transparent = transparent
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.config.ForceSoftware = force
	}
}

// WithSampler configures the sampler used with every bound texture.
//
// Parameters:
//   - s: the sampler configuration, zero fields mean backend defaults
//
// Returns:
//   - RendererBuilderOption: a function that applies the sampler option to a renderer
func WithSampler(s common.SamplerStagingData) RendererBuilderOption {
	return func(r *renderer) {
		r.config.Sampler = s
	}
}
