package renderer

import (
	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values (8, 16) are adapter-dependent and may not be available.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA16x MSAASampleCount = 16
)

// BackendConfig is the configuration collected from RendererBuilderOptions and handed to the
// BackendFactory before the backend is created.
type BackendConfig struct {
	Width, Height int
	PresentMode   PresentMode
	MSAA          MSAASampleCount
	// ClearColor is the color the frame is cleared to by BeginFrame. With Transparent set,
	// alpha 0 leaves the window see-through.
	ClearColor Color
	// Transparent asks the backend for a surface that composites with alpha.
	Transparent   bool
	ForceSoftware bool
	// Sampler configures the sampler paired with every bound texture.
	Sampler common.SamplerStagingData
}

// BackendFactory creates a backend from the collected configuration.
type BackendFactory func(cfg BackendConfig) (RendererBackend, error)

// RendererBackend is the GPU API implementation behind a Renderer. The Renderer validates every
// call before it reaches the backend, so backends may assume well-formed input.
type RendererBackend interface {
	// ConfigureSurface is a wrapper for boilerplate logic required when the surface size changes,
	// such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if size-dependent attachments could not be recreated
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// CreateBuffer allocates the native buffer for buf and uploads data. Uniform buffers are
	// created zero-filled and data is nil.
	//
	// Parameters:
	//   - buf: the handle describing the buffer
	//   - data: the initial contents
	//
	// Returns:
	//   - error: an error if the buffer could not be created
	CreateBuffer(buf *Buffer, data []byte) error

	// WriteBuffer replaces the start of a buffer's contents with data.
	WriteBuffer(buf *Buffer, data []byte) error

	// CreateTexture uploads RGBA pixels to a new texture.
	CreateTexture(tex *Texture, staging common.TextureStagingData) error

	// RegisterPipeline compiles the pipeline and stores the native object via SetNative.
	RegisterPipeline(p pipeline.Pipeline) error

	// BeginFrame acquires the frame target and clears it.
	BeginFrame() error

	// Submit replays one validated command list as a single GPU submission.
	Submit(commands []Command) error

	// EndFrame presents the frame.
	EndFrame() error

	// Release frees every native object held by the backend.
	Release()
}
