// Package webgpu implements renderer.RendererBackend on top of WebGPU (wgpu-native via cogentcore/webgpu).
package webgpu

import (
	"fmt"
	"log"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

type backend struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat    *wgpu.TextureFormat
	msaaTexture      *wgpu.Texture
	msaaTextureView  *wgpu.TextureView
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	presentMode wgpu.PresentMode
	sampleCount renderer.MSAASampleCount
	clearColor  wgpu.Color
	transparent bool

	// sampler is paired with every texture binding
	sampler *wgpu.Sampler
	// fallback is bound to texture slots that have nothing bound this draw
	fallback *gpuTexture

	buffers    map[uint64]*wgpu.Buffer
	textures   map[uint64]*gpuTexture
	pipelines  []*pipelineState
	bindGroups map[bindGroupKey]*wgpu.BindGroup

	// Frame state, held between BeginFrame and EndFrame
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

type gpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

var _ renderer.RendererBackend = &backend{}

// NewBackendFactory returns a factory that creates a WebGPU backend drawing into the surface described
// by surfaceDescriptor, typically obtained from Window.SurfaceDescriptor().
//
// Parameters:
//   - surfaceDescriptor: the platform-specific surface descriptor for WebGPU surface creation
//
// Returns:
//   - renderer.BackendFactory: a factory for renderer.NewRenderer
func NewBackendFactory(surfaceDescriptor *wgpu.SurfaceDescriptor) renderer.BackendFactory {
	return func(cfg renderer.BackendConfig) (renderer.RendererBackend, error) {
		return newBackend(surfaceDescriptor, cfg)
	}
}

func newBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, cfg renderer.BackendConfig) (*backend, error) {
	runtime.LockOSThread()
	b := &backend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: cfg.MSAA,
		transparent: cfg.Transparent,
		clearColor: wgpu.Color{
			R: cfg.ClearColor.R,
			G: cfg.ClearColor.G,
			B: cfg.ClearColor.B,
			A: cfg.ClearColor.A,
		},
		buffers:    make(map[uint64]*wgpu.Buffer),
		textures:   make(map[uint64]*gpuTexture),
		bindGroups: make(map[bindGroupKey]*wgpu.BindGroup),
	}
	if b.sampleCount == 0 {
		b.sampleCount = renderer.MSAA4x
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.ForceSoftware,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	b.sampler, err = b.createSampler(cfg.Sampler)
	if err != nil {
		return nil, err
	}

	b.fallback, err = b.uploadTexture("Fallback Texture", common.TextureStagingData{
		Pixels: []byte{255, 255, 255, 255},
		Width:  1,
		Height: 1,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[WebGPU] device ready (msaa %dx, software %v)", b.sampleCount, cfg.ForceSoftware)
	return b, nil
}

func (b *backend) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   surfaceAlphaMode(capabilities.AlphaModes, b.transparent),
	})

	b.releaseAttachments()

	count := uint32(b.sampleCount)
	if count > 1 {
		// The MSAA texture is drawn into; each pass resolves it into the swapchain view.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("failed to create msaa texture: %w", err)
		}
		b.msaaTexture = msaaTexture
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			return fmt.Errorf("failed to create msaa texture view: %w", err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("failed to create depth texture view: %w", err)
	}

	return nil
}

// surfaceAlphaMode picks the composite alpha mode from the modes the surface supports.
// A transparent surface prefers premultiplied alpha, which is what the normal blend mode
// writes, then unpremultiplied, then inherit. An opaque surface prefers opaque. Otherwise
// the first supported mode is used.
func surfaceAlphaMode(supported []wgpu.CompositeAlphaMode, transparent bool) wgpu.CompositeAlphaMode {
	if len(supported) == 0 {
		return wgpu.CompositeAlphaModeAuto
	}

	preferred := []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModeOpaque}
	if transparent {
		preferred = []wgpu.CompositeAlphaMode{
			wgpu.CompositeAlphaModePremultiplied,
			wgpu.CompositeAlphaModeUnpremultiplied,
			wgpu.CompositeAlphaModeInherit,
		}
	}
	for _, want := range preferred {
		if slices.Contains(supported, want) {
			return want
		}
	}
	return supported[0]
}

func (b *backend) SetPresentMode(mode renderer.PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case renderer.PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case renderer.PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

// BeginFrame acquires the next swapchain texture and submits a pass that clears color to the
// configured clear color and depth to 1.0. Command lists submitted afterwards load both.
func (b *backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	b.frameSurface = surfaceTexture
	b.frameView = view

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		b.releaseFrame()
		return err
	}
	defer encoder.Release()

	color := renderer.Color{R: b.clearColor.R, G: b.clearColor.G, B: b.clearColor.B, A: b.clearColor.A}
	depth := float32(1.0)
	pass := encoder.BeginRenderPass(b.passDescriptor(&renderer.ClearOptions{Color: &color, Depth: &depth}))
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		b.releaseFrame()
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	return nil
}

func (b *backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return nil
	}

	b.surface.Present()
	b.releaseFrame()
	return nil
}

// passDescriptor builds the render pass for the current frame. Attachments are loaded unless
// clear asks for them to be cleared, and always stored so later passes in the frame build on them.
func (b *backend) passDescriptor(clear *renderer.ClearOptions) *wgpu.RenderPassDescriptor {
	color := wgpu.RenderPassColorAttachment{
		View:    b.frameView,
		LoadOp:  wgpu.LoadOpLoad,
		StoreOp: wgpu.StoreOpStore,
	}
	if b.sampleCount > 1 {
		color.View = b.msaaTextureView
		color.ResolveTarget = b.frameView
	}

	depth := &wgpu.RenderPassDepthStencilAttachment{
		View:            b.depthTextureView,
		DepthLoadOp:     wgpu.LoadOpLoad,
		DepthStoreOp:    wgpu.StoreOpStore,
		DepthClearValue: 1.0,
	}

	if clear != nil {
		if clear.Color != nil {
			color.LoadOp = wgpu.LoadOpClear
			color.ClearValue = wgpu.Color{R: clear.Color.R, G: clear.Color.G, B: clear.Color.B, A: clear.Color.A}
		}
		if clear.Depth != nil {
			depth.DepthLoadOp = wgpu.LoadOpClear
			depth.DepthClearValue = *clear.Depth
		}
	}

	return &wgpu.RenderPassDescriptor{
		ColorAttachments:       []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: depth,
	}
}

func (b *backend) releaseFrame() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *backend) releaseAttachments() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
	for key, bg := range b.bindGroups {
		bg.Release()
		delete(b.bindGroups, key)
	}
	for _, state := range b.pipelines {
		state.release()
	}
	b.pipelines = nil
	for id, buf := range b.buffers {
		buf.Release()
		delete(b.buffers, id)
	}
	for id, tex := range b.textures {
		tex.release()
		delete(b.textures, id)
	}
	if b.fallback != nil {
		b.fallback.release()
		b.fallback = nil
	}
	if b.sampler != nil {
		b.sampler.Release()
		b.sampler = nil
	}
	b.releaseAttachments()
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
