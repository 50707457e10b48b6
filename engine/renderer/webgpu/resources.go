package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

func (b *backend) CreateBuffer(buf *renderer.Buffer, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var usage wgpu.BufferUsage
	switch buf.Kind() {
	case renderer.BufferKindVertex:
		usage = wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	case renderer.BufferKindIndex:
		usage = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	case renderer.BufferKindUniform:
		usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	default:
		return fmt.Errorf("unsupported buffer kind %v", buf.Kind())
	}

	created, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            buf.Label() + " " + buf.Kind().String() + " Buffer",
		Size:             buf.Size(),
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return err
	}
	if len(data) > 0 {
		b.queue.WriteBuffer(created, 0, data)
	}
	b.buffers[buf.ID()] = created

	return nil
}

func (b *backend) WriteBuffer(buf *renderer.Buffer, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	native, ok := b.buffers[buf.ID()]
	if !ok {
		return fmt.Errorf("%w: buffer %s has no gpu allocation", renderer.ErrMissingBuffer, buf.Label())
	}
	b.queue.WriteBuffer(native, 0, data)
	return nil
}

func (b *backend) CreateTexture(tex *renderer.Texture, staging common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	created, err := b.uploadTexture(tex.Label()+" Texture", staging)
	if err != nil {
		return err
	}
	b.textures[tex.ID()] = created
	return nil
}

// uploadTexture creates an sRGB RGBA8 texture, writes the staged pixels and creates its view.
func (b *backend) uploadTexture(label string, staging common.TextureStagingData) (*gpuTexture, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  staging.Width * 4,
			RowsPerImage: staging.Height,
		},
		&wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}

	return &gpuTexture{texture: tex, view: view}, nil
}

func (t *gpuTexture) release() {
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

// createSampler builds the shared sampler. Unset fields default to clamp-to-edge addressing
// and linear filtering.
func (b *backend) createSampler(cfg common.SamplerStagingData) (*wgpu.Sampler, error) {
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Texture Sampler",
		AddressModeU:  addressMode(common.Coalesce(cfg.AddressModeU, common.AddressModeClampToEdge)),
		AddressModeV:  addressMode(common.Coalesce(cfg.AddressModeV, common.AddressModeClampToEdge)),
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filterMode(common.Coalesce(cfg.MagFilter, common.FilterModeLinear)),
		MinFilter:     filterMode(common.Coalesce(cfg.MinFilter, common.FilterModeLinear)),
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0.0,
		LodMaxClamp:   32.0,
		MaxAnisotropy: common.Coalesce(cfg.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}
	return samp, nil
}

func addressMode(m common.AddressMode) wgpu.AddressMode {
	switch m {
	case common.AddressModeRepeat:
		return wgpu.AddressModeRepeat
	case common.AddressModeMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeClampToEdge
	}
}

func filterMode(m common.FilterMode) wgpu.FilterMode {
	if m == common.FilterModeNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}
