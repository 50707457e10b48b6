package webgpu

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipelineState is the native object stored on a Pipeline via SetNative.
type pipelineState struct {
	key     string
	render  *wgpu.RenderPipeline
	layout  *wgpu.PipelineLayout
	modules []*wgpu.ShaderModule
	// groupLayouts and groups are indexed by bind group number
	groupLayouts []*wgpu.BindGroupLayout
	groups       [][]shader.Binding
}

func (s *pipelineState) release() {
	if s.render != nil {
		s.render.Release()
	}
	if s.layout != nil {
		s.layout.Release()
	}
	for _, l := range s.groupLayouts {
		if l != nil {
			l.Release()
		}
	}
	for _, m := range s.modules {
		m.Release()
	}
}

func (b *backend) RegisterPipeline(p pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	state := &pipelineState{key: p.PipelineKey()}

	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: vertexShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: vertexShader.Source(),
		},
	})
	if err != nil {
		return err
	}
	state.modules = append(state.modules, vs)

	fs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fragmentShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: fragmentShader.Source(),
		},
	})
	if err != nil {
		state.release()
		return err
	}
	state.modules = append(state.modules, fs)

	merged, err := mergeBindGroupLayouts(vertexShader.Bindings(), fragmentShader.Bindings())
	if err != nil {
		state.release()
		return err
	}
	state.groupLayouts = make([]*wgpu.BindGroupLayout, len(merged))
	state.groups = make([][]shader.Binding, len(merged))
	for g, group := range merged {
		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(group))
		for _, e := range group {
			entries = append(entries, e.entry)
			state.groups[g] = append(state.groups[g], e.binding)
		}
		layout, layoutErr := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s Group %d", p.PipelineKey(), g),
			Entries: entries,
		})
		if layoutErr != nil {
			state.release()
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		state.groupLayouts[g] = layout
	}

	state.layout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: state.groupLayouts,
	})
	if err != nil {
		state.release()
		return err
	}

	info := p.VertexInfo()
	attrs := make([]wgpu.VertexAttribute, 0, len(info.Attributes()))
	for _, a := range info.Attributes() {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         vertexFormat(a.Format),
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		})
	}

	target := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if p.BlendEnabled() {
		target.Blend = blendState(p.BlendMode())
	}

	ds := p.DepthStencil()
	state.render, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: state.layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: info.Stride(),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes:  attrs,
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(p.Topology()),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(p.CullMode()),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: ds.Write,
			DepthCompare:      compareFunction(ds.Compare),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		state.release()
		return err
	}

	b.pipelines = append(b.pipelines, state)
	p.SetNative(state)

	return nil
}

type layoutEntry struct {
	binding shader.Binding
	entry   wgpu.BindGroupLayoutEntry
}

// mergeBindGroupLayouts combines the bindings of both stages into per-group layout entries.
// A binding declared by both stages gets the union of their visibilities. Groups without
// bindings between used groups get an empty layout.
func mergeBindGroupLayouts(vertexBindings, fragmentBindings []shader.Binding) ([][]layoutEntry, error) {
	type slot struct{ group, binding uint32 }
	merged := make(map[slot]*layoutEntry)
	maxGroup := -1

	add := func(bindings []shader.Binding, visibility wgpu.ShaderStage) error {
		for _, bnd := range bindings {
			key := slot{bnd.Group, bnd.Binding}
			if existing, ok := merged[key]; ok {
				existing.entry.Visibility |= visibility
				continue
			}
			entry, err := layoutEntryFor(bnd, visibility)
			if err != nil {
				return err
			}
			merged[key] = &layoutEntry{binding: bnd, entry: entry}
			if int(bnd.Group) > maxGroup {
				maxGroup = int(bnd.Group)
			}
		}
		return nil
	}
	if err := add(vertexBindings, wgpu.ShaderStageVertex); err != nil {
		return nil, err
	}
	if err := add(fragmentBindings, wgpu.ShaderStageFragment); err != nil {
		return nil, err
	}

	groups := make([][]layoutEntry, maxGroup+1)
	for key, e := range merged {
		groups[key.group] = append(groups[key.group], *e)
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool {
			return g[i].binding.Binding < g[j].binding.Binding
		})
	}
	return groups, nil
}

func layoutEntryFor(bnd shader.Binding, visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    bnd.Binding,
		Visibility: visibility,
	}
	switch bnd.Kind {
	case shader.BindingKindUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = bnd.Size
	case shader.BindingKindTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case shader.BindingKindSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	default:
		return entry, fmt.Errorf("binding %s: %v bindings are not supported", bnd.Name, bnd.Kind)
	}
	return entry, nil
}

func vertexFormat(f shader.VertexFormat) wgpu.VertexFormat {
	switch f {
	case shader.VertexFormatFloat32:
		return wgpu.VertexFormatFloat32
	case shader.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case shader.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3
	case shader.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	case shader.VertexFormatUint32:
		return wgpu.VertexFormatUint32
	case shader.VertexFormatSint32:
		return wgpu.VertexFormatSint32
	default:
		return wgpu.VertexFormatUndefined
	}
}

func blendState(mode pipeline.BlendMode) *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: blendComponent(mode.Color),
		Alpha: blendComponent(mode.Alpha),
	}
}

func blendComponent(c pipeline.BlendComponent) wgpu.BlendComponent {
	return wgpu.BlendComponent{
		SrcFactor: blendFactor(c.SrcFactor),
		DstFactor: blendFactor(c.DstFactor),
		Operation: blendOperation(c.Operation),
	}
}

func blendFactor(f pipeline.BlendFactor) wgpu.BlendFactor {
	switch f {
	case pipeline.BlendFactorOne:
		return wgpu.BlendFactorOne
	case pipeline.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case pipeline.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	default:
		return wgpu.BlendFactorZero
	}
}

func blendOperation(op pipeline.BlendOperation) wgpu.BlendOperation {
	if op == pipeline.BlendOperationSubtract {
		return wgpu.BlendOperationSubtract
	}
	return wgpu.BlendOperationAdd
}

func compareFunction(c pipeline.CompareMode) wgpu.CompareFunction {
	switch c {
	case pipeline.CompareModeNever:
		return wgpu.CompareFunctionNever
	case pipeline.CompareModeLess:
		return wgpu.CompareFunctionLess
	case pipeline.CompareModeLessEqual:
		return wgpu.CompareFunctionLessEqual
	case pipeline.CompareModeEqual:
		return wgpu.CompareFunctionEqual
	case pipeline.CompareModeGreater:
		return wgpu.CompareFunctionGreater
	default:
		return wgpu.CompareFunctionAlways
	}
}

func cullMode(c pipeline.CullMode) wgpu.CullMode {
	switch c {
	case pipeline.CullModeFront:
		return wgpu.CullModeFront
	case pipeline.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func topology(t pipeline.Topology) wgpu.PrimitiveTopology {
	switch t {
	case pipeline.TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	case pipeline.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}
