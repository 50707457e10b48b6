package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"
)

var (
	// ErrMissingShader is returned when a pipeline lacks its vertex or fragment shader.
	ErrMissingShader = errors.New("missing shader")
	// ErrVertexLayoutMismatch is returned when the vertex info does not feed the vertex shader's inputs.
	ErrVertexLayoutMismatch = errors.New("vertex layout does not match shader inputs")
	// ErrUnknownTextureLocation is returned when a texture location names no texture binding.
	ErrUnknownTextureLocation = errors.New("unknown texture location")
	// ErrUnknownUniformBlock is returned when a uniform block names no uniform binding.
	ErrUnknownUniformBlock = errors.New("unknown uniform block")
)

// pipeline is the implementation of the Pipeline interface.
// It holds the shaders and fixed-function state needed to build a render pipeline on any backend.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	vertexInfo   VertexInfo
	blendEnabled bool
	blendMode    BlendMode
	depthStencil DepthStencil
	cullMode     CullMode
	topology     Topology

	textureLocations map[uint32]string
	uniformNames     []string
	uniformBlocks    map[string]UniformBlock

	// native is the backend's compiled pipeline object, set at registration
	native any
}

// Pipeline defines the interface for a render pipeline: a vertex and fragment shader pair plus
// the fixed-function state (vertex layout, blending, depth test, culling) used for a draw call.
// The description is backend-agnostic; backends compile it when the pipeline is registered.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// VertexInfo returns the vertex buffer layout consumed by this pipeline.
	VertexInfo() VertexInfo

	// BlendEnabled returns whether blending is enabled for this pipeline.
	BlendEnabled() bool

	// BlendMode returns the blend equations used when blending is enabled.
	BlendMode() BlendMode

	// DepthStencil returns the depth test configuration.
	DepthStencil() DepthStencil

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() CullMode

	// Topology returns the primitive topology configured for this pipeline.
	Topology() Topology

	// TextureLocation returns the shader variable name bound to a texture slot.
	//
	// Parameters:
	//   - slot: the texture slot index used by BindTexture
	//
	// Returns:
	//   - string: the texture variable name
	//   - bool: true if the slot is declared
	TextureLocation(slot uint32) (string, bool)

	// TextureLocations returns the declared texture slots in ascending order.
	TextureLocations() []uint32

	// TextureBinding resolves a texture slot to the texture binding and the sampler that
	// accompanies it (the first sampler declared in the same group).
	//
	// Parameters:
	//   - slot: the texture slot index
	//
	// Returns:
	//   - shader.Binding: the texture binding
	//   - shader.Binding: the sampler binding
	//   - bool: true if both were found
	TextureBinding(slot uint32) (shader.Binding, shader.Binding, bool)

	// UniformBlock returns a uniform block resolved by Validate.
	//
	// Parameters:
	//   - name: the uniform struct or variable name
	//
	// Returns:
	//   - UniformBlock: the resolved block
	//   - bool: true if the block is declared and resolved
	UniformBlock(name string) (UniformBlock, bool)

	// UniformBlocks returns every resolved uniform block in declaration order.
	UniformBlocks() []UniformBlock

	// Bindings returns the union of both shaders' resource bindings sorted by group then binding.
	Bindings() []shader.Binding

	// Validate checks that the shaders are present, the vertex info feeds the vertex shader's
	// inputs exactly, and every texture location and uniform block names a matching binding.
	// Uniform blocks are resolved to their group, binding and size.
	//
	// Returns:
	//   - error: a wrapped ErrMissingShader, ErrVertexLayoutMismatch, ErrUnknownTextureLocation or ErrUnknownUniformBlock
	Validate() error

	// Native returns the backend's compiled pipeline object, or nil before registration.
	// Callers type assert it to the backend's type.
	Native() any

	// SetNative stores the backend's compiled pipeline object.
	SetNative(native any)
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline. Depth testing defaults to less-than
// with writes enabled, culling is off and the topology is a triangle list.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:      pipelineKey,
		blendMode:        BlendModeNormal,
		depthStencil:     DepthStencil{Write: true, Compare: CompareModeLess},
		cullMode:         CullModeNone,
		topology:         TopologyTriangleList,
		textureLocations: make(map[uint32]string),
		uniformBlocks:    make(map[string]UniformBlock),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) VertexInfo() VertexInfo {
	return p.vertexInfo
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) BlendMode() BlendMode {
	return p.blendMode
}

func (p *pipeline) DepthStencil() DepthStencil {
	return p.depthStencil
}

func (p *pipeline) CullMode() CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() Topology {
	return p.topology
}

func (p *pipeline) TextureLocation(slot uint32) (string, bool) {
	name, ok := p.textureLocations[slot]
	return name, ok
}

func (p *pipeline) TextureLocations() []uint32 {
	slots := make([]uint32, 0, len(p.textureLocations))
	for slot := range p.textureLocations {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

func (p *pipeline) TextureBinding(slot uint32) (shader.Binding, shader.Binding, bool) {
	name, ok := p.textureLocations[slot]
	if !ok {
		return shader.Binding{}, shader.Binding{}, false
	}
	tex, ok := p.findBinding(name, shader.BindingKindTexture)
	if !ok {
		return shader.Binding{}, shader.Binding{}, false
	}
	for _, b := range p.Bindings() {
		if b.Group == tex.Group && b.Kind == shader.BindingKindSampler {
			return tex, b, true
		}
	}
	return shader.Binding{}, shader.Binding{}, false
}

func (p *pipeline) UniformBlock(name string) (UniformBlock, bool) {
	block, ok := p.uniformBlocks[name]
	return block, ok
}

func (p *pipeline) UniformBlocks() []UniformBlock {
	blocks := make([]UniformBlock, 0, len(p.uniformNames))
	for _, name := range p.uniformNames {
		if block, ok := p.uniformBlocks[name]; ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func (p *pipeline) Bindings() []shader.Binding {
	var out []shader.Binding
	seen := make(map[[2]uint32]bool)
	for _, s := range []shader.Shader{p.vertexShader, p.fragmentShader} {
		if s == nil {
			continue
		}
		for _, b := range s.Bindings() {
			key := [2]uint32{b.Group, b.Binding}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Binding < out[j].Binding
	})
	return out
}

func (p *pipeline) Validate() error {
	if p.vertexShader == nil || p.vertexShader.ShaderType() != shader.ShaderTypeVertex {
		return fmt.Errorf("pipeline %s: %w: vertex", p.pipelineKey, ErrMissingShader)
	}
	if p.fragmentShader == nil || p.fragmentShader.ShaderType() != shader.ShaderTypeFragment {
		return fmt.Errorf("pipeline %s: %w: fragment", p.pipelineKey, ErrMissingShader)
	}

	if !p.vertexInfo.matches(p.vertexShader.VertexInputs(), p.vertexShader.VertexStride()) {
		return fmt.Errorf("pipeline %s: %w: have %v (stride %d), shader %s wants %v (stride %d)",
			p.pipelineKey, ErrVertexLayoutMismatch,
			p.vertexInfo.Attributes(), p.vertexInfo.Stride(),
			p.vertexShader.Key(), p.vertexShader.VertexInputs(), p.vertexShader.VertexStride())
	}

	for _, slot := range p.TextureLocations() {
		if _, _, ok := p.TextureBinding(slot); !ok {
			return fmt.Errorf("pipeline %s: %w: slot %d (%q) has no texture and sampler binding",
				p.pipelineKey, ErrUnknownTextureLocation, slot, p.textureLocations[slot])
		}
	}

	for _, name := range p.uniformNames {
		b, ok := p.findBinding(name, shader.BindingKindUniform)
		if !ok {
			return fmt.Errorf("pipeline %s: %w: %q", p.pipelineKey, ErrUnknownUniformBlock, name)
		}
		p.uniformBlocks[name] = UniformBlock{
			Name:    name,
			Group:   b.Group,
			Binding: b.Binding,
			Size:    b.Size,
		}
	}

	return nil
}

func (p *pipeline) Native() any {
	return p.native
}

func (p *pipeline) SetNative(native any) {
	p.native = native
}

// findBinding looks a name up in the vertex shader first, then the fragment shader.
func (p *pipeline) findBinding(name string, kind shader.BindingKind) (shader.Binding, bool) {
	for _, s := range []shader.Shader{p.vertexShader, p.fragmentShader} {
		if s == nil {
			continue
		}
		if b, ok := s.BindingByName(name); ok && b.Kind == kind {
			return b, true
		}
	}
	return shader.Binding{}, false
}
