package pipeline

import (
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex shader for this pipeline.
//
// Parameters:
//   - s: the vertex shader to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex shader for this pipeline
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment shader for this pipeline.
//
// Parameters:
//   - s: the fragment shader to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment shader for this pipeline
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithVertexInfo sets the vertex buffer layout. It must match the vertex shader's inputs.
//
// Parameters:
//   - info: the interleaved vertex layout
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex info for this pipeline
func WithVertexInfo(info VertexInfo) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexInfo = info
	}
}

// WithColorBlend enables blending with the given blend mode.
//
// Parameters:
//   - mode: the blend equations, e.g. BlendModeNormal
//
// Returns:
//   - PipelineBuilderOption: a function that enables blending for this pipeline
func WithColorBlend(mode BlendMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = true
		p.blendMode = mode
	}
}

// WithBlendEnabled sets whether blending is enabled for this pipeline.
//
// Parameters:
//   - enabled: a boolean indicating whether blending should be enabled
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend enabled state for this pipeline
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithDepthStencil sets the depth test configuration.
//
// Parameters:
//   - ds: the depth write flag and comparison function
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth stencil state for this pipeline
func WithDepthStencil(ds DepthStencil) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthStencil = ds
	}
}

// WithCullMode sets the cull mode for this pipeline.
//
// Parameters:
//   - mode: the cull mode to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(mode CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology for this pipeline.
//
// Parameters:
//   - topology: the primitive topology to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the primitive topology for this pipeline
func WithTopology(topology Topology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithTextureLocation names the texture variable bound at a texture slot.
//
// Parameters:
//   - slot: the slot index passed to BindTexture
//   - name: the texture variable name in the shader source
//
// Returns:
//   - PipelineBuilderOption: a function that declares the texture slot
func WithTextureLocation(slot uint32, name string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.textureLocations[slot] = name
	}
}

// WithUniformBlock declares a uniform block by struct or variable name. It is resolved
// to its group, binding and size by Validate.
//
// Parameters:
//   - name: the uniform struct or variable name
//
// Returns:
//   - PipelineBuilderOption: a function that declares the uniform block
func WithUniformBlock(name string) PipelineBuilderOption {
	return func(p *pipeline) {
		for _, existing := range p.uniformNames {
			if existing == name {
				return
			}
		}
		p.uniformNames = append(p.uniformNames, name)
	}
}
