package scene

import "github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the name used in log lines.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithMeshes replaces the default meshes. An empty list keeps the defaults.
//
// Parameters:
//   - specs: the meshes in draw order
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMeshes(specs ...MeshSpec) SceneBuilderOption {
	return func(s *scene) {
		if len(specs) > 0 {
			s.specs = append([]MeshSpec(nil), specs...)
		}
	}
}

// WithShaders replaces the embedded quad shaders. Either may be nil to keep the default.
// The replacements must keep the quad's vertex inputs, the u_texture binding and the
// MeshTransformations uniform block.
func WithShaders(vertexShader, fragmentShader shader.Shader) SceneBuilderOption {
	return func(s *scene) {
		s.vertexShader = vertexShader
		s.fragmentShader = fragmentShader
	}
}

// WithPipelineKey sets the key the pipeline is registered under.
func WithPipelineKey(key string) SceneBuilderOption {
	return func(s *scene) {
		if key != "" {
			s.pipelineKey = key
		}
	}
}
