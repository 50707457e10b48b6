package shader

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// QuadVertexKey is the cache key of the built-in textured quad vertex shader.
	QuadVertexKey = "quad.vert"
	// QuadFragmentKey is the cache key of the built-in textured quad fragment shader.
	QuadFragmentKey = "quad.frag"
)

//go:embed quad.vert.wgsl
var quadVertexSource string

//go:embed quad.frag.wgsl
var quadFragmentSource string

// QuadVertexShader parses the built-in vertex shader. It consumes a vec3 position and
// vec2 UV, and places the quad with the model matrix of the MeshTransformations uniform.
//
// Returns:
//   - Shader: the parsed vertex shader
//   - error: only if the embedded source fails to parse
func QuadVertexShader() (Shader, error) {
	return NewShader(QuadVertexKey, ShaderTypeVertex, quadVertexSource)
}

// QuadFragmentShader parses the built-in fragment shader, a straight texture sample of u_texture.
//
// Returns:
//   - Shader: the parsed fragment shader
//   - error: only if the embedded source fails to parse
func QuadFragmentShader() (Shader, error) {
	return NewShader(QuadFragmentKey, ShaderTypeFragment, quadFragmentSource)
}

// EvalQuadVertex computes on the CPU the clip-space position the quad vertex shader emits
// for a single input position. The Y component is negated before the model matrix applies
// and the depth is remapped from [-w, w] to [0, w].
//
// Parameters:
//   - model: the mesh's model matrix
//   - position: the vertex position as stored in the vertex buffer
//
// Returns:
//   - mgl32.Vec4: the clip-space position
func EvalQuadVertex(model mgl32.Mat4, position [3]float32) mgl32.Vec4 {
	pos := model.Mul4x1(mgl32.Vec4{position[0], position[1] * -1.0, position[2], 1.0})
	pos[2] = (pos[2] + pos[3]) * 0.5
	return pos
}
