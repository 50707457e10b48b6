package mesh

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/loader"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// UniformBlockName is the shader uniform block that receives the mesh transform.
const UniformBlockName = "MeshTransformations"

// TransformSize is the byte size of the transform uniform: one column-major 4x4 float matrix.
const TransformSize = 16 * 4

// Vertex is one interleaved quad vertex: position at location 0, UV at location 1.
type Vertex struct {
	Position [3]float32
	UV       [2]float32
}

// VertexStride is the byte size of one Vertex.
const VertexStride = 5 * 4

// QuadVertices returns the four corners of the unit quad spanning [-1, 1] in X and Y.
func QuadVertices() []Vertex {
	return []Vertex{
		{Position: [3]float32{-1, -1, 0}, UV: [2]float32{0, 0}},
		{Position: [3]float32{-1, 1, 0}, UV: [2]float32{0, 1}},
		{Position: [3]float32{1, 1, 0}, UV: [2]float32{1, 1}},
		{Position: [3]float32{1, -1, 0}, UV: [2]float32{1, 0}},
	}
}

// QuadIndices returns the two triangles of the quad.
func QuadIndices() []uint32 {
	return []uint32{0, 1, 2, 2, 3, 0}
}

type mesh struct {
	label string

	vertices []Vertex
	indices  []uint32

	vertexBuffer  *renderer.Buffer
	indexBuffer   *renderer.Buffer
	uniformBuffer *renderer.Buffer

	assets      loader.Loader
	texture     loader.AssetID
	textureSlot uint32

	scale       mgl32.Vec3
	rotation    mgl32.Quat
	translation mgl32.Vec3
	transform   mgl32.Mat4
}

// Mesh defines a textured quad with its own GPU buffers and transform.
type Mesh interface {
	// Label returns the name used for the mesh's GPU resources.
	Label() string

	// Vertices returns the quad's vertex data.
	Vertices() []Vertex

	// Indices returns the quad's index data.
	Indices() []uint32

	// VertexBuffer returns the GPU vertex buffer.
	VertexBuffer() *renderer.Buffer

	// IndexBuffer returns the GPU index buffer.
	IndexBuffer() *renderer.Buffer

	// UniformBuffer returns the GPU buffer holding the transform.
	UniformBuffer() *renderer.Buffer

	// TextureAsset returns the handle of the mesh's texture.
	TextureAsset() loader.AssetID

	// Scale returns the per-axis scale.
	Scale() mgl32.Vec3

	// Rotation returns the orientation.
	Rotation() mgl32.Quat

	// Translation returns the offset.
	Translation() mgl32.Vec3

	// SetScale sets the per-axis scale and recomputes the transform.
	SetScale(scale mgl32.Vec3)

	// SetRotation sets the orientation and recomputes the transform.
	SetRotation(rotation mgl32.Quat)

	// SetTranslation sets the offset and recomputes the transform.
	SetTranslation(translation mgl32.Vec3)

	// Transform returns the model matrix: translation * rotation * scale.
	Transform() mgl32.Mat4

	// TransformData returns the model matrix as 16 column-major floats.
	TransformData() [16]float32

	// ClipPositions returns each vertex transformed the way the quad vertex shader transforms it.
	ClipPositions() []mgl32.Vec4

	// Draw records one render pass drawing this mesh with p and submits it.
	// The texture is bound only once its asset is ready; until then the pipeline's
	// texture slot is left unbound.
	//
	// Parameters:
	//   - p: the registered pipeline to draw with
	//   - r: the renderer to submit to
	//
	// Returns:
	//   - error: error if recording or submission fails
	Draw(p pipeline.Pipeline, r renderer.Renderer) error
}

var _ Mesh = &mesh{}

// NewMesh creates a textured quad, starts loading its texture and creates its GPU buffers.
//
// Parameters:
//   - r: the renderer that owns the buffers
//   - assets: the loader that decodes the texture
//   - path: the texture file
//   - scale: the per-axis scale
//   - translation: the offset
//   - options: functional options applied before any resource is created
//
// Returns:
//   - Mesh: the new mesh
//   - error: error if the texture cannot start loading or a buffer cannot be created
func NewMesh(r renderer.Renderer, assets loader.Loader, path string, scale, translation mgl32.Vec3, options ...MeshBuilderOption) (Mesh, error) {
	m := &mesh{
		label:       strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		vertices:    QuadVertices(),
		indices:     QuadIndices(),
		assets:      assets,
		scale:       scale,
		rotation:    mgl32.QuatIdent(),
		translation: translation,
	}
	for _, option := range options {
		option(m)
	}
	m.updateTransform()

	id, err := assets.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load texture for mesh %s: %w", m.label, err)
	}
	m.texture = id

	m.vertexBuffer, err = r.CreateVertexBuffer(m.label, VertexStride, common.SliceToBytes(m.vertices))
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex buffer for mesh %s: %w", m.label, err)
	}
	m.indexBuffer, err = r.CreateIndexBuffer(m.label, m.indices)
	if err != nil {
		return nil, fmt.Errorf("failed to create index buffer for mesh %s: %w", m.label, err)
	}
	m.uniformBuffer, err = r.CreateUniformBuffer(m.label, UniformBlockName, TransformSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create uniform buffer for mesh %s: %w", m.label, err)
	}

	return m, nil
}

func (m *mesh) Label() string {
	return m.label
}

func (m *mesh) Vertices() []Vertex {
	return m.vertices
}

func (m *mesh) Indices() []uint32 {
	return m.indices
}

func (m *mesh) VertexBuffer() *renderer.Buffer {
	return m.vertexBuffer
}

func (m *mesh) IndexBuffer() *renderer.Buffer {
	return m.indexBuffer
}

func (m *mesh) UniformBuffer() *renderer.Buffer {
	return m.uniformBuffer
}

func (m *mesh) TextureAsset() loader.AssetID {
	return m.texture
}

func (m *mesh) Scale() mgl32.Vec3 {
	return m.scale
}

func (m *mesh) Rotation() mgl32.Quat {
	return m.rotation
}

func (m *mesh) Translation() mgl32.Vec3 {
	return m.translation
}

func (m *mesh) SetScale(scale mgl32.Vec3) {
	m.scale = scale
	m.updateTransform()
}

func (m *mesh) SetRotation(rotation mgl32.Quat) {
	m.rotation = rotation
	m.updateTransform()
}

func (m *mesh) SetTranslation(translation mgl32.Vec3) {
	m.translation = translation
	m.updateTransform()
}

func (m *mesh) Transform() mgl32.Mat4 {
	return m.transform
}

func (m *mesh) TransformData() [16]float32 {
	return common.FlattenMat4(m.transform)
}

func (m *mesh) ClipPositions() []mgl32.Vec4 {
	out := make([]mgl32.Vec4, len(m.vertices))
	for i, v := range m.vertices {
		out[i] = shader.EvalQuadVertex(m.transform, v.Position)
	}
	return out
}

func (m *mesh) Draw(p pipeline.Pipeline, r renderer.Renderer) error {
	cl := r.CreateCommandList()
	cl.Begin(nil)
	cl.SetPipeline(p)
	if tex, ok := m.assets.Texture(m.texture); ok {
		cl.BindTexture(m.textureSlot, tex)
	}
	cl.BindBuffers(m.vertexBuffer, m.indexBuffer, m.uniformBuffer)
	cl.Draw(0, uint32(len(m.indices)))
	cl.End()

	return r.Render(cl)
}

func (m *mesh) updateTransform() {
	m.transform = common.ComposeTransform(m.scale, m.rotation, m.translation)
}
