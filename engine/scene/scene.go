package scene

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/loader"
	"github.com/Carmen-Shannon/oxy-sprites/engine/mesh"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultPipelineKey is the key the scene registers its pipeline under.
	DefaultPipelineKey = "textured_quad"
	// TextureSlotName is the fragment shader texture bound at slot 0.
	TextureSlotName = "u_texture"
)

// MeshSpec describes one mesh of the scene.
type MeshSpec struct {
	Path        string
	Scale       mgl32.Vec3
	Translation mgl32.Vec3
}

// DefaultMeshes returns the two icons the scene shows when no meshes are configured.
func DefaultMeshes() []MeshSpec {
	return []MeshSpec{
		{
			Path:        "./assets/icon_ethenium.png",
			Scale:       mgl32.Vec3{0.1, 0.11, 0.1},
			Translation: mgl32.Vec3{-0.11, -0.01, -0.04},
		},
		{
			Path:        "./assets/icon_voice.png",
			Scale:       mgl32.Vec3{0.09, 0.09, 0.1},
			Translation: mgl32.Vec3{-0.026, -0.0025, 0.0012},
		},
	}
}

type scene struct {
	mu *sync.Mutex

	name        string
	pipelineKey string
	specs       []MeshSpec

	vertexShader, fragmentShader shader.Shader

	pipeline pipeline.Pipeline
	meshes   []mesh.Mesh

	// reported holds the indices of meshes whose failure has already been logged
	reported map[int]bool
}

// Scene defines a pipeline and the ordered list of meshes drawn with it each frame.
type Scene interface {
	// Name returns the scene's name.
	Name() string

	// Pipeline returns the registered pipeline every mesh is drawn with.
	Pipeline() pipeline.Pipeline

	// Meshes returns the meshes in draw order.
	Meshes() []mesh.Mesh

	// Render writes each mesh's transform into its uniform buffer and draws it, in order.
	// A failing mesh does not stop the meshes after it. Each mesh's first failure is logged.
	//
	// Parameters:
	//   - r: the renderer, inside BeginFrame/EndFrame
	//
	// Returns:
	//   - error: the joined failures of this frame, or nil
	Render(r renderer.Renderer) error
}

var _ Scene = &scene{}

// NewScene builds the textured quad pipeline, registers it with r, and creates the configured meshes
// in order. Mesh textures start loading through assets and are drawn once ready.
//
// Parameters:
//   - r: the renderer that owns the pipeline and mesh buffers
//   - assets: the loader that decodes mesh textures
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
//   - error: error if the shaders, the pipeline, or any mesh cannot be created
func NewScene(r renderer.Renderer, assets loader.Loader, options ...SceneBuilderOption) (Scene, error) {
	s := &scene{
		mu:          &sync.Mutex{},
		name:        "sprites",
		pipelineKey: DefaultPipelineKey,
		specs:       DefaultMeshes(),
		reported:    make(map[int]bool),
	}
	for _, option := range options {
		option(s)
	}

	if err := s.loadShaders(); err != nil {
		return nil, err
	}

	p := pipeline.NewPipeline(s.pipelineKey,
		pipeline.WithVertexShader(s.vertexShader),
		pipeline.WithFragmentShader(s.fragmentShader),
		pipeline.WithVertexInfo(pipeline.NewVertexInfo().
			Attr(0, shader.VertexFormatFloat32x3). // positions
			Attr(1, shader.VertexFormatFloat32x2)), // uvs
		pipeline.WithColorBlend(pipeline.BlendModeNormal),
		pipeline.WithTextureLocation(0, TextureSlotName),
		pipeline.WithUniformBlock(mesh.UniformBlockName),
		pipeline.WithDepthStencil(pipeline.DepthStencil{
			Write:   true,
			Compare: pipeline.CompareModeLess,
		}),
	)
	if err := r.RegisterPipeline(p); err != nil {
		return nil, fmt.Errorf("failed to register pipeline %s: %w", s.pipelineKey, err)
	}
	// A pipeline registered earlier under the same key wins.
	s.pipeline = r.Pipeline(s.pipelineKey)

	for i, spec := range s.specs {
		m, err := mesh.NewMesh(r, assets, spec.Path, spec.Scale, spec.Translation)
		if err != nil {
			return nil, fmt.Errorf("scene %s mesh %d: %w", s.name, i, err)
		}
		s.meshes = append(s.meshes, m)
	}

	log.Printf("[Scene] %s: %d meshes on pipeline %s", s.name, len(s.meshes), s.pipelineKey)
	return s, nil
}

// Render draws s with r and logs failures once per mesh. It is the per-frame draw callback.
//
// Parameters:
//   - r: the renderer, inside BeginFrame/EndFrame
//   - s: the scene to draw
func Render(r renderer.Renderer, s Scene) {
	_ = s.Render(r)
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Pipeline() pipeline.Pipeline {
	return s.pipeline
}

func (s *scene) Meshes() []mesh.Mesh {
	return s.meshes
}

func (s *scene) Render(r renderer.Renderer) error {
	var errs []error
	for i, m := range s.meshes {
		data := m.TransformData()
		if err := r.WriteBuffer(m.UniformBuffer(), common.StructToBytes(&data)); err != nil {
			errs = append(errs, s.report(i, m, fmt.Errorf("write transform: %w", err)))
			continue
		}
		if err := m.Draw(s.pipeline, r); err != nil {
			errs = append(errs, s.report(i, m, fmt.Errorf("draw: %w", err)))
		}
	}
	return errors.Join(errs...)
}

func (s *scene) report(i int, m mesh.Mesh, err error) error {
	err = fmt.Errorf("mesh %s: %w", m.Label(), err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.reported[i] {
		s.reported[i] = true
		log.Printf("[Scene] %s: %v", s.name, err)
	}
	return err
}

func (s *scene) loadShaders() error {
	var err error
	if s.vertexShader == nil {
		if s.vertexShader, err = shader.QuadVertexShader(); err != nil {
			return fmt.Errorf("failed to load vertex shader: %w", err)
		}
	}
	if s.fragmentShader == nil {
		if s.fragmentShader, err = shader.QuadFragmentShader(); err != nil {
			return fmt.Errorf("failed to load fragment shader: %w", err)
		}
	}
	return nil
}
