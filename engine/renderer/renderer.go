package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
)

var (
	// ErrPassNotBegun is returned when a command is recorded outside Begin/End.
	ErrPassNotBegun = errors.New("render pass not begun")
	// ErrPassNotEnded is returned when a command list is submitted before End.
	ErrPassNotEnded = errors.New("render pass not ended")
	// ErrPassAlreadyBegun is returned when Begin is called twice on one command list.
	ErrPassAlreadyBegun = errors.New("render pass already begun")
	// ErrNoPipeline is returned when a draw has no pipeline or the pipeline is not registered.
	ErrNoPipeline = errors.New("no pipeline")
	// ErrNoFrame is returned when Render or EndFrame is called outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("no frame in progress")
	// ErrFrameInProgress is returned when BeginFrame is called twice without EndFrame.
	ErrFrameInProgress = errors.New("frame already in progress")
	// ErrMissingBuffer is returned when a draw lacks a buffer its pipeline needs.
	ErrMissingBuffer = errors.New("missing buffer")
	// ErrBufferOverflow is returned when a write or draw exceeds a buffer's size.
	ErrBufferOverflow = errors.New("buffer overflow")
	// ErrInvalidTexture is returned for empty or malformed texture data.
	ErrInvalidTexture = errors.New("invalid texture")
	// ErrUnknownTextureSlot is returned when a texture is bound to a slot the pipeline does not declare.
	ErrUnknownTextureSlot = errors.New("unknown texture slot")
	// ErrReleased is returned for any call after Release.
	ErrReleased = errors.New("renderer released")
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend  RendererBackend
	config   BackendConfig
	released bool

	pipelineCache    map[string]pipeline.Pipeline
	pendingPipelines []pipeline.Pipeline

	nextID  uint64
	inFrame bool
	stats   FrameStats
}

// Renderer defines the graphics boundary used by meshes and scenes.
//
// It creates buffers and textures, registers pipelines, and replays recorded command lists.
// Every call is validated here before it reaches the backend, so the headless and WebGPU
// backends fail in the same way on the same input.
type Renderer interface {
	// CreateVertexBuffer allocates a vertex buffer holding interleaved vertex data.
	//
	// Parameters:
	//   - label: a debug label
	//   - stride: the byte size of one vertex
	//   - data: the vertex bytes, a whole number of strides
	//
	// Returns:
	//   - *Buffer: the buffer handle
	//   - error: an error if data is empty, misaligned or the backend fails
	CreateVertexBuffer(label string, stride uint64, data []byte) (*Buffer, error)

	// CreateIndexBuffer allocates a uint32 index buffer.
	//
	// Parameters:
	//   - label: a debug label
	//   - indices: the triangle-list indices
	//
	// Returns:
	//   - *Buffer: the buffer handle
	//   - error: an error if indices is empty or the backend fails
	CreateIndexBuffer(label string, indices []uint32) (*Buffer, error)

	// CreateUniformBuffer allocates a zero-filled uniform buffer for a named uniform block.
	//
	// Parameters:
	//   - label: a debug label
	//   - block: the uniform block name the buffer feeds (e.g. "MeshTransformations")
	//   - size: the byte size of the block
	//
	// Returns:
	//   - *Buffer: the buffer handle
	//   - error: an error if size is zero or the backend fails
	CreateUniformBuffer(label, block string, size uint64) (*Buffer, error)

	// CreateTexture uploads decoded RGBA pixels to a new 2D texture.
	//
	// Parameters:
	//   - label: a debug label
	//   - staging: the pixel data and dimensions
	//
	// Returns:
	//   - *Texture: the texture handle
	//   - error: a wrapped ErrInvalidTexture if the staging data is malformed, or a backend error
	CreateTexture(label string, staging common.TextureStagingData) (*Texture, error)

	// RegisterPipeline validates a pipeline and compiles it on the backend. Pipelines whose keys
	// are already registered are skipped to avoid duplicate GPU resource creation.
	//
	// Parameters:
	//   - p: the Pipeline to register
	//
	// Returns:
	//   - error: a validation or backend error
	RegisterPipeline(p pipeline.Pipeline) error

	// Pipeline retrieves the registered Pipeline associated with the given key, or nil.
	Pipeline(key string) pipeline.Pipeline

	// WriteBuffer replaces the start of a buffer's contents.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - data: the bytes to write, no longer than the buffer
	//
	// Returns:
	//   - error: a wrapped ErrBufferOverflow if data does not fit
	WriteBuffer(buf *Buffer, data []byte) error

	// CreateCommandList returns an empty command list to record one render pass into.
	CreateCommandList() *CommandList

	// Render validates a recorded command list and submits it to the GPU as one submission.
	// Must be called between BeginFrame and EndFrame.
	//
	// Parameters:
	//   - cl: the recorded command list
	//
	// Returns:
	//   - error: the list's recording error, or a validation or backend error
	Render(cl *CommandList) error

	// BeginFrame acquires the frame target and clears it to the configured clear color.
	// Must be paired with EndFrame.
	BeginFrame() error

	// EndFrame presents the frame.
	EndFrame() error

	// Resize configures the backend for a new surface size. Zero sizes (a minimized window) are ignored.
	Resize(width, height int) error

	// SetPresentMode changes the present mode. A Resize is required for it to take effect.
	SetPresentMode(mode PresentMode)

	// Stats returns the cumulative counters.
	Stats() FrameStats

	// Release frees every backend resource. The renderer is unusable afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer over the backend produced by factory. Options are applied first
// so the factory sees the final configuration; pipelines passed via WithPipeline are registered
// once the backend exists.
//
// Parameters:
//   - factory: creates the backend, e.g. the WebGPU backend or a headless recorder
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured renderer
//   - error: an error if the backend or a pipeline could not be created
func NewRenderer(factory BackendFactory, options ...RendererBuilderOption) (Renderer, error) {
	return newRenderer(factory, options...)
}

func newRenderer(factory BackendFactory, options ...RendererBuilderOption) (*renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		config: BackendConfig{
			Width:       800,
			Height:      600,
			PresentMode: PresentModeVSync,
			MSAA:        MSAA4x,
		},
	}

	for _, opt := range options {
		opt(r)
	}

	backend, err := factory(r.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer backend: %w", err)
	}
	r.backend = backend
	r.backend.SetPresentMode(r.config.PresentMode)
	if err := r.backend.ConfigureSurface(r.config.Width, r.config.Height); err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("failed to configure surface: %w", err)
	}

	for _, p := range r.pendingPipelines {
		if err := r.RegisterPipeline(p); err != nil {
			r.backend.Release()
			return nil, err
		}
	}
	r.pendingPipelines = nil

	return r, nil
}

func (r *renderer) CreateVertexBuffer(label string, stride uint64, data []byte) (*Buffer, error) {
	if stride == 0 || len(data) == 0 || uint64(len(data))%stride != 0 {
		return nil, fmt.Errorf("vertex buffer %s: %d bytes is not a whole number of %d-byte vertices", label, len(data), stride)
	}
	return r.createBuffer(&Buffer{
		label:  label,
		kind:   BufferKindVertex,
		size:   uint64(len(data)),
		count:  uint32(uint64(len(data)) / stride),
		stride: stride,
	}, data)
}

func (r *renderer) CreateIndexBuffer(label string, indices []uint32) (*Buffer, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("index buffer %s: no indices", label)
	}
	return r.createBuffer(&Buffer{
		label:  label,
		kind:   BufferKindIndex,
		size:   uint64(len(indices)) * 4,
		count:  uint32(len(indices)),
		stride: 4,
	}, common.SliceToBytes(indices))
}

func (r *renderer) CreateUniformBuffer(label, block string, size uint64) (*Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("uniform buffer %s: zero size", label)
	}
	return r.createBuffer(&Buffer{
		label:  label,
		kind:   BufferKindUniform,
		size:   size,
		count:  1,
		stride: size,
		block:  block,
	}, nil)
}

func (r *renderer) createBuffer(buf *Buffer, data []byte) (*Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return nil, ErrReleased
	}
	r.nextID++
	buf.id = r.nextID
	if err := r.backend.CreateBuffer(buf, data); err != nil {
		return nil, fmt.Errorf("failed to create %s buffer %s: %w", buf.kind, buf.label, err)
	}
	return buf, nil
}

func (r *renderer) CreateTexture(label string, staging common.TextureStagingData) (*Texture, error) {
	if !staging.Valid() {
		return nil, fmt.Errorf("texture %s: %w: %dx%d with %d bytes", label, ErrInvalidTexture, staging.Width, staging.Height, len(staging.Pixels))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return nil, ErrReleased
	}
	r.nextID++
	tex := &Texture{
		id:     r.nextID,
		label:  label,
		width:  staging.Width,
		height: staging.Height,
	}
	if err := r.backend.CreateTexture(tex, staging); err != nil {
		return nil, fmt.Errorf("failed to create texture %s: %w", label, err)
	}
	r.stats.TextureUploads++
	return tex, nil
}

func (r *renderer) RegisterPipeline(p pipeline.Pipeline) error {
	if p == nil {
		return ErrNoPipeline
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	key := p.PipelineKey()
	if _, exists := r.pipelineCache[key]; exists {
		return nil
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := r.backend.RegisterPipeline(p); err != nil {
		return fmt.Errorf("failed to register pipeline %s: %w", key, err)
	}
	r.pipelineCache[key] = p
	return nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) WriteBuffer(buf *Buffer, data []byte) error {
	if buf == nil {
		return ErrMissingBuffer
	}
	if uint64(len(data)) > buf.size {
		return fmt.Errorf("buffer %s: %w: %d bytes into %d", buf.label, ErrBufferOverflow, len(data), buf.size)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	if err := r.backend.WriteBuffer(buf, data); err != nil {
		return fmt.Errorf("failed to write buffer %s: %w", buf.label, err)
	}
	r.stats.BufferWrites++
	return nil
}

func (r *renderer) CreateCommandList() *CommandList {
	return NewCommandList()
}

func (r *renderer) Render(cl *CommandList) error {
	if cl == nil {
		return ErrPassNotBegun
	}
	if err := cl.Err(); err != nil {
		return err
	}
	if !cl.Ended() {
		if len(cl.Commands()) == 0 {
			return ErrPassNotBegun
		}
		return ErrPassNotEnded
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	if !r.inFrame {
		return ErrNoFrame
	}

	draws, indices, err := r.validateCommands(cl.Commands())
	if err != nil {
		return err
	}
	if err := r.backend.Submit(cl.Commands()); err != nil {
		return fmt.Errorf("failed to submit command list: %w", err)
	}

	r.stats.Submissions++
	r.stats.DrawCalls += draws
	r.stats.IndicesDrawn += indices
	return nil
}

// validateCommands replays the bind state of a command list and checks every draw has a
// registered pipeline, a vertex and index buffer, a buffer for each uniform block, and an
// index range inside the bound index buffer.
func (r *renderer) validateCommands(cmds []Command) (draws, indices uint64, err error) {
	var (
		current  pipeline.Pipeline
		vertex   *Buffer
		index    *Buffer
		uniforms = make(map[string]*Buffer)
	)

	for _, cmd := range cmds {
		switch cmd.Type {
		case CommandSetPipeline:
			registered, ok := r.pipelineCache[cmd.Pipeline.PipelineKey()]
			if !ok || registered != cmd.Pipeline {
				return 0, 0, fmt.Errorf("%w: pipeline %s is not registered", ErrNoPipeline, cmd.Pipeline.PipelineKey())
			}
			current = cmd.Pipeline
		case CommandBindBuffers:
			for _, b := range cmd.Buffers {
				switch b.kind {
				case BufferKindVertex:
					vertex = b
				case BufferKindIndex:
					index = b
				case BufferKindUniform:
					uniforms[b.block] = b
				}
			}
		case CommandDraw:
			if current == nil {
				return 0, 0, ErrNoPipeline
			}
			if vertex == nil {
				return 0, 0, fmt.Errorf("%w: no vertex buffer bound", ErrMissingBuffer)
			}
			if index == nil {
				return 0, 0, fmt.Errorf("%w: no index buffer bound", ErrMissingBuffer)
			}
			for _, block := range current.UniformBlocks() {
				u, ok := uniforms[block.Name]
				if !ok {
					return 0, 0, fmt.Errorf("%w: no buffer bound for uniform block %s", ErrMissingBuffer, block.Name)
				}
				if u.size < block.Size {
					return 0, 0, fmt.Errorf("%w: uniform block %s needs %d bytes, buffer %s has %d", ErrBufferOverflow, block.Name, block.Size, u.label, u.size)
				}
			}
			if uint64(cmd.Offset)+uint64(cmd.Count) > uint64(index.count) {
				return 0, 0, fmt.Errorf("%w: draw of %d indices at %d exceeds %d", ErrBufferOverflow, cmd.Count, cmd.Offset, index.count)
			}
			draws++
			indices += uint64(cmd.Count)
		}
	}
	return draws, indices, nil
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	if r.inFrame {
		return ErrFrameInProgress
	}
	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	r.inFrame = true
	return nil
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return ErrNoFrame
	}
	r.inFrame = false
	if err := r.backend.EndFrame(); err != nil {
		return err
	}
	r.stats.Frames++
	return nil
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	r.config.Width = width
	r.config.Height = height
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config.PresentMode = mode
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.backend.Release()
}
