package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer/pipeline"
)

// Submission is one command list accepted by the headless backend.
type Submission struct {
	// Frame is the zero-based index of the frame the submission belongs to.
	Frame    uint64
	Commands []Command
}

// BufferWrite is one recorded WriteBuffer call.
type BufferWrite struct {
	Buffer *Buffer
	Data   []byte
}

// HeadlessRenderer is a Renderer that keeps everything in memory instead of talking to a GPU.
// It records every submission, buffer write and texture upload so they can be inspected.
type HeadlessRenderer interface {
	Renderer

	// Submissions returns every accepted command list in submission order.
	Submissions() []Submission

	// Writes returns every buffer write in call order.
	Writes() []BufferWrite

	// BufferData returns the current contents of a buffer, or nil if it is unknown.
	BufferData(buf *Buffer) []byte

	// TextureData returns the pixels uploaded for a texture.
	TextureData(tex *Texture) (common.TextureStagingData, bool)

	// RegisteredPipelines returns the keys of every pipeline compiled by the backend, in order.
	RegisteredPipelines() []string

	// SurfaceSize returns the size of the last surface configuration.
	SurfaceSize() (int, int)

	// Reset clears recorded submissions and writes. Buffers, textures and pipelines are kept.
	Reset()
}

type headlessRenderer struct {
	*renderer
	rec *headlessBackend
}

var _ HeadlessRenderer = &headlessRenderer{}

// NewHeadlessRenderer creates a Renderer backed by an in-memory recorder.
//
// Parameters:
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - HeadlessRenderer: the recording renderer
//   - error: an error only if a pipeline passed via WithPipeline fails validation
func NewHeadlessRenderer(options ...RendererBuilderOption) (HeadlessRenderer, error) {
	rec := newHeadlessBackend()
	r, err := newRenderer(func(BackendConfig) (RendererBackend, error) { return rec, nil }, options...)
	if err != nil {
		return nil, err
	}
	return &headlessRenderer{renderer: r, rec: rec}, nil
}

func (h *headlessRenderer) Submissions() []Submission {
	return h.rec.submissionsCopy()
}

func (h *headlessRenderer) Writes() []BufferWrite {
	return h.rec.writesCopy()
}

func (h *headlessRenderer) BufferData(buf *Buffer) []byte {
	return h.rec.bufferData(buf)
}

func (h *headlessRenderer) TextureData(tex *Texture) (common.TextureStagingData, bool) {
	return h.rec.textureData(tex)
}

func (h *headlessRenderer) RegisteredPipelines() []string {
	return h.rec.pipelinesCopy()
}

func (h *headlessRenderer) SurfaceSize() (int, int) {
	return h.rec.surfaceSize()
}

func (h *headlessRenderer) Reset() {
	h.rec.reset()
}

// headlessBackend is a RendererBackend that records into memory.
type headlessBackend struct {
	mu *sync.Mutex

	width, height int
	presentMode   PresentMode

	buffers     map[uint64][]byte
	textures    map[uint64]common.TextureStagingData
	pipelines   []string
	submissions []Submission
	writes      []BufferWrite

	frame   uint64
	inFrame bool
}

var _ RendererBackend = &headlessBackend{}

func newHeadlessBackend() *headlessBackend {
	return &headlessBackend{
		mu:       &sync.Mutex{},
		buffers:  make(map[uint64][]byte),
		textures: make(map[uint64]common.TextureStagingData),
	}
}

func (b *headlessBackend) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
	return nil
}

func (b *headlessBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *headlessBackend) CreateBuffer(buf *Buffer, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	contents := make([]byte, buf.Size())
	copy(contents, data)
	b.buffers[buf.ID()] = contents
	return nil
}

func (b *headlessBackend) WriteBuffer(buf *Buffer, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	contents, ok := b.buffers[buf.ID()]
	if !ok {
		return ErrMissingBuffer
	}
	copy(contents, data)
	recorded := make([]byte, len(data))
	copy(recorded, data)
	b.writes = append(b.writes, BufferWrite{Buffer: buf, Data: recorded})
	return nil
}

func (b *headlessBackend) CreateTexture(tex *Texture, staging common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	pixels := make([]byte, len(staging.Pixels))
	copy(pixels, staging.Pixels)
	b.textures[tex.ID()] = common.TextureStagingData{Pixels: pixels, Width: staging.Width, Height: staging.Height}
	return nil
}

func (b *headlessBackend) RegisterPipeline(p pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pipelines = append(b.pipelines, p.PipelineKey())
	p.SetNative(p.PipelineKey())
	return nil
}

func (b *headlessBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFrame = true
	return nil
}

func (b *headlessBackend) Submit(commands []Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	recorded := make([]Command, len(commands))
	copy(recorded, commands)
	b.submissions = append(b.submissions, Submission{Frame: b.frame, Commands: recorded})
	return nil
}

func (b *headlessBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFrame = false
	b.frame++
	return nil
}

func (b *headlessBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffers = make(map[uint64][]byte)
	b.textures = make(map[uint64]common.TextureStagingData)
}

func (b *headlessBackend) submissionsCopy() []Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Submission, len(b.submissions))
	copy(out, b.submissions)
	return out
}

func (b *headlessBackend) writesCopy() []BufferWrite {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BufferWrite, len(b.writes))
	copy(out, b.writes)
	return out
}

func (b *headlessBackend) bufferData(buf *Buffer) []byte {
	if buf == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	contents, ok := b.buffers[buf.ID()]
	if !ok {
		return nil
	}
	out := make([]byte, len(contents))
	copy(out, contents)
	return out
}

func (b *headlessBackend) textureData(tex *Texture) (common.TextureStagingData, bool) {
	if tex == nil {
		return common.TextureStagingData{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.textures[tex.ID()]
	return data, ok
}

func (b *headlessBackend) pipelinesCopy() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.pipelines))
	copy(out, b.pipelines)
	return out
}

func (b *headlessBackend) surfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *headlessBackend) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submissions = nil
	b.writes = nil
}
