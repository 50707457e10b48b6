package renderer

// BufferKind identifies how a GPU buffer is bound during a draw.
type BufferKind int

const (
	// BufferKindVertex holds interleaved vertex data.
	BufferKindVertex BufferKind = iota
	// BufferKindIndex holds uint32 triangle-list indices.
	BufferKindIndex
	// BufferKindUniform holds a single uniform block.
	BufferKindUniform
)

func (k BufferKind) String() string {
	switch k {
	case BufferKindVertex:
		return "vertex"
	case BufferKindIndex:
		return "index"
	case BufferKindUniform:
		return "uniform"
	default:
		return "unknown"
	}
}

// Buffer is a handle to a GPU buffer created by a Renderer. The handle is owned by whoever created it;
// the backing memory lives in the renderer's backend until Release.
type Buffer struct {
	id     uint64
	label  string
	kind   BufferKind
	size   uint64
	count  uint32
	stride uint64
	block  string
}

// ID returns the renderer-unique identifier of the buffer. Backends key native objects by it.
func (b *Buffer) ID() uint64 { return b.id }

// Label returns the debug label given at creation.
func (b *Buffer) Label() string { return b.label }

// Kind returns the binding role of the buffer.
func (b *Buffer) Kind() BufferKind { return b.kind }

// Size returns the byte size of the buffer.
func (b *Buffer) Size() uint64 { return b.size }

// Count returns the number of elements: vertices for a vertex buffer, indices for an index
// buffer and 1 for a uniform buffer.
func (b *Buffer) Count() uint32 { return b.count }

// Stride returns the byte size of one element.
func (b *Buffer) Stride() uint64 { return b.stride }

// Block returns the uniform block name a uniform buffer feeds. Empty for other kinds.
func (b *Buffer) Block() string { return b.block }

// Texture is a handle to a 2D RGBA texture uploaded to the GPU.
type Texture struct {
	id     uint64
	label  string
	width  uint32
	height uint32
}

// ID returns the renderer-unique identifier of the texture.
func (t *Texture) ID() uint64 { return t.id }

// Label returns the debug label given at creation.
func (t *Texture) Label() string { return t.label }

// Width returns the texture width in pixels.
func (t *Texture) Width() uint32 { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() uint32 { return t.height }

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float64
}

// FrameStats holds cumulative counters maintained by a Renderer.
type FrameStats struct {
	// Frames is the number of completed BeginFrame/EndFrame pairs.
	Frames uint64
	// Submissions is the number of command lists submitted through Render.
	Submissions uint64
	// DrawCalls is the number of indexed draws across all submissions.
	DrawCalls uint64
	// IndicesDrawn is the total index count across all draws.
	IndicesDrawn uint64
	// BufferWrites is the number of WriteBuffer calls.
	BufferWrites uint64
	// TextureUploads is the number of textures created.
	TextureUploads uint64
}
