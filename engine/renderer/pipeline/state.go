package pipeline

import "github.com/Carmen-Shannon/oxy-sprites/engine/renderer/shader"

// VertexInfo describes the interleaved layout of one vertex in a vertex buffer.
// Attributes are packed in the order they are added.
type VertexInfo struct {
	attrs  []shader.VertexAttribute
	stride uint64
}

// NewVertexInfo returns an empty VertexInfo. Use Attr to append attributes.
func NewVertexInfo() VertexInfo {
	return VertexInfo{}
}

// Attr appends an attribute at the given shader location. Its offset is the current stride.
//
// Parameters:
//   - location: the @location index the attribute feeds
//   - format: the attribute's vertex format
//
// Returns:
//   - VertexInfo: a copy of the info with the attribute appended
func (v VertexInfo) Attr(location uint32, format shader.VertexFormat) VertexInfo {
	attrs := make([]shader.VertexAttribute, len(v.attrs), len(v.attrs)+1)
	copy(attrs, v.attrs)
	attrs = append(attrs, shader.VertexAttribute{
		Location: location,
		Format:   format,
		Offset:   v.stride,
	})
	return VertexInfo{attrs: attrs, stride: v.stride + format.Size()}
}

// Attributes returns the attributes in buffer order.
func (v VertexInfo) Attributes() []shader.VertexAttribute {
	return v.attrs
}

// Stride returns the byte size of one vertex.
func (v VertexInfo) Stride() uint64 {
	return v.stride
}

// matches reports whether the layout feeds exactly the given shader inputs.
func (v VertexInfo) matches(inputs []shader.VertexAttribute, stride uint64) bool {
	if len(v.attrs) != len(inputs) || v.stride != stride {
		return false
	}
	for i, a := range v.attrs {
		in := inputs[i]
		if a.Location != in.Location || a.Format != in.Format || a.Offset != in.Offset {
			return false
		}
	}
	return true
}

// BlendFactor is a multiplier applied to the source or destination color in a blend equation.
type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
)

// BlendOperation combines the weighted source and destination.
type BlendOperation int

const (
	BlendOperationAdd BlendOperation = iota
	BlendOperationSubtract
)

// BlendComponent is one blend equation: Src*SrcFactor Op Dst*DstFactor.
type BlendComponent struct {
	SrcFactor BlendFactor
	DstFactor BlendFactor
	Operation BlendOperation
}

// BlendMode holds the color and alpha blend equations of a color target.
type BlendMode struct {
	Color BlendComponent
	Alpha BlendComponent
}

var (
	// BlendModeNormal is standard alpha blending: src*srcAlpha + dst*(1-srcAlpha).
	BlendModeNormal = BlendMode{
		Color: BlendComponent{SrcFactor: BlendFactorSrcAlpha, DstFactor: BlendFactorOneMinusSrcAlpha, Operation: BlendOperationAdd},
		Alpha: BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorOneMinusSrcAlpha, Operation: BlendOperationAdd},
	}

	// BlendModeReplace overwrites the destination with the source.
	BlendModeReplace = BlendMode{
		Color: BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorZero, Operation: BlendOperationAdd},
		Alpha: BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorZero, Operation: BlendOperationAdd},
	}
)

// CompareMode is the depth comparison function. The zero value always passes.
type CompareMode int

const (
	CompareModeAlways CompareMode = iota
	CompareModeNever
	CompareModeLess
	CompareModeLessEqual
	CompareModeEqual
	CompareModeGreater
)

// DepthStencil configures the depth test of a pipeline.
type DepthStencil struct {
	// Write enables depth writes for fragments that pass the test.
	Write bool
	// Compare is the depth test function.
	Compare CompareMode
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// Topology selects how vertices are assembled into primitives.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
)

// UniformBlock is a named uniform struct resolved to its shader binding.
type UniformBlock struct {
	Name    string
	Group   uint32
	Binding uint32
	Size    uint64
}
