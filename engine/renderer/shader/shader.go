package shader

import (
	"fmt"
	"os"
)

// ShaderType identifies which pipeline stage a shader feeds.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// VertexFormat is the layout of a single vertex attribute in the vertex buffer.
type VertexFormat int

const (
	VertexFormatUndefined VertexFormat = iota
	VertexFormatFloat32
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatUint32
	VertexFormatSint32
)

// Size returns the byte size of one attribute of this format.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32, VertexFormatUint32, VertexFormatSint32:
		return 4
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x3:
		return 12
	case VertexFormatFloat32x4:
		return 16
	default:
		return 0
	}
}

func (f VertexFormat) String() string {
	switch f {
	case VertexFormatFloat32:
		return "float32"
	case VertexFormatFloat32x2:
		return "float32x2"
	case VertexFormatFloat32x3:
		return "float32x3"
	case VertexFormatFloat32x4:
		return "float32x4"
	case VertexFormatUint32:
		return "uint32"
	case VertexFormatSint32:
		return "sint32"
	default:
		return "undefined"
	}
}

// VertexAttribute describes one @location input of a vertex shader.
type VertexAttribute struct {
	// Name is the struct field name in the WGSL source. Informational only.
	Name     string
	Location uint32
	Format   VertexFormat
	// Offset is the byte offset of the attribute within one interleaved vertex.
	Offset uint64
}

// BindingKind classifies a @group/@binding resource declaration.
type BindingKind int

const (
	BindingKindUniform BindingKind = iota
	BindingKindStorage
	BindingKindTexture
	BindingKindSampler
)

func (k BindingKind) String() string {
	switch k {
	case BindingKindUniform:
		return "uniform"
	case BindingKindStorage:
		return "storage"
	case BindingKindTexture:
		return "texture"
	case BindingKindSampler:
		return "sampler"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}

// Binding is a resource declared by a shader at a fixed group and binding index.
type Binding struct {
	Group    uint32
	Binding  uint32
	Name     string
	TypeName string
	Kind     BindingKind
	// Size is the byte size of a uniform block's struct. Zero for other kinds.
	Size uint64
}

// shader is the implementation of the Shader interface.
// It holds the WGSL source and the interface metadata parsed from it.
type shader struct {
	key          string
	source       string
	shaderType   ShaderType
	entryPoint   string
	vertexInputs []VertexAttribute
	vertexStride uint64
	bindings     []Binding
}

// Shader defines the interface for a loaded and parsed WGSL shader. It exposes the shader's
// unique key, source code, entry point, vertex inputs and resource bindings needed for
// pipeline creation and validation.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the type of the shader (vertex or fragment).
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// VertexInputs returns the @location inputs of a vertex shader in declaration order.
	// Fragment shaders return nil.
	//
	// Returns:
	//   - []VertexAttribute: the vertex inputs with packed offsets
	VertexInputs() []VertexAttribute

	// VertexStride returns the byte size of one interleaved vertex matching VertexInputs.
	//
	// Returns:
	//   - uint64: the stride in bytes, zero for fragment shaders
	VertexStride() uint64

	// Bindings returns every resource declared by the shader, sorted by group then binding.
	//
	// Returns:
	//   - []Binding: the declared resources
	Bindings() []Binding

	// BindingByName looks up a declared resource by its WGSL variable name or, for uniform
	// blocks, by the name of the struct it is declared as.
	//
	// Parameters:
	//   - name: the variable or uniform struct name
	//
	// Returns:
	//   - Binding: the matching binding
	//   - bool: true if found
	BindingByName(name string) (Binding, bool)

	// BindGroupVarName retrieves the variable name for a given group and binding index, if it exists.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding uint32) string
}

var _ Shader = &shader{}

// NewShader parses WGSL source into a Shader. The entry point for the given stage must be present.
// Vertex shaders additionally get their vertex inputs parsed.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage this shader feeds
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if the source has no matching entry point or an unsupported interface
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}

	s.entryPoint = parseEntryPoint(source, shaderType)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no @%s entry point found", key, shaderType)
	}

	if shaderType == ShaderTypeVertex {
		inputs, stride, err := parseVertexInputs(source)
		if err != nil {
			return nil, fmt.Errorf("shader %s: %w", key, err)
		}
		s.vertexInputs = inputs
		s.vertexStride = stride
	}

	bindings, err := parseBindings(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	s.bindings = bindings

	return s, nil
}

// NewShaderFromPath reads WGSL source from disk and parses it with NewShader.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage this shader feeds
//   - path: the file path to read WGSL source from
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if the file cannot be read or parsed
func NewShaderFromPath(key string, shaderType ShaderType, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to read source file %q: %w", key, path, err)
	}
	return NewShader(key, shaderType, string(data))
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexInputs() []VertexAttribute {
	return s.vertexInputs
}

func (s *shader) VertexStride() uint64 {
	return s.vertexStride
}

func (s *shader) Bindings() []Binding {
	return s.bindings
}

func (s *shader) BindingByName(name string) (Binding, bool) {
	for _, b := range s.bindings {
		if b.Name == name || (b.Kind == BindingKindUniform && b.TypeName == name) {
			return b, true
		}
	}
	return Binding{}, false
}

func (s *shader) BindGroupVarName(group, binding uint32) string {
	for _, b := range s.bindings {
		if b.Group == group && b.Binding == binding {
			return b.Name
		}
	}
	return ""
}
