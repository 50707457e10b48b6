package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// wgslVertexFormatMap maps WGSL type names to their corresponding vertex format and byte size
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {VertexFormatFloat32, 4},
	"vec2f":     {VertexFormatFloat32x2, 8},
	"vec2<f32>": {VertexFormatFloat32x2, 8},
	"vec3f":     {VertexFormatFloat32x3, 12},
	"vec3<f32>": {VertexFormatFloat32x3, 12},
	"vec4f":     {VertexFormatFloat32x4, 16},
	"vec4<f32>": {VertexFormatFloat32x4, 16},
	"u32":       {VertexFormatUint32, 4},
	"i32":       {VertexFormatSint32, 4},
}

// wgslPrimitiveLayoutMap maps the WGSL value types a uniform block may hold to their byte size
// and alignment.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":         {4, 4},
	"i32":         {4, 4},
	"u32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec2f":       {8, 8},
	"vec3<f32>":   {12, 16},
	"vec3f":       {12, 16},
	"vec4<f32>":   {16, 16},
	"vec4f":       {16, 16},
	"mat3x3<f32>": {48, 16},
	"mat3x3f":     {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(1) @binding(0) var<uniform> transforms: MeshTransformations;
	// or handle types: @group(0) @binding(0) var u_texture: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseEntryPoint extracts the entry point function name for the given shader type
// from WGSL source. Returns an empty string if no matching entry point annotation is found.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - shaderType: the shader type to search for (ShaderTypeVertex or ShaderTypeFragment)
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, shaderType ShaderType) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

// parseVertexInputs extracts the vertex attributes of the first pure vertex input struct
// (one with @location fields and no @builtin fields). Attributes are returned in declaration
// order with tightly packed offsets, matching an interleaved vertex buffer.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []VertexAttribute: the vertex attributes, nil if the source declares no vertex input struct
//   - uint64: the total stride of one vertex in bytes
//   - error: an error if an input field has a type that cannot be fed from a vertex buffer
func parseVertexInputs(source string) ([]VertexAttribute, uint64, error) {
	for _, ps := range parseStructBlocks(stripComments(source)) {
		if !isVertexInputStruct(ps) {
			continue
		}

		attrs := make([]VertexAttribute, 0, len(ps.fields))
		var offset uint64
		for _, f := range ps.fields {
			info, ok := wgslVertexFormatMap[f.typeName]
			if !ok {
				return nil, 0, fmt.Errorf("vertex input %s.%s has unsupported type %q", ps.name, f.name, f.typeName)
			}
			attrs = append(attrs, VertexAttribute{
				Name:     f.name,
				Location: uint32(f.location),
				Format:   info.format,
				Offset:   offset,
			})
			offset += info.size
		}
		return attrs, offset, nil
	}
	return nil, 0, nil
}

// parseBindings extracts all @group(N) @binding(M) resource declarations from WGSL source.
// Uniform bindings are sized from their declared struct. Results are sorted by group, then binding.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - []Binding: the declared resource bindings
//   - error: an error if a uniform block references an unknown or unsized type
func parseBindings(source string) ([]Binding, error) {
	cleaned := stripComments(source)
	structSizes := computeStructSizes(parseStructBlocks(cleaned))

	var bindings []Binding
	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		name := strings.TrimSpace(match[4])
		typeName := strings.TrimSpace(match[5])

		b := Binding{
			Group:    uint32(group),
			Binding:  uint32(binding),
			Name:     name,
			TypeName: typeName,
		}

		switch {
		case addressSpace == "uniform":
			b.Kind = BindingKindUniform
			layout, ok := resolveTypeLayout(typeName, structSizes)
			if !ok {
				return nil, fmt.Errorf("uniform %s has unsized type %q", name, typeName)
			}
			b.Size = layout.size
		case strings.HasPrefix(addressSpace, "storage"):
			b.Kind = BindingKindStorage
		case typeName == "sampler":
			b.Kind = BindingKindSampler
		case strings.HasPrefix(typeName, "texture_2d"):
			b.Kind = BindingKindTexture
		default:
			return nil, fmt.Errorf("binding %s has unsupported type %q", name, typeName)
		}

		bindings = append(bindings, b)
	}

	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].Group != bindings[j].Group {
			return bindings[i].Group < bindings[j].Group
		}
		return bindings[i].Binding < bindings[j].Binding
	})
	return bindings, nil
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}

	return structs
}

// parseStructFields parses the body of a struct block into individual fields,
// extracting @location and @builtin attributes along with the field name and type
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])

		fields = append(fields, field)
	}

	return fields
}

// isVertexInputStruct returns true if the struct is a pure vertex input, meaning
// it has at least one @location field and zero @builtin fields. This distinguishes
// vertex input structs from vertex output structs which mix @location with @builtin(position).
func isVertexInputStruct(ps parsedStruct) bool {
	hasLocation := false
	for _, f := range ps.fields {
		if f.isBuiltin {
			return false
		}
		if f.location >= 0 {
			hasLocation = true
		}
	}
	return hasLocation
}

// computeStructSizes lays out every struct whose members are all known value types.
// Structs are resolved in declaration order, so a struct may embed an earlier one.
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	known := make(map[string]wgslTypeLayout, len(structs))
	for _, ps := range structs {
		var offset, align uint64 = 0, 1
		ok := true
		for _, f := range ps.fields {
			layout, found := resolveTypeLayout(f.typeName, known)
			if !found {
				ok = false
				break
			}
			offset = roundUpAlign(layout.align, offset) + layout.size
			align = max(align, layout.align)
		}
		if ok && len(ps.fields) > 0 {
			known[ps.name] = wgslTypeLayout{size: roundUpAlign(align, offset), align: align}
		}
	}
	return known
}

// resolveTypeLayout returns the size and alignment of a primitive or previously laid out struct type.
func resolveTypeLayout(typeName string, knownTypes map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	layout, ok := knownTypes[typeName]
	return layout, ok
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
func roundUpAlign(alignment, value uint64) uint64 {
	return (value + alignment - 1) &^ (alignment - 1)
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets.
// This correctly handles WGSL types like array<f32, 4> where the comma is part of
// the type syntax rather than a field separator.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// stripComments removes both line and block comments from WGSL source.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

// stripLineComments removes single-line // comments from WGSL source so they
// do not interfere with struct and field parsing
func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes block comments (/* ... */) from WGSL source,
// handling nested block comments per the WGSL specification
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	i := 0
	for i < len(source) {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i += 2
				continue
			}
			if source[i] == '*' && source[i+1] == '/' {
				if depth > 0 {
					depth--
				}
				i += 2
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
		i++
	}
	return sb.String()
}
