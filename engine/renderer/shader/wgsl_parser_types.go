package shader

// vertexFormatInfo holds the vertex format and its byte size for offset calculation
type vertexFormatInfo struct {
	format VertexFormat
	size   uint64
}

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
// Used to size uniform buffers from their declared struct.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}
