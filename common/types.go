// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
// The loader produces it on a worker goroutine; the renderer consumes it on the render thread.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Width uint32
	// Height is the height of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Height uint32
}

// Valid reports whether the staging data describes a non-empty image whose pixel
// slice holds exactly Width*Height RGBA texels.
func (t TextureStagingData) Valid() bool {
	return t.Width > 0 && t.Height > 0 && len(t.Pixels) == int(t.Width)*int(t.Height)*4
}

// FilterMode selects texel filtering for a sampler.
type FilterMode int

const (
	// FilterModeUnset lets the backend choose its default (linear).
	FilterModeUnset FilterMode = iota
	// FilterModeNearest picks the closest texel.
	FilterModeNearest
	// FilterModeLinear blends neighbouring texels.
	FilterModeLinear
)

// AddressMode selects how texture coordinates outside [0, 1] are resolved.
type AddressMode int

const (
	// AddressModeUnset lets the backend choose its default (clamp to edge).
	AddressModeUnset AddressMode = iota
	// AddressModeClampToEdge clamps coordinates to the edge texels.
	AddressModeClampToEdge
	// AddressModeRepeat wraps coordinates.
	AddressModeRepeat
	// AddressModeMirrorRepeat wraps coordinates, mirroring every other repetition.
	AddressModeMirrorRepeat
)

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero values mean "backend default".
type SamplerStagingData struct {
	// AddressModeU and AddressModeV specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter FilterMode
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}
