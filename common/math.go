package common

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// ComposeTransform builds a model matrix from scale, rotation and translation.
// The result is T * R * S, so a point is scaled first, then rotated, then translated.
// All matrices are column-major (WebGPU convention).
//
// Parameters:
//   - scale: per-axis scale factors
//   - rotation: orientation quaternion (mgl32.QuatIdent() for none)
//   - translation: offset in world space
//
// Returns:
//   - mgl32.Mat4: the composed model matrix
func ComposeTransform(scale mgl32.Vec3, rotation mgl32.Quat, translation mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(translation.X(), translation.Y(), translation.Z())
	r := rotation.Mat4()
	s := mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())
	return t.Mul4(r).Mul4(s)
}

// FlattenMat4 returns the 16 floats of m in column-major order, ready for a uniform upload.
//
// Parameters:
//   - m: the source matrix
//
// Returns:
//   - [16]float32: column-major matrix elements
func FlattenMat4(m mgl32.Mat4) [16]float32 {
	return [16]float32(m)
}

// UnflattenMat4 rebuilds a matrix from 16 column-major floats.
// FlattenMat4 followed by UnflattenMat4 is lossless.
//
// Parameters:
//   - data: column-major matrix elements
//
// Returns:
//   - mgl32.Mat4: the reconstructed matrix
func UnflattenMat4(data [16]float32) mgl32.Mat4 {
	return mgl32.Mat4(data)
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// BytesToSlice copies raw bytes back into a typed slice. Trailing bytes that do not
// fill a whole element are ignored. This is the inverse of SliceToBytes and is used
// to read back recorded buffer contents.
//
// Parameters:
//   - data: raw bytes in native layout
//
// Returns:
//   - []T: a newly allocated slice holding the decoded elements
func BytesToSlice[T any](data []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	n := len(data) / size
	if n == 0 {
		return nil
	}
	out := make([]T, n)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), n*size), data)
	return out
}
