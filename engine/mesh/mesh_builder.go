package mesh

import "github.com/go-gl/mathgl/mgl32"

// MeshBuilderOption is a functional option for configuring a Mesh during construction.
type MeshBuilderOption func(*mesh)

// WithLabel overrides the label derived from the texture file name.
//
// Parameters:
//   - label: the name used for the mesh's GPU resources
//
// Returns:
//   - MeshBuilderOption: functional option to set the label
func WithLabel(label string) MeshBuilderOption {
	return func(m *mesh) {
		if label != "" {
			m.label = label
		}
	}
}

// WithRotation sets the initial orientation. The default is the identity rotation.
//
// Parameters:
//   - rotation: the orientation quaternion
//
// Returns:
//   - MeshBuilderOption: functional option to set the rotation
func WithRotation(rotation mgl32.Quat) MeshBuilderOption {
	return func(m *mesh) {
		m.rotation = rotation
	}
}

// WithTextureSlot selects the pipeline texture slot the mesh binds its texture to. The default is 0.
func WithTextureSlot(slot uint32) MeshBuilderOption {
	return func(m *mesh) {
		m.textureSlot = slot
	}
}
