package representation

import "unsafe"

// GPUInstance is the per-slot payload uploaded to the representation's
// instance buffer: a column-major model matrix followed by an RGBA tint color.
// Layout must match the instance struct declared by the host's vertex shader
// (mat4x4<f32> + vec4<f32>, 80 bytes, no padding).
type GPUInstance struct {
	// Model is the 4x4 world transform, column-major.
	Model [16]float32
	// Color is the per-instance RGBA tint.
	Color [4]float32
}

// Size returns the byte size of a GPUInstance as laid out in memory.
//
// Returns:
//   - int: the struct size in bytes
func (g *GPUInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}
