package provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// ProviderOption is a functional option for configuring a Provider.
// Use the With* functions to create options that are applied directly to the provider instance.
type ProviderOption func(*bufferProvider)

// WithBuffer pre-sets a GPU buffer at the given binding index during
// construction. Useful when a provider shares a buffer created for another
// provider (e.g. two representations reading the same matrix buffer).
//
// Parameters:
//   - binding: the binding index
//   - buf: the buffer to store
//
// Returns:
//   - ProviderOption: option function to apply
func WithBuffer(binding int, buf *wgpu.Buffer) ProviderOption {
	return func(p *bufferProvider) {
		p.buffers[binding] = buf
	}
}
