package provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bufferProvider is the unexported implementation of Provider.
type bufferProvider struct {
	// label is a debug label added for convenience.
	label string

	// buffers holds the GPU buffers for this provider, keyed by binding index.
	// They are populated by the host renderer during initialization, not by
	// user-creation; until then lookups return nil and staged writes to the
	// provider are dropped by the submit queue.
	buffers map[int]*wgpu.Buffer
}

// Provider defines the interface for components that own GPU buffer bindings.
// Components (representations, quality uniform blocks, etc.) hold a Provider to
// describe their GPU buffer requirements. The host renderer initializes the
// buffers and the frame loop targets them with BufferWrite batches.
//
// Usage pattern:
//  1. Component creates a Provider with a unique label
//  2. Host renderer creates wgpu buffers and stores them via SetBuffer()
//  3. Component stages BufferWrites against the provider each frame
//  4. The frame driver submits staged writes through a SubmitQueue
type Provider interface {
	// Label returns the debug label for this provider.
	// Used for debugging and profiling purposes.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Buffer returns the GPU buffer for a specific binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Buffers returns a map of all buffers associated with this provider, keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Buffer: a map of buffers keyed by binding index
	Buffers() map[int]*wgpu.Buffer

	// SetBuffer stores a GPU buffer for a specific binding.
	// Called by the host renderer after buffer creation.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetBuffers sets multiple buffers at once after GPU initialization.
	//
	// Parameters:
	//   - buffers: a map of buffers keyed by binding index
	SetBuffers(buffers map[int]*wgpu.Buffer)

	// Release releases any GPU resources held by this provider.
	// It will clean up all buffers and remove them from the binding map.
	Release()
}

// Compile-time check that bufferProvider implements Provider
var _ Provider = &bufferProvider{}

// NewProvider creates a new Provider with the provided options.
//
// Parameters:
//   - label: a debug label for the provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - Provider: a new instance of Provider configured with the provided options
func NewProvider(label string, options ...ProviderOption) Provider {
	p := &bufferProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bufferProvider) Label() string {
	return p.label
}

func (p *bufferProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bufferProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bufferProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if p.buffers == nil {
		p.buffers = make(map[int]*wgpu.Buffer)
	}
	p.buffers[binding] = buf
}

func (p *bufferProvider) SetBuffers(buffers map[int]*wgpu.Buffer) {
	p.buffers = buffers
}

func (p *bufferProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
			delete(p.buffers, i)
		}
	}
}
