package provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// SubmitQueue accepts batches of staged buffer writes once per frame. The
// frame driver drains every dirty representation into a single WriteBuffers
// call, so implementations see one batch per frame rather than one call per
// mutated slot.
type SubmitQueue interface {
	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Writes targeting a binding whose buffer has not been initialized are
	// skipped, since representations may stage writes one frame ahead of GPU
	// resource creation during load.
	//
	// Parameters:
	//   - writes: the staged buffer writes to submit
	WriteBuffers(writes []BufferWrite)
}

// wgpuQueue submits staged writes to a wgpu.Queue.
type wgpuQueue struct {
	queue *wgpu.Queue
}

var _ SubmitQueue = &wgpuQueue{}

// NewWGPUQueue wraps a wgpu.Queue as a SubmitQueue.
//
// Parameters:
//   - q: the device queue to submit writes to (must not be nil)
//
// Returns:
//   - SubmitQueue: the wrapping queue
func NewWGPUQueue(q *wgpu.Queue) SubmitQueue {
	if q == nil {
		panic("provider: NewWGPUQueue requires a non-nil wgpu.Queue")
	}
	return &wgpuQueue{queue: q}
}

func (w *wgpuQueue) WriteBuffers(writes []BufferWrite) {
	for _, wr := range writes {
		if wr.Provider == nil || len(wr.Data) == 0 {
			continue
		}
		buf := wr.Provider.Buffer(wr.Binding)
		if buf == nil {
			continue
		}
		w.queue.WriteBuffer(buf, wr.Offset, wr.Data)
	}
}
