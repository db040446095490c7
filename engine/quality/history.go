package quality

// frameHistory is a fixed-capacity ring buffer of frame times in milliseconds.
// Once full, new samples overwrite the oldest.
type frameHistory struct {
	samples []float64
	head    int
	count   int
}

// newFrameHistory creates a history holding up to capacity samples.
func newFrameHistory(capacity int) *frameHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &frameHistory{samples: make([]float64, capacity)}
}

// Push records one frame time in milliseconds.
func (h *frameHistory) Push(ms float64) {
	h.samples[h.head] = ms
	h.head = (h.head + 1) % len(h.samples)
	if h.count < len(h.samples) {
		h.count++
	}
}

// Mean returns the average of the recorded samples, or 0 when empty.
func (h *frameHistory) Mean() float64 {
	if h.count == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < h.count; i++ {
		sum += h.samples[i]
	}
	return sum / float64(h.count)
}

// Len returns the number of recorded samples.
func (h *frameHistory) Len() int {
	return h.count
}

// Full reports whether the buffer has wrapped at least once.
func (h *frameHistory) Full() bool {
	return h.count == len(h.samples)
}

// Reset discards all samples.
func (h *frameHistory) Reset() {
	h.head = 0
	h.count = 0
}
