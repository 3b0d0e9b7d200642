package monitor

import "sync"

// DefaultHistorySize is the default number of samples retained for the
// connection-count sparkline.
const DefaultHistorySize = 60

// History retains recent connection counts in a fixed-size ring buffer
// so the dashboard can show how the count has moved over time.
type History struct {
	mu     sync.RWMutex
	counts *ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewHistory creates a history tracker with the specified buffer size.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		counts: newRingBuffer(size),
	}
}

// Push records a connection-count sample.
func (h *History) Push(count int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.counts.push(float64(count))
}

// Values returns the retained samples, oldest first.
func (h *History) Values() []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.counts.values()
}

// Len returns how many samples are currently retained.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.counts.count
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

// push adds a value, overwriting the oldest once full.
func (r *ringBuffer) push(v float64) {
	r.data[r.head] = v
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// values returns buffered values in insertion order.
func (r *ringBuffer) values() []float64 {
	out := make([]float64, 0, r.count)
	start := r.head - r.count
	if start < 0 {
		start += r.size
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.data[(start+i)%r.size])
	}
	return out
}
