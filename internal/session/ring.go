package session

import "github.com/ayusman/tapflow/internal/feature"

// ring is a fixed-capacity rolling buffer of feature values. Appends beyond
// capacity evict the oldest value first, so length never exceeds
// feature.WindowSize.
type ring struct {
	buf  [feature.WindowSize]float64
	head int // index of the oldest value
	n    int
}

func (r *ring) push(v float64) {
	if r.n < feature.WindowSize {
		r.buf[(r.head+r.n)%feature.WindowSize] = v
		r.n++
		return
	}
	// Full: overwrite the oldest slot and advance.
	r.buf[r.head] = v
	r.head = (r.head + 1) % feature.WindowSize
}

func (r *ring) len() int {
	return r.n
}

func (r *ring) full() bool {
	return r.n == feature.WindowSize
}

// ordered returns the buffer contents oldest to newest. Only meaningful once
// the ring is full.
func (r *ring) ordered() [feature.WindowSize]float64 {
	var out [feature.WindowSize]float64
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%feature.WindowSize]
	}
	return out
}

func (r *ring) reset() {
	r.head = 0
	r.n = 0
}
