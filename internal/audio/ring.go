package audio

import (
	"math"
	"sync/atomic"
)

// Ring is a lock-free single-producer tap of mono samples. The audio
// goroutine pushes and never waits; readers copy the most recent samples.
// Old samples are overwritten, so a snapshot taken during a push may mix
// samples from adjacent buffers, which is fine for a scope display.
type Ring struct {
	writePos atomic.Uint64
	_pad     [56]byte

	buf  []atomic.Uint32 // float32 bits
	mask uint64
}

// NewRing creates a ring with capacity rounded up to the next power of two.
func NewRing(minSize int) *Ring {
	size := 1
	for size < minSize {
		size <<= 1
	}
	return &Ring{
		buf:  make([]atomic.Uint32, size),
		mask: uint64(size - 1),
	}
}

func (r *Ring) Len() int { return len(r.buf) }

// Push appends one sample. Producer goroutine only.
func (r *Ring) Push(v float32) {
	w := r.writePos.Load()
	r.buf[w&r.mask].Store(math.Float32bits(v))
	r.writePos.Store(w + 1)
}

// Written returns the total number of samples pushed so far.
func (r *Ring) Written() uint64 {
	return r.writePos.Load()
}

// Snapshot fills dst with the latest len(dst) samples, oldest first, and
// returns how many were available. Missing history is left as zeros.
func (r *Ring) Snapshot(dst []float32) int {
	n := uint64(len(dst))
	if n > uint64(len(r.buf)) {
		n = uint64(len(r.buf))
	}
	w := r.writePos.Load()
	avail := n
	if w < n {
		avail = w
	}
	pad := uint64(len(dst)) - avail
	for i := uint64(0); i < pad; i++ {
		dst[i] = 0
	}
	start := w - avail
	for i := uint64(0); i < avail; i++ {
		dst[pad+i] = math.Float32frombits(r.buf[(start+i)&r.mask].Load())
	}
	return int(avail)
}
