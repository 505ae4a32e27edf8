package lfo

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/monosynth-go/internal/waveform"
)

const twoPi = math.Pi * 2

const (
	MaxDepthCents = 100.0
	MaxRateHz     = 20.0
)

// LFO is a low-frequency pitch modulator. Depth, rate and shape may be set
// from any goroutine; Sample and Reset belong to the audio goroutine.
type LFO struct {
	depth atomic.Uint64 // float64 bits, cents
	rate  atomic.Uint64 // float64 bits, Hz
	shape atomic.Int32  // waveform.Kind

	phase   float64 // radians [0, 2π)
	held    float64 // sample-and-hold value for WhiteNoise
	noise   waveform.Noise
	started bool
}

// New returns an LFO with zero depth, 5 Hz rate and a triangle shape.
func New() *LFO {
	l := &LFO{}
	l.SetRate(5)
	l.SetShape(waveform.Triangle)
	l.noise.Seed(0x5EED)
	return l
}

// SetDepth sets the peak deviation in cents, clamped to [0, MaxDepthCents].
func (l *LFO) SetDepth(cents float64) {
	l.depth.Store(math.Float64bits(clamp(cents, 0, MaxDepthCents)))
}

// SetRate sets the oscillation rate, clamped to [0, MaxRateHz].
func (l *LFO) SetRate(hz float64) {
	l.rate.Store(math.Float64bits(clamp(hz, 0, MaxRateHz)))
}

// SetShape selects the modulation shape. Invalid kinds fall back to Triangle.
func (l *LFO) SetShape(k waveform.Kind) {
	if !k.Valid() {
		k = waveform.Triangle
	}
	l.shape.Store(int32(k))
}

func (l *LFO) Depth() float64 { return math.Float64frombits(l.depth.Load()) }
func (l *LFO) Rate() float64  { return math.Float64frombits(l.rate.Load()) }

func (l *LFO) Shape() waveform.Kind { return waveform.Kind(l.shape.Load()) }

// Active reports whether Sample can return a non-zero value.
func (l *LFO) Active() bool {
	return l.Depth() != 0 && l.Rate() != 0
}

// Sample advances the LFO by one sample and returns a deviation in cents
// within [-depth, +depth]. Returns 0 while depth or rate is zero.
func (l *LFO) Sample(sampleRate float64) float64 {
	depth := l.Depth()
	rate := l.Rate()
	if depth == 0 || rate == 0 || sampleRate <= 0 {
		return 0
	}
	shape := l.Shape()

	var v float64
	if shape == waveform.WhiteNoise {
		if !l.started {
			l.held = l.noise.Sample()
			l.started = true
		}
		v = l.held
	} else {
		v = shape.Sample(l.phase, nil)
	}

	old := l.phase
	l.phase = waveform.Wrap(l.phase + twoPi*rate/sampleRate)
	if shape == waveform.WhiteNoise && l.phase < old {
		l.held = l.noise.Sample()
	}
	return v * depth
}

// Reset zeros the phase and the held value.
func (l *LFO) Reset() {
	l.phase = 0
	l.held = 0
	l.started = false
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
