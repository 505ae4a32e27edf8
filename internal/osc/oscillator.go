package osc

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/monosynth-go/internal/lfo"
	"github.com/cbegin/monosynth-go/internal/waveform"
)

const twoPi = math.Pi * 2

const (
	// A0Freq is the frequency of note index 0.
	A0Freq = 27.5

	NoteCount = 88
	// MiddleC is C4 on an 88-key keyboard whose index 0 is A0.
	MiddleC = 39

	DefaultVolume = 0.7
)

// PanLaw selects how pan maps to channel gains.
type PanLaw int

const (
	// PanConstantPower uses cos/sin gains so loudness holds across the field.
	PanConstantPower PanLaw = iota
	// PanLinear splits a unit gain linearly and dips 3 dB at center.
	PanLinear
)

func (p PanLaw) String() string {
	switch p {
	case PanConstantPower:
		return "constant"
	case PanLinear:
		return "linear"
	default:
		return "unknown"
	}
}

type Option func(*Oscillator)

func WithPanLaw(law PanLaw) Option {
	return func(o *Oscillator) {
		o.panLaw = law
	}
}

func WithWaveform(k waveform.Kind) Option {
	return func(o *Oscillator) {
		if k.Valid() {
			o.kind.Store(int32(k))
		}
	}
}

func WithNoiseSeed(seed uint32) Option {
	return func(o *Oscillator) {
		o.noise.Seed(seed)
	}
}

// Oscillator is a single voice. Control fields are independent atomics
// written by one control goroutine; Sample is called by the audio
// goroutine, which is the only writer of the phase and the noise state.
// No two fields are ever updated together, so a reader may observe a new
// volume before a pan written just after it.
type Oscillator struct {
	sampleRate float64
	panLaw     PanLaw

	kind      atomic.Int32  // waveform.Kind
	volume    atomic.Uint64 // float64 bits, [0, 1]
	pan       atomic.Uint64 // float64 bits, [-0.5, 0.5]
	coarse    atomic.Uint64 // float64 bits, semitones [-36, 36]
	fine      atomic.Uint64 // float64 bits, cents [-100, 100]
	noteIndex atomic.Uint32
	active    atomic.Bool

	vibrato *lfo.LFO

	// audio goroutine only
	phase float64
	noise waveform.Noise
}

// New returns an oscillator with volume 0.7, center pan, note C4, sine
// waveform and the note gate closed.
func New(sampleRate int, opts ...Option) *Oscillator {
	o := &Oscillator{
		sampleRate: float64(sampleRate),
		vibrato:    lfo.New(),
	}
	o.volume.Store(math.Float64bits(DefaultVolume))
	o.pan.Store(math.Float64bits(0))
	o.coarse.Store(math.Float64bits(0))
	o.fine.Store(math.Float64bits(0))
	o.noteIndex.Store(MiddleC)
	o.kind.Store(int32(waveform.Sine))
	o.noise.Seed(0)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Oscillator) SampleRate() int { return int(o.sampleRate) }

func (o *Oscillator) PanLaw() PanLaw { return o.panLaw }

// Vibrato exposes the pitch LFO for configuration.
func (o *Oscillator) Vibrato() *lfo.LFO { return o.vibrato }

// Frequency converts note index, coarse and fine pitch to Hz using
// 100 cents per semitone above A0. It has no side effects.
func (o *Oscillator) Frequency() float64 {
	return frequency(o.NoteIndex(), o.CoarsePitch(), o.FinePitch())
}

func frequency(note uint8, coarse, fine float64) float64 {
	cents := float64(note)*100 + coarse*100 + fine
	return A0Freq * math.Pow(2, cents/1200)
}

// Sample produces one stereo frame and advances the phase. The phase keeps
// running while the gate is closed so a new note starts without a jump.
func (o *Oscillator) Sample() (float32, float32) {
	kind := waveform.Kind(o.kind.Load())
	s := kind.Sample(o.phase, &o.noise)

	freq := o.Frequency()
	if dev := o.vibrato.Sample(o.sampleRate); dev != 0 {
		freq *= math.Pow(2, dev/1200)
	}
	o.phase = waveform.Wrap(o.phase + twoPi*freq/o.sampleRate)

	if !o.active.Load() {
		return 0, 0
	}
	s *= o.Volume()
	lg, rg := panGains(o.panLaw, o.Pan())
	return float32(s * lg), float32(s * rg)
}

// Phase returns the current phase in radians. Only safe on the audio goroutine.
func (o *Oscillator) Phase() float64 { return o.phase }

func panGains(law PanLaw, pan float64) (float64, float64) {
	switch law {
	case PanLinear:
		left := remap(pan, PanMin, PanMax, 1, 0)
		return left, 1 - left
	default:
		theta := remap(pan, PanMin, PanMax, 0, math.Pi/2)
		return math.Cos(theta), math.Sin(theta)
	}
}

func remap(v, start1, end1, start2, end2 float64) float64 {
	t := (v - start1) / (end1 - start1)
	return start2 + t*(end2-start2)
}
