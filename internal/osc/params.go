package osc

import (
	"math"

	"github.com/cbegin/monosynth-go/internal/waveform"
)

// Parameter ranges applied by the setters.
const (
	VolumeMin = 0.0
	VolumeMax = 1.0
	PanMin    = -0.5
	PanMax    = 0.5
	CoarseMin = -36.0
	CoarseMax = 36.0
	FineMin   = -100.0
	FineMax   = 100.0
)

// Setters below are non-blocking and clamp out-of-range input. Each field
// expects a single writer; concurrent writers to the same field need to be
// serialized by the caller.

func (o *Oscillator) SetNoteActive(active bool) {
	o.active.Store(active)
}

func (o *Oscillator) SetVolume(v float64) {
	o.volume.Store(math.Float64bits(clamp(v, VolumeMin, VolumeMax)))
}

func (o *Oscillator) SetPan(p float64) {
	o.pan.Store(math.Float64bits(clamp(p, PanMin, PanMax)))
}

// SetCoarsePitch sets the semitone offset.
func (o *Oscillator) SetCoarsePitch(semitones float64) {
	o.coarse.Store(math.Float64bits(clamp(semitones, CoarseMin, CoarseMax)))
}

// SetFinePitch sets the cent offset.
func (o *Oscillator) SetFinePitch(cents float64) {
	o.fine.Store(math.Float64bits(clamp(cents, FineMin, FineMax)))
}

// SetNoteIndex selects a key; indices past the top key are clamped to 87.
func (o *Oscillator) SetNoteIndex(index uint8) {
	if index >= NoteCount {
		index = NoteCount - 1
	}
	o.noteIndex.Store(uint32(index))
}

func (o *Oscillator) SetWaveform(k waveform.Kind) {
	if !k.Valid() {
		return
	}
	o.kind.Store(int32(k))
}

// CycleWaveform moves forward for a positive direction and backward for a
// negative one. Zero is a no-op. Waveform changes take effect on the next
// sample without any crossfade.
func (o *Oscillator) CycleWaveform(direction int) {
	switch {
	case direction > 0:
		o.NextWaveform()
	case direction < 0:
		o.PrevWaveform()
	}
}

func (o *Oscillator) NextWaveform() {
	o.kind.Store(int32(o.Waveform().Next()))
}

func (o *Oscillator) PrevWaveform() {
	o.kind.Store(int32(o.Waveform().Prev()))
}

func (o *Oscillator) NoteActive() bool { return o.active.Load() }

func (o *Oscillator) Volume() float64 { return math.Float64frombits(o.volume.Load()) }

func (o *Oscillator) Pan() float64 { return math.Float64frombits(o.pan.Load()) }

func (o *Oscillator) CoarsePitch() float64 { return math.Float64frombits(o.coarse.Load()) }

func (o *Oscillator) FinePitch() float64 { return math.Float64frombits(o.fine.Load()) }

func (o *Oscillator) NoteIndex() uint8 { return uint8(o.noteIndex.Load()) }

func (o *Oscillator) Waveform() waveform.Kind { return waveform.Kind(o.kind.Load()) }

// Params is a point-in-time copy of the control fields for display. Fields
// are loaded one by one, so the copy is not a consistent snapshot.
type Params struct {
	Waveform    waveform.Kind
	NoteIndex   uint8
	CoarsePitch float64
	FinePitch   float64
	Volume      float64
	Pan         float64
	NoteActive  bool
	Frequency   float64
}

func (o *Oscillator) Params() Params {
	p := Params{
		Waveform:    o.Waveform(),
		NoteIndex:   o.NoteIndex(),
		CoarsePitch: o.CoarsePitch(),
		FinePitch:   o.FinePitch(),
		Volume:      o.Volume(),
		Pan:         o.Pan(),
		NoteActive:  o.NoteActive(),
	}
	p.Frequency = frequency(p.NoteIndex, p.CoarsePitch, p.FinePitch)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetVibratoDepth sets the vibrato depth in cents. Zero turns it off.
func (o *Oscillator) SetVibratoDepth(cents float64) { o.vibrato.SetDepth(cents) }

func (o *Oscillator) VibratoDepth() float64 { return o.vibrato.Depth() }

// SetVibratoRate sets the vibrato rate in Hz.
func (o *Oscillator) SetVibratoRate(hz float64) { o.vibrato.SetRate(hz) }
