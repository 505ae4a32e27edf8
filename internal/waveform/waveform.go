package waveform

import (
	"fmt"
	"math"
	"strings"
)

const twoPi = math.Pi * 2

// Kind selects one of the built-in generators.
type Kind int32

const (
	Sine Kind = iota
	Square
	Saw
	Triangle
	WhiteNoise

	kindCount
)

var kindNames = [kindCount]string{"sine", "square", "saw", "triangle", "noise"}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("waveform(%d)", int32(k))
	}
	return kindNames[k]
}

func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// Next returns the following kind in the cycle Sine, Square, Saw, Triangle, WhiteNoise.
func (k Kind) Next() Kind {
	return k.Step(1)
}

// Prev returns the preceding kind in the cycle.
func (k Kind) Prev() Kind {
	return k.Step(-1)
}

// Step moves n positions around the cycle. Negative n moves backwards.
func (k Kind) Step(n int) Kind {
	i := (int(k) + n) % int(kindCount)
	if i < 0 {
		i += int(kindCount)
	}
	return Kind(i)
}

// ParseKind accepts the names printed by String plus a few common aliases.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine", "sin":
		return Sine, nil
	case "square", "sqr", "pulse":
		return Square, nil
	case "saw", "sawtooth":
		return Saw, nil
	case "triangle", "tri":
		return Triangle, nil
	case "noise", "whitenoise", "white":
		return WhiteNoise, nil
	default:
		return Sine, fmt.Errorf("unknown waveform %q (expected sine|square|saw|triangle|noise)", name)
	}
}

// Wrap folds any phase into [0, 2π).
func Wrap(phase float64) float64 {
	if phase >= 0 && phase < twoPi {
		return phase
	}
	p := math.Mod(phase, twoPi)
	if p < 0 {
		p += twoPi
	}
	// Mod of a tiny negative value can round up to exactly 2π.
	if p >= twoPi {
		p = 0
	}
	return p
}

func SineAt(phase float64) float64 {
	return math.Sin(phase)
}

// SquareAt is a 50% duty pulse: +1 on [0, π), -1 on [π, 2π).
func SquareAt(phase float64) float64 {
	if Wrap(phase) < math.Pi {
		return 1
	}
	return -1
}

// SawAt ramps from -1 at phase 0 to +1 at 2π. Not bandlimited.
func SawAt(phase float64) float64 {
	return remap(Wrap(phase), 0, twoPi, -1, 1)
}

// TriangleAt falls from +1 at 0 to -1 at π and rises back to +1 at 2π.
func TriangleAt(phase float64) float64 {
	p := Wrap(phase)
	if p < math.Pi {
		return remap(p, 0, math.Pi, 1, -1)
	}
	return remap(p, math.Pi, twoPi, -1, 1)
}

// Sample evaluates k at phase. noise is only consulted for WhiteNoise and
// must belong to the calling goroutine; a nil noise yields silence.
func (k Kind) Sample(phase float64, noise *Noise) float64 {
	switch k {
	case Sine:
		return SineAt(phase)
	case Square:
		return SquareAt(phase)
	case Saw:
		return SawAt(phase)
	case Triangle:
		return TriangleAt(phase)
	case WhiteNoise:
		if noise == nil {
			return 0
		}
		return noise.Sample()
	default:
		return 0
	}
}

// Cycle fills dst with exactly one period of k starting at phase 0. It is
// meant for drawing and never touches any oscillator state.
func Cycle(k Kind, dst []float32, noise *Noise) {
	n := len(dst)
	for i := range dst {
		phase := twoPi * float64(i) / float64(n)
		dst[i] = float32(k.Sample(phase, noise))
	}
}

func remap(v, start1, end1, start2, end2 float64) float64 {
	t := (v - start1) / (end1 - start1)
	return start2 + t*(end2-start2)
}
