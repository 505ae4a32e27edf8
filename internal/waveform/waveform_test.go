package waveform

import (
	"math"
	"testing"
)

func nearEdge(p float64) bool {
	w := Wrap(p)
	const eps = 1e-9
	return w < eps || math.Abs(w-math.Pi) < eps || twoPi-w < eps
}

func TestSineMatchesMathSin(t *testing.T) {
	for p := -20.0; p < 20; p += 0.173 {
		if got, want := SineAt(p), math.Sin(p); math.Abs(got-want) > 1e-12 {
			t.Fatalf("SineAt(%v) = %v, want %v", p, got, want)
		}
	}
}

func TestGeneratorsBoundedAndPeriodic(t *testing.T) {
	for _, tc := range []struct {
		name string
		fn   func(float64) float64
	}{
		{"sine", SineAt},
		{"square", SquareAt},
		{"saw", SawAt},
		{"triangle", TriangleAt},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for p := -50.0; p < 50; p += 0.0917 {
				v := tc.fn(p)
				if v < -1 || v > 1 {
					t.Fatalf("%s(%v) = %v, out of [-1, 1]", tc.name, p, v)
				}
				if nearEdge(p) {
					continue
				}
				if w := tc.fn(p + twoPi); math.Abs(v-w) > 1e-9 {
					t.Fatalf("%s(%v) = %v but %s(p+2π) = %v", tc.name, p, v, tc.name, w)
				}
			}
		})
	}
}

func TestShapeLandmarks(t *testing.T) {
	for _, tc := range []struct {
		name  string
		fn    func(float64) float64
		phase float64
		want  float64
	}{
		{"square first half", SquareAt, 0.5, 1},
		{"square second half", SquareAt, math.Pi + 0.5, -1},
		{"square at pi", SquareAt, math.Pi, -1},
		{"saw start", SawAt, 0, -1},
		{"saw middle", SawAt, math.Pi, 0},
		{"saw near end", SawAt, twoPi - 1e-9, 1},
		{"triangle start", TriangleAt, 0, 1},
		{"triangle quarter", TriangleAt, math.Pi / 2, 0},
		{"triangle middle", TriangleAt, math.Pi, -1},
		{"triangle three quarters", TriangleAt, 3 * math.Pi / 2, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.fn(tc.phase); math.Abs(got-tc.want) > 1e-6 {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	for _, p := range []float64{0, 1, math.Pi, twoPi, -1e-17, -0.5, 7 * twoPi, -3*twoPi + 0.25, 1e6} {
		w := Wrap(p)
		if w < 0 || w >= twoPi {
			t.Fatalf("Wrap(%v) = %v, out of [0, 2π)", p, w)
		}
	}
	if got := Wrap(twoPi + 1); math.Abs(got-1) > 1e-12 {
		t.Fatalf("Wrap(2π+1) = %v, want 1", got)
	}
}

func TestKindCycleHasOrderFive(t *testing.T) {
	k := Sine
	seen := map[Kind]bool{}
	for i := 0; i < 5; i++ {
		seen[k] = true
		k = k.Next()
	}
	if k != Sine {
		t.Fatalf("five Next() from sine landed on %v", k)
	}
	if len(seen) != 5 {
		t.Fatalf("visited %d kinds, want 5", len(seen))
	}
	if got := Sine.Prev(); got != WhiteNoise {
		t.Fatalf("Sine.Prev() = %v, want noise", got)
	}
	want := []Kind{Square, Saw, Triangle, WhiteNoise, Sine}
	k = Sine
	for i, w := range want {
		k = k.Next()
		if k != w {
			t.Fatalf("step %d = %v, want %v", i+1, k, w)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{Sine, Square, Saw, Triangle, WhiteNoise} {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if got != k {
			t.Fatalf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if got, err := ParseKind("  Saw\n"); err != nil || got != Saw {
		t.Fatalf("ParseKind with padding = %v, %v; want saw", got, err)
	}
	if _, err := ParseKind("organ"); err == nil {
		t.Fatalf("expected error for unknown waveform")
	}
}

func TestNoiseBoundedAndVaried(t *testing.T) {
	n := NewNoise(1)
	var sum float64
	var minV, maxV = 1.0, -1.0
	const count = 100000
	for i := 0; i < count; i++ {
		v := WhiteNoise.Sample(0, n)
		if v < -1 || v > 1 {
			t.Fatalf("noise sample %v out of range", v)
		}
		sum += v
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if mean := sum / count; math.Abs(mean) > 0.02 {
		t.Fatalf("noise mean = %v, want ~0", mean)
	}
	if minV > -0.99 || maxV < 0.99 {
		t.Fatalf("noise range [%v, %v] does not span [-1, 1]", minV, maxV)
	}
}

func TestNoiseZeroSeedStillRuns(t *testing.T) {
	var n Noise
	a, b := n.Sample(), n.Sample()
	if a == b {
		t.Fatalf("expected successive samples to differ, got %v twice", a)
	}
}

func TestCycleStartsAtPhaseZero(t *testing.T) {
	buf := make([]float32, 64)
	Cycle(Triangle, buf, nil)
	if buf[0] != 1 {
		t.Fatalf("triangle cycle starts at %v, want 1", buf[0])
	}
	if buf[32] != -1 {
		t.Fatalf("triangle cycle midpoint = %v, want -1", buf[32])
	}
	Cycle(WhiteNoise, buf, nil)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("nil noise should draw silence, buf[%d] = %v", i, v)
		}
	}
}
