package osc

import (
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cbegin/monosynth-go/internal/waveform"
)

func TestFrequencyReference(t *testing.T) {
	o := New(48000)
	o.SetNoteIndex(0)
	if got := o.Frequency(); math.Abs(got-27.5) > 1e-9 {
		t.Fatalf("A0 frequency = %v, want 27.5", got)
	}
	for _, note := range []uint8{0, 12, 27, 39, 60, 75} {
		o.SetNoteIndex(note)
		base := o.Frequency()
		o.SetNoteIndex(note + 12)
		if got := o.Frequency(); math.Abs(got/base-2) > 1e-9 {
			t.Fatalf("note %d +12 ratio = %v, want 2", note, got/base)
		}
	}
	o.SetNoteIndex(48)
	if got := o.Frequency(); math.Abs(got-440) > 1e-9 {
		t.Fatalf("A4 frequency = %v, want 440", got)
	}
}

func TestFrequencyCoarseAndFine(t *testing.T) {
	o := New(48000)
	o.SetNoteIndex(48)
	o.SetCoarsePitch(-12)
	if got := o.Frequency(); math.Abs(got-220) > 1e-9 {
		t.Fatalf("coarse -12 = %v, want 220", got)
	}
	o.SetCoarsePitch(0)
	o.SetFinePitch(100)
	o.SetNoteIndex(47)
	if got := o.Frequency(); math.Abs(got-440) > 1e-9 {
		t.Fatalf("47 + 100 cents = %v, want 440", got)
	}
	o.SetFinePitch(-100)
	o.SetCoarsePitch(1)
	o.SetNoteIndex(48)
	if got := o.Frequency(); math.Abs(got-440) > 1e-9 {
		t.Fatalf("+1 semitone -100 cents = %v, want 440", got)
	}
}

func TestDefaults(t *testing.T) {
	o := New(48000)
	p := o.Params()
	want := Params{
		Waveform:  waveform.Sine,
		NoteIndex: MiddleC,
		Volume:    DefaultVolume,
		Frequency: 27.5 * math.Pow(2, 39.0/12),
	}
	if math.Abs(p.Frequency-want.Frequency) > 1e-9 {
		t.Fatalf("default frequency = %v, want %v", p.Frequency, want.Frequency)
	}
	p.Frequency = want.Frequency
	if p != want {
		t.Fatalf("defaults = %+v, want %+v", p, want)
	}
	if o.PanLaw() != PanConstantPower {
		t.Fatalf("default pan law = %v, want constant", o.PanLaw())
	}
}

func TestSetterClamps(t *testing.T) {
	o := New(48000)
	for _, tc := range []struct {
		name string
		set  func(float64)
		get  func() float64
		in   float64
		want float64
	}{
		{"volume high", o.SetVolume, o.Volume, 3, 1},
		{"volume low", o.SetVolume, o.Volume, -1, 0},
		{"volume nan", o.SetVolume, o.Volume, math.NaN(), 0},
		{"pan high", o.SetPan, o.Pan, 0.9, 0.5},
		{"pan low", o.SetPan, o.Pan, -2, -0.5},
		{"pan in range", o.SetPan, o.Pan, 0.25, 0.25},
		{"coarse high", o.SetCoarsePitch, o.CoarsePitch, 48, 36},
		{"coarse low", o.SetCoarsePitch, o.CoarsePitch, -40, -36},
		{"fine high", o.SetFinePitch, o.FinePitch, 150, 100},
		{"fine low", o.SetFinePitch, o.FinePitch, -101, -100},
		{"fine in range", o.SetFinePitch, o.FinePitch, 12.5, 12.5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.set(tc.in)
			if got := tc.get(); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
	o.SetNoteIndex(200)
	if got := o.NoteIndex(); got != NoteCount-1 {
		t.Fatalf("note index = %d, want %d", got, NoteCount-1)
	}
	o.SetWaveform(waveform.Kind(9))
	if got := o.Waveform(); got != waveform.Sine {
		t.Fatalf("invalid waveform should be ignored, got %v", got)
	}
}

func TestSilentWhenGateClosed(t *testing.T) {
	for _, k := range []waveform.Kind{waveform.Sine, waveform.Square, waveform.Saw, waveform.Triangle, waveform.WhiteNoise} {
		t.Run(k.String(), func(t *testing.T) {
			o := New(48000, WithWaveform(k))
			o.SetVolume(1)
			o.SetPan(0.3)
			for i := 0; i < 2000; i++ {
				if l, r := o.Sample(); l != 0 || r != 0 {
					t.Fatalf("sample %d = (%v, %v), want silence", i, l, r)
				}
			}
		})
	}
}

func TestPhaseRunsWhileGateClosed(t *testing.T) {
	o := New(48000)
	o.SetNoteIndex(48)
	step := twoPi * 440 / 48000
	const n = 1000
	for i := 0; i < n; i++ {
		o.Sample()
	}
	want := waveform.Wrap(step * n)
	if got := o.Phase(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("phase after %d closed samples = %v, want %v", n, got, want)
	}

	o.SetNoteActive(true)
	o.SetVolume(1)
	o.SetPan(-0.5)
	l, r := o.Sample()
	if math.Abs(float64(l)-math.Sin(want)) > 1e-6 {
		t.Fatalf("first open sample = %v, want sin(%v) = %v", l, want, math.Sin(want))
	}
	if r != 0 {
		t.Fatalf("hard left right channel = %v, want 0", r)
	}
}

func TestPhaseStaysWrapped(t *testing.T) {
	o := New(48000, WithWaveform(waveform.Saw))
	o.SetNoteIndex(87)
	o.SetCoarsePitch(36)
	o.SetNoteActive(true)
	for i := 0; i < 10000; i++ {
		o.Sample()
		if p := o.Phase(); p < 0 || p >= twoPi {
			t.Fatalf("phase %v escaped [0, 2π) at sample %d", p, i)
		}
	}
}

func TestPanBoundaries(t *testing.T) {
	for _, law := range []PanLaw{PanConstantPower, PanLinear} {
		t.Run(law.String(), func(t *testing.T) {
			o := New(48000, WithPanLaw(law), WithWaveform(waveform.Square))
			o.SetNoteActive(true)
			o.SetVolume(1)

			o.SetPan(0)
			l, r := o.Sample()
			if math.Abs(float64(l)-float64(r)) > 1e-7 || l == 0 {
				t.Fatalf("center = (%v, %v), want equal non-zero", l, r)
			}

			o.SetPan(-0.5)
			l, r = o.Sample()
			if math.Abs(float64(l)) != 1 || math.Abs(float64(r)) > 1e-7 {
				t.Fatalf("hard left = (%v, %v), want (±1, 0)", l, r)
			}

			o.SetPan(0.5)
			l, r = o.Sample()
			if math.Abs(float64(r)) != 1 || math.Abs(float64(l)) > 1e-7 {
				t.Fatalf("hard right = (%v, %v), want (0, ±1)", l, r)
			}
		})
	}
}

func TestConstantPowerKeepsEnergy(t *testing.T) {
	for p := PanMin; p <= PanMax; p += 0.05 {
		l, r := panGains(PanConstantPower, p)
		if e := l*l + r*r; math.Abs(e-1) > 1e-12 {
			t.Fatalf("pan %v energy = %v, want 1", p, e)
		}
		l, r = panGains(PanLinear, p)
		if s := l + r; math.Abs(s-1) > 1e-12 {
			t.Fatalf("pan %v linear sum = %v, want 1", p, s)
		}
	}
}

func TestOutputIsPeriodic(t *testing.T) {
	// 440 Hz at 44 kHz is exactly 100 samples per cycle.
	o := New(44000)
	o.SetNoteIndex(48)
	o.SetNoteActive(true)
	period := int(math.Round(44000 / o.Frequency()))
	if period != 100 {
		t.Fatalf("period = %d samples, want 100", period)
	}
	buf := make([]float32, period*5)
	for i := range buf {
		buf[i], _ = o.Sample()
	}
	for i := period; i < len(buf); i++ {
		if d := math.Abs(float64(buf[i] - buf[i-period])); d > 1e-5 {
			t.Fatalf("sample %d differs from one period earlier by %v", i, d)
		}
	}
}

func TestMiddleCSineScaledByVolume(t *testing.T) {
	sr := 48000.0
	o := New(int(sr), WithPanLaw(PanLinear))
	o.SetNoteActive(true)
	freq := o.Frequency()
	if want := 27.5 * math.Pow(2, 39.0/12); math.Abs(freq-want) > 1e-9 {
		t.Fatalf("C4 frequency = %v, want %v", freq, want)
	}
	period := int(sr / freq)

	var sum, peak float64
	for n := 0; n < period; n++ {
		l, r := o.Sample()
		mono := float64(l) + float64(r)
		want := DefaultVolume * math.Sin(twoPi*freq*float64(n)/sr)
		if math.Abs(mono-want) > 1e-5 {
			t.Fatalf("sample %d = %v, want %v", n, mono, want)
		}
		sum += mono
		peak = math.Max(peak, math.Abs(mono))
	}
	if mean := sum / float64(period); math.Abs(mean) > 1e-3 {
		t.Fatalf("DC offset over one period = %v, want ~0", mean)
	}
	if math.Abs(peak-DefaultVolume) > 1e-3 {
		t.Fatalf("peak = %v, want %v", peak, DefaultVolume)
	}
}

func TestConstantPowerCenterGain(t *testing.T) {
	o := New(48000)
	o.SetNoteActive(true)
	o.SetWaveform(waveform.Square)
	l, r := o.Sample()
	want := DefaultVolume * math.Sqrt2 / 2
	if math.Abs(float64(l)-want) > 1e-6 || math.Abs(float64(r)-want) > 1e-6 {
		t.Fatalf("center square = (%v, %v), want (%v, %v)", l, r, want, want)
	}
}

func TestCycleWaveform(t *testing.T) {
	o := New(48000)
	for i := 0; i < 5; i++ {
		o.NextWaveform()
	}
	if got := o.Waveform(); got != waveform.Sine {
		t.Fatalf("five NextWaveform() = %v, want sine", got)
	}
	o.CycleWaveform(-1)
	if got := o.Waveform(); got != waveform.WhiteNoise {
		t.Fatalf("CycleWaveform(-1) = %v, want noise", got)
	}
	o.CycleWaveform(0)
	if got := o.Waveform(); got != waveform.WhiteNoise {
		t.Fatalf("CycleWaveform(0) changed waveform to %v", got)
	}
	o.CycleWaveform(3)
	if got := o.Waveform(); got != waveform.Sine {
		t.Fatalf("CycleWaveform(3) = %v, want sine", got)
	}
}

func TestNoiseSeedIsDeterministic(t *testing.T) {
	render := func(seed uint32) []float32 {
		o := New(48000, WithWaveform(waveform.WhiteNoise), WithNoiseSeed(seed))
		o.SetNoteActive(true)
		out := make([]float32, 64)
		for i := range out {
			out[i], _ = o.Sample()
		}
		return out
	}
	a, b, c := render(7), render(7), render(8)
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs for equal seeds: %v vs %v", i, a[i], b[i])
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Fatalf("different seeds produced identical noise")
	}
}

func TestVibratoBendsPitchOnly(t *testing.T) {
	o := New(48000)
	o.SetNoteIndex(48)
	base := o.Frequency()
	o.Vibrato().SetDepth(50)
	o.Vibrato().SetRate(6)
	if got := o.Frequency(); got != base {
		t.Fatalf("Frequency() with vibrato = %v, want unmodulated %v", got, base)
	}

	// Triangle starts at +depth, so the first increment is 50 cents sharp.
	o.Sample()
	want := twoPi * base * math.Pow(2, 50.0/1200) / 48000
	if got := o.Phase(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("first phase step = %v, want %v", got, want)
	}
}

func TestConcurrentVolumeWrites(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	values := make([]float64, 1024)
	written := make(map[uint64]bool, len(values)+1)
	written[math.Float64bits(DefaultVolume)] = true
	for i := range values {
		values[i] = rng.Float64()
		written[math.Float64bits(values[i])] = true
	}

	o := New(48000, WithWaveform(waveform.Saw))
	o.SetNoteActive(true)

	var (
		wg    sync.WaitGroup
		stop  atomic.Bool
		torn  atomic.Uint64
		reads atomic.Int64
	)
	wg.Go(func() {
		for i := 0; !stop.Load(); i++ {
			o.SetVolume(values[i%len(values)])
		}
	})
	wg.Go(func() {
		for !stop.Load() {
			l, r := o.Sample()
			if math.Abs(float64(l)) > 1 || math.Abs(float64(r)) > 1 {
				torn.Store(math.Float64bits(float64(l)))
				return
			}
			if v := o.Volume(); !written[math.Float64bits(v)] {
				torn.Store(math.Float64bits(v))
				return
			}
			reads.Add(1)
		}
	})

	time.Sleep(time.Second)
	stop.Store(true)
	wg.Wait()

	if bits := torn.Load(); bits != 0 {
		t.Fatalf("observed a value that was never written: %v", math.Float64frombits(bits))
	}
	if reads.Load() == 0 {
		t.Fatalf("reader made no progress")
	}
}

func BenchmarkSample(b *testing.B) {
	o := New(48000, WithWaveform(waveform.Triangle))
	o.SetNoteActive(true)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		o.Sample()
	}
}
