package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync/atomic"
)

// FrameSource produces one stereo frame per call. It is called only from
// the audio goroutine.
type FrameSource interface {
	Sample() (float32, float32)
}

// DefaultHeadroom scales full-scale voice output down by about 20 dB.
const DefaultHeadroom = 0.1

// Renderer is the real-time callback body: it pulls frames from a source,
// applies the fixed headroom and writes interleaved stereo. It does not
// allocate, lock or block.
type Renderer struct {
	src      FrameSource
	headroom float32
	tap      *Ring
}

// NewRenderer builds a renderer. tap may be nil.
func NewRenderer(src FrameSource, headroom float64, tap *Ring) *Renderer {
	if headroom < 0 {
		headroom = 0
	}
	if headroom > 1 {
		headroom = 1
	}
	return &Renderer{src: src, headroom: float32(headroom), tap: tap}
}

func (r *Renderer) Headroom() float64 { return float64(r.headroom) }

func (r *Renderer) frame() (float32, float32) {
	l, rr := r.src.Sample()
	l *= r.headroom
	rr *= r.headroom
	if r.tap != nil {
		r.tap.Push((l + rr) * 0.5)
	}
	return l, rr
}

// Render fills len(dst)/2 interleaved frames. A trailing odd sample is zeroed.
func (r *Renderer) Render(dst []float32) {
	n := len(dst) &^ 1
	for i := 0; i < n; i += 2 {
		dst[i], dst[i+1] = r.frame()
	}
	if n < len(dst) {
		dst[n] = 0
	}
}

// RenderInt16 fills len(dst)/2 interleaved frames scaled to the int16 range.
func (r *Renderer) RenderInt16(dst []int16) {
	n := len(dst) &^ 1
	for i := 0; i < n; i += 2 {
		l, rr := r.frame()
		dst[i] = toInt16(l)
		dst[i+1] = toInt16(rr)
	}
	if n < len(dst) {
		dst[n] = 0
	}
}

func toInt16(v float32) int16 {
	s := math.Round(float64(v) * 32767)
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return int16(s)
}

// StreamReader adapts a Renderer to the io.Reader pull model used by the
// device bindings. Scratch space is sized once for the negotiated buffer;
// larger reads are served in buffer-sized chunks.
type StreamReader struct {
	renderer *Renderer
	format   Format
	f32      []float32
	i16      []int16
	closed   atomic.Bool
}

func NewStreamReader(renderer *Renderer, spec Spec) *StreamReader {
	frames := spec.BufferFrames
	if frames <= 0 {
		frames = DefaultSpec().BufferFrames
	}
	s := &StreamReader{renderer: renderer, format: spec.Format}
	switch spec.Format {
	case FormatInt16LE:
		s.i16 = make([]int16, frames*Channels)
	default:
		s.format = FormatFloat32LE
		s.f32 = make([]float32, frames*Channels)
	}
	return s
}

func (s *StreamReader) Format() Format { return s.format }

// Read renders as many whole frames as fit in p.
func (s *StreamReader) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, io.EOF
	}
	bpf := Channels * s.format.BytesPerSample()
	frames := len(p) / bpf
	if frames == 0 {
		return 0, nil
	}
	off := 0
	for done := 0; done < frames; {
		chunk := frames - done
		switch s.format {
		case FormatInt16LE:
			if limit := len(s.i16) / Channels; chunk > limit {
				chunk = limit
			}
			buf := s.i16[:chunk*Channels]
			s.renderer.RenderInt16(buf)
			for _, v := range buf {
				binary.LittleEndian.PutUint16(p[off:], uint16(v))
				off += 2
			}
		default:
			if limit := len(s.f32) / Channels; chunk > limit {
				chunk = limit
			}
			buf := s.f32[:chunk*Channels]
			s.renderer.Render(buf)
			for _, v := range buf {
				binary.LittleEndian.PutUint32(p[off:], math.Float32bits(v))
				off += 4
			}
		}
		done += chunk
	}
	return frames * bpf, nil
}

// Close makes subsequent reads return io.EOF so the device drains and stops.
func (s *StreamReader) Close() error {
	s.closed.Store(true)
	return nil
}
