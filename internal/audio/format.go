package audio

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidSpec       = errors.New("invalid audio spec")
	ErrUnsupportedFormat = errors.New("unsupported sample format")
	ErrFormatMismatch    = errors.New("negotiated audio format differs from request")
	ErrDeviceClosed      = errors.New("audio device closed")
)

// Format is the on-the-wire sample encoding handed to the device.
type Format int

const (
	FormatFloat32LE Format = iota
	FormatInt16LE
)

func (f Format) String() string {
	switch f {
	case FormatFloat32LE:
		return "f32le"
	case FormatInt16LE:
		return "s16le"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

func (f Format) BytesPerSample() int {
	switch f {
	case FormatFloat32LE:
		return 4
	case FormatInt16LE:
		return 2
	default:
		return 0
	}
}

func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "f32", "f32le", "float32", "float":
		return FormatFloat32LE, nil
	case "s16", "s16le", "int16":
		return FormatInt16LE, nil
	default:
		return 0, fmt.Errorf("%w %q (expected f32|s16)", ErrUnsupportedFormat, name)
	}
}

// Channels is the only channel count the renderer produces.
const Channels = 2

// Spec describes the stream the renderer writes and the device consumes.
type Spec struct {
	SampleRate   int
	Channels     int
	Format       Format
	BufferFrames int
}

// DefaultSpec is 48 kHz stereo float32 with 64-frame buffers (about 1.3 ms).
func DefaultSpec() Spec {
	return Spec{
		SampleRate:   48000,
		Channels:     Channels,
		Format:       FormatFloat32LE,
		BufferFrames: 64,
	}
}

func (s Spec) Validate() error {
	switch {
	case s.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d must be positive", ErrInvalidSpec, s.SampleRate)
	case s.Channels != Channels:
		return fmt.Errorf("%w: %d channels, only stereo is supported", ErrInvalidSpec, s.Channels)
	case s.Format.BytesPerSample() == 0:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.Format)
	case s.BufferFrames <= 0:
		return fmt.Errorf("%w: buffer of %d frames must be positive", ErrInvalidSpec, s.BufferFrames)
	}
	return nil
}

func (s Spec) BytesPerFrame() int {
	return s.Channels * s.Format.BytesPerSample()
}

func (s Spec) BufferBytes() int {
	return s.BufferFrames * s.BytesPerFrame()
}

// Latency is the time one buffer covers, which is also the render deadline.
func (s Spec) Latency() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(s.BufferFrames) * time.Second / time.Duration(s.SampleRate)
}

func (s Spec) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %s, %d frames (%s)", s.SampleRate, s.Channels, s.Format, s.BufferFrames, s.Latency())
}

// Negotiate compares what a device granted against what the renderer was
// built for. The sample layout is fixed at construction, so any difference
// is fatal.
func Negotiate(want, got Spec) error {
	var diffs []string
	if want.SampleRate != got.SampleRate {
		diffs = append(diffs, fmt.Sprintf("sample rate %d != %d", got.SampleRate, want.SampleRate))
	}
	if want.Channels != got.Channels {
		diffs = append(diffs, fmt.Sprintf("channels %d != %d", got.Channels, want.Channels))
	}
	if want.Format != got.Format {
		diffs = append(diffs, fmt.Sprintf("format %s != %s", got.Format, want.Format))
	}
	if want.BufferFrames != got.BufferFrames {
		diffs = append(diffs, fmt.Sprintf("buffer %d != %d frames", got.BufferFrames, want.BufferFrames))
	}
	if len(diffs) > 0 {
		return fmt.Errorf("%w: %s", ErrFormatMismatch, strings.Join(diffs, ", "))
	}
	return nil
}
