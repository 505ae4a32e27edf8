package monosynth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	intaudio "github.com/cbegin/monosynth-go/internal/audio"
	intosc "github.com/cbegin/monosynth-go/internal/osc"
	intwave "github.com/cbegin/monosynth-go/internal/waveform"
)

type Backend string

const (
	BackendOto    Backend = "oto"
	BackendEbiten Backend = "ebiten"
	BackendNull   Backend = "null"
)

// ParseBackend accepts oto, ebiten or null.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case BackendOto, BackendEbiten, BackendNull:
		return b, nil
	default:
		return "", fmt.Errorf("invalid backend %q (expected oto|ebiten|null)", name)
	}
}

// ParsePanLaw accepts constant or linear.
func ParsePanLaw(name string) (intosc.PanLaw, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "constant", "constant-power", "power":
		return intosc.PanConstantPower, nil
	case "linear":
		return intosc.PanLinear, nil
	default:
		return 0, fmt.Errorf("invalid pan law %q (expected constant|linear)", name)
	}
}

type Option func(*config)

type config struct {
	backend      Backend
	format       intaudio.Format
	bufferFrames int
	panLaw       intosc.PanLaw
	headroom     float64
	waveform     intwave.Kind
	tap          *intaudio.Ring
}

func defaultConfig() config {
	spec := intaudio.DefaultSpec()
	return config{
		backend:      BackendOto,
		format:       spec.Format,
		bufferFrames: spec.BufferFrames,
		panLaw:       intosc.PanConstantPower,
		headroom:     intaudio.DefaultHeadroom,
		waveform:     intwave.Sine,
	}
}

func WithBackend(b Backend) Option {
	return func(cfg *config) {
		cfg.backend = b
	}
}

func WithSampleFormat(f intaudio.Format) Option {
	return func(cfg *config) {
		cfg.format = f
	}
}

// WithBufferFrames sets the device buffer length. Smaller buffers lower
// latency but underrun more easily; 64 to 256 is typical.
func WithBufferFrames(frames int) Option {
	return func(cfg *config) {
		cfg.bufferFrames = frames
	}
}

func WithPanLaw(law intosc.PanLaw) Option {
	return func(cfg *config) {
		cfg.panLaw = law
	}
}

// WithHeadroom sets the fixed output gain applied after the voice volume.
func WithHeadroom(gain float64) Option {
	return func(cfg *config) {
		cfg.headroom = gain
	}
}

func WithInitialWaveform(k intwave.Kind) Option {
	return func(cfg *config) {
		cfg.waveform = k
	}
}

// WithSampleTap mirrors every rendered frame, mixed to mono, into ring.
// Pushes happen on the audio thread and never block.
func WithSampleTap(ring *intaudio.Ring) Option {
	return func(cfg *config) {
		cfg.tap = ring
	}
}

// Synth owns one voice, its renderer and one output device. Control
// methods on the voice may be called at any time; Start and Stop manage
// the device.
type Synth struct {
	mu       sync.Mutex
	cfg      config
	spec     intaudio.Spec
	osc      *intosc.Oscillator
	renderer *intaudio.Renderer
	stream   *intaudio.StreamReader
	device   intaudio.Device
}

func New(sampleRate int, opts ...Option) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := ParseBackend(string(cfg.backend)); err != nil {
		return nil, err
	}
	if !cfg.waveform.Valid() {
		return nil, fmt.Errorf("invalid waveform %v", cfg.waveform)
	}
	if cfg.headroom < 0 || cfg.headroom > 1 {
		return nil, fmt.Errorf("headroom %v outside [0, 1]", cfg.headroom)
	}
	spec := intaudio.Spec{
		SampleRate:   sampleRate,
		Channels:     intaudio.Channels,
		Format:       cfg.format,
		BufferFrames: cfg.bufferFrames,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	o := intosc.New(sampleRate, intosc.WithPanLaw(cfg.panLaw), intosc.WithWaveform(cfg.waveform))
	return &Synth{
		cfg:      cfg,
		spec:     spec,
		osc:      o,
		renderer: intaudio.NewRenderer(o, cfg.headroom, cfg.tap),
	}, nil
}

// Oscillator returns the voice. Its setters are the control surface.
func (s *Synth) Oscillator() *intosc.Oscillator { return s.osc }

// Spec returns the requested stream layout, which equals the negotiated
// one once Start has succeeded.
func (s *Synth) Spec() intaudio.Spec { return s.spec }

func (s *Synth) Backend() Backend { return s.cfg.backend }

// Start opens the device and begins playback. A device that grants a
// different layout than requested is closed and reported as an error
// wrapping audio.ErrFormatMismatch.
func (s *Synth) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device != nil {
		return nil
	}
	stream := intaudio.NewStreamReader(s.renderer, s.spec)
	dev, err := openDevice(s.cfg.backend, s.spec, stream)
	if err != nil {
		return fmt.Errorf("open %s device: %w", s.cfg.backend, err)
	}
	if err := intaudio.Negotiate(s.spec, dev.Spec()); err != nil {
		_ = dev.Close()
		return fmt.Errorf("%s device: %w", s.cfg.backend, err)
	}
	s.stream = stream
	s.device = dev
	s.device.Play()
	return nil
}

// openDevice is a variable so tests can substitute a device that grants a
// different layout.
var openDevice = openBackend

func openBackend(b Backend, spec intaudio.Spec, stream *intaudio.StreamReader) (intaudio.Device, error) {
	switch b {
	case BackendOto:
		return intaudio.OpenOto(spec, stream)
	case BackendEbiten:
		return intaudio.OpenEbiten(spec, stream)
	case BackendNull:
		return intaudio.OpenNull(spec, stream)
	default:
		return nil, fmt.Errorf("unknown backend %q", b)
	}
}

// Device returns the running device, or nil when stopped.
func (s *Synth) Device() intaudio.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device
}

// Running reports whether a device is open.
func (s *Synth) Running() bool {
	return s.Device() != nil
}

// Stop closes the device. The voice keeps its parameters, so a later Start
// resumes with the same settings and a continuous phase.
func (s *Synth) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		return nil
	}
	err := s.device.Close()
	_ = s.stream.Close()
	s.device = nil
	s.stream = nil
	return err
}
