package audio

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Device is an opened output that pulls from a reader on its own goroutine.
// Devices open paused; Play starts pulling.
type Device interface {
	Spec() Spec
	Play()
	Pause()
	Close() error
}

var (
	ebitenOnce sync.Once
	ebitenCtx  *ebitaudio.Context
	ebitenRate int
)

func sharedEbitenContext(sampleRate int) (*ebitaudio.Context, error) {
	ebitenOnce.Do(func() {
		ebitenRate = sampleRate
		ebitenCtx = ebitaudio.NewContext(sampleRate)
	})
	if ebitenRate != sampleRate {
		return nil, fmt.Errorf("ebiten audio context already initialized at %d Hz (requested %d Hz)", ebitenRate, sampleRate)
	}
	return ebitenCtx, nil
}

// EbitenDevice plays through the ebiten audio context, which only accepts
// float32 stereo.
type EbitenDevice struct {
	player *ebitaudio.Player
	spec   Spec
}

func OpenEbiten(want Spec, r io.Reader) (*EbitenDevice, error) {
	if err := want.Validate(); err != nil {
		return nil, err
	}
	if want.Format != FormatFloat32LE {
		return nil, fmt.Errorf("ebiten: %w: %s", ErrUnsupportedFormat, want.Format)
	}
	ctx, err := sharedEbitenContext(want.SampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(r)
	if err != nil {
		return nil, err
	}
	pl.SetBufferSize(want.Latency())
	got := want
	got.SampleRate = ctx.SampleRate()
	return &EbitenDevice{player: pl, spec: got}, nil
}

func (d *EbitenDevice) Spec() Spec { return d.spec }
func (d *EbitenDevice) Play()      { d.player.Play() }
func (d *EbitenDevice) Pause()     { d.player.Pause() }

func (d *EbitenDevice) Close() error {
	d.player.Pause()
	return d.player.Close()
}

var (
	otoMu   sync.Mutex
	otoCtx  *oto.Context
	otoOpts oto.NewContextOptions
)

func sharedOtoContext(opts oto.NewContextOptions) (*oto.Context, oto.NewContextOptions, error) {
	otoMu.Lock()
	defer otoMu.Unlock()
	if otoCtx != nil {
		return otoCtx, otoOpts, nil
	}
	ctx, ready, err := oto.NewContext(&opts)
	if err != nil {
		return nil, opts, err
	}
	<-ready
	otoCtx = ctx
	otoOpts = opts
	return ctx, opts, nil
}

// OtoDevice plays through oto directly. It supports both float32 and int16
// and passes the buffer size to the driver.
type OtoDevice struct {
	ctx    *oto.Context
	player *oto.Player
	spec   Spec
}

// OpenOto opens a player on the process-wide oto context. oto does not
// report what the hardware granted, so the returned Spec describes the
// options the shared context was created with. It differs from want only
// when an earlier open created that context with other options.
func OpenOto(want Spec, r io.Reader) (*OtoDevice, error) {
	if err := want.Validate(); err != nil {
		return nil, err
	}
	format, err := otoFormat(want.Format)
	if err != nil {
		return nil, err
	}
	ctx, opts, err := sharedOtoContext(oto.NewContextOptions{
		SampleRate:   want.SampleRate,
		ChannelCount: want.Channels,
		Format:       format,
		BufferSize:   want.Latency(),
	})
	if err != nil {
		return nil, fmt.Errorf("oto: %w", err)
	}
	got := Spec{
		SampleRate:   opts.SampleRate,
		Channels:     opts.ChannelCount,
		Format:       fromOtoFormat(opts.Format),
		BufferFrames: want.BufferFrames,
	}
	if opts.BufferSize != want.Latency() {
		got.BufferFrames = int(opts.BufferSize * time.Duration(opts.SampleRate) / time.Second)
	}
	pl := ctx.NewPlayer(r)
	pl.SetBufferSize(got.BufferBytes())
	return &OtoDevice{ctx: ctx, player: pl, spec: got}, nil
}

func otoFormat(f Format) (oto.Format, error) {
	switch f {
	case FormatFloat32LE:
		return oto.FormatFloat32LE, nil
	case FormatInt16LE:
		return oto.FormatSignedInt16LE, nil
	default:
		return 0, fmt.Errorf("oto: %w: %s", ErrUnsupportedFormat, f)
	}
}

func fromOtoFormat(f oto.Format) Format {
	switch f {
	case oto.FormatSignedInt16LE:
		return FormatInt16LE
	case oto.FormatFloat32LE:
		return FormatFloat32LE
	default:
		return Format(-1)
	}
}

func (d *OtoDevice) Spec() Spec { return d.spec }
func (d *OtoDevice) Play()      { d.player.Play() }
func (d *OtoDevice) Pause()     { d.player.Pause() }

// Err reports an asynchronous driver failure, if any.
func (d *OtoDevice) Err() error { return d.ctx.Err() }

func (d *OtoDevice) Close() error {
	d.player.Pause()
	return d.player.Close()
}

// NullDevice pulls one buffer per buffer period from its own goroutine and
// discards it. It stands in for hardware in tests and headless runs.
type NullDevice struct {
	spec Spec
	r    io.Reader
	buf  []byte

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	closed  bool
	frames  atomic.Int64
	lastErr atomic.Pointer[error]
}

func OpenNull(want Spec, r io.Reader) (*NullDevice, error) {
	if err := want.Validate(); err != nil {
		return nil, err
	}
	return &NullDevice{spec: want, r: r, buf: make([]byte, want.BufferBytes())}, nil
}

func (d *NullDevice) Spec() Spec { return d.spec }

func (d *NullDevice) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.stop != nil {
		return
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.run(d.stop, d.done)
}

func (d *NullDevice) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	period := d.spec.Latency()
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	bpf := d.spec.BytesPerFrame()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		n, err := io.ReadFull(d.r, d.buf)
		d.frames.Add(int64(n / bpf))
		if err != nil {
			d.lastErr.Store(&err)
			return
		}
	}
}

func (d *NullDevice) Pause() {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

// Frames returns how many frames have been pulled since open.
func (d *NullDevice) Frames() int64 { return d.frames.Load() }

// Err returns the read error that stopped the pull loop, if any.
func (d *NullDevice) Err() error {
	if err := d.lastErr.Load(); err != nil {
		return *err
	}
	return nil
}

func (d *NullDevice) Close() error {
	d.Pause()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDeviceClosed
	}
	d.closed = true
	return nil
}
