package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/cbegin/monosynth-go"
	"github.com/cbegin/monosynth-go/internal/audio"
	"github.com/cbegin/monosynth-go/internal/keys"
	"github.com/cbegin/monosynth-go/internal/osc"
	"github.com/cbegin/monosynth-go/internal/waveform"
)

const helpText = `keys:
  a w s e d f t g y h u j k   play C..C (space releases)
  z / x                       octave down / up
  1 / 2  volume   3 / 4  pan   5 / 6  coarse   7 / 8  fine   9 / 0  vibrato
  [ / ]                       previous / next waveform
  q or Esc                    quit`

var errQuit = errors.New("quit")

func main() {
	var (
		sampleRate   = flag.Int("sample-rate", 48000, "output sample rate")
		bufferFrames = flag.Int("buffer-frames", 64, "device buffer length in frames")
		formatName   = flag.String("format", "f32le", "sample format: f32le|s16le")
		backendName  = flag.String("backend", "oto", "audio backend: oto|ebiten|null")
		panLawName   = flag.String("pan-law", "constant", "pan law: constant|linear")
		headroom     = flag.Float64("headroom", audio.DefaultHeadroom, "fixed output gain (0..1)")
		volume       = flag.Float64("volume", osc.DefaultVolume, "initial voice volume (0..1)")
		waveName     = flag.String("waveform", "sine", "initial waveform: sine|square|saw|triangle|noise")
	)
	flag.Parse()

	format, err := audio.ParseFormat(*formatName)
	if err != nil {
		log.Fatal(err)
	}
	backend, err := monosynth.ParseBackend(*backendName)
	if err != nil {
		log.Fatal(err)
	}
	panLaw, err := monosynth.ParsePanLaw(*panLawName)
	if err != nil {
		log.Fatal(err)
	}
	wave, err := waveform.ParseKind(*waveName)
	if err != nil {
		log.Fatal(err)
	}

	syn, err := monosynth.New(*sampleRate,
		monosynth.WithBackend(backend),
		monosynth.WithSampleFormat(format),
		monosynth.WithBufferFrames(*bufferFrames),
		monosynth.WithPanLaw(panLaw),
		monosynth.WithHeadroom(*headroom),
		monosynth.WithInitialWaveform(wave),
	)
	if err != nil {
		log.Fatal(err)
	}
	syn.Oscillator().SetVolume(*volume)
	if err := syn.Start(); err != nil {
		log.Fatal(err)
	}
	log.Printf("%s device: %s (%.1f ms)", syn.Backend(), syn.Device().Spec(), float64(syn.Spec().Latency())/float64(time.Millisecond))
	fmt.Println(helpText)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			_ = syn.Stop()
			log.Fatalf("raw terminal: %v", err)
		}
		defer func() { _ = term.Restore(fd, oldState) }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = run(ctx, syn, os.Stdin)
	fmt.Print("\r\n")
	if stopErr := syn.Stop(); stopErr != nil {
		log.Printf("stop: %v", stopErr)
	}
	if err != nil && !errors.Is(err, errQuit) && !errors.Is(err, context.Canceled) {
		log.Printf("error: %v", err)
	}
}

// run feeds key presses from in to the voice until quit, EOF or ctx ends.
// The stdin reader is not part of the group: a blocking Read cannot be
// interrupted, so it is left behind when the process exits.
func run(ctx context.Context, syn *monosynth.Synth, in io.Reader) error {
	runes := make(chan rune, 16)
	readErr := make(chan error, 1)
	go func() {
		rd := bufio.NewReader(in)
		for {
			r, _, err := rd.ReadRune()
			if err != nil {
				readErr <- err
				return
			}
			runes <- r
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kb := keys.New()
		o := syn.Oscillator()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err := <-readErr:
				if errors.Is(err, io.EOF) {
					return errQuit
				}
				return err
			case r := <-runes:
				if !keys.Apply(o, kb.Translate(r)) {
					return errQuit
				}
			}
		}
	})
	g.Go(func() error {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				printStatus(syn)
			}
		}
	})
	return g.Wait()
}

func printStatus(syn *monosynth.Synth) {
	p := syn.Oscillator().Params()
	gate := "off"
	if p.NoteActive {
		gate = "ON "
	}
	fmt.Printf("\r\x1b[K%-8s note %2d %7.2f Hz  gate %s  vol %.2f  pan %+.2f  coarse %+3.0f  fine %+4.0f  vib %3.0f",
		p.Waveform, p.NoteIndex, p.Frequency, gate, p.Volume, p.Pan, p.CoarsePitch, p.FinePitch,
		syn.Oscillator().VibratoDepth())
}
