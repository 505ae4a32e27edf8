package monosynth

import (
	intaudio "github.com/cbegin/monosynth-go/internal/audio"
	intosc "github.com/cbegin/monosynth-go/internal/osc"
)

// RenderFrames renders frames of interleaved stereo from o without a
// device, through the same path the audio callback uses. It advances o's
// phase, so do not call it on a voice that is playing.
func RenderFrames(o *intosc.Oscillator, frames int, headroom float64) []float32 {
	if frames <= 0 {
		return nil
	}
	out := make([]float32, frames*intaudio.Channels)
	intaudio.NewRenderer(o, headroom, nil).Render(out)
	return out
}

// RenderInt16Frames is RenderFrames for the int16 layout.
func RenderInt16Frames(o *intosc.Oscillator, frames int, headroom float64) []int16 {
	if frames <= 0 {
		return nil
	}
	out := make([]int16, frames*intaudio.Channels)
	intaudio.NewRenderer(o, headroom, nil).RenderInt16(out)
	return out
}
