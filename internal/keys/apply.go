package keys

// Surface is the subset of voice controls the keyboard drives.
type Surface interface {
	SetNoteActive(bool)
	SetNoteIndex(uint8)
	SetVolume(float64)
	Volume() float64
	SetPan(float64)
	Pan() float64
	SetCoarsePitch(float64)
	CoarsePitch() float64
	SetFinePitch(float64)
	FinePitch() float64
	CycleWaveform(direction int)
}

// VibratoSurface is implemented by voices with a depth-controllable
// vibrato. It is optional.
type VibratoSurface interface {
	SetVibratoDepth(cents float64)
	VibratoDepth() float64
}

// Apply performs ev against s. It returns false when ev asks to quit.
func Apply(s Surface, ev Event) bool {
	switch ev.Action {
	case ActionNote:
		s.SetNoteIndex(ev.Note)
		s.SetNoteActive(true)
	case ActionRelease:
		s.SetNoteActive(false)
	case ActionVolumeDown:
		s.SetVolume(s.Volume() - VolumeStep)
	case ActionVolumeUp:
		s.SetVolume(s.Volume() + VolumeStep)
	case ActionPanLeft:
		s.SetPan(s.Pan() - PanStep)
	case ActionPanRight:
		s.SetPan(s.Pan() + PanStep)
	case ActionCoarseDown:
		s.SetCoarsePitch(s.CoarsePitch() - CoarseStep)
	case ActionCoarseUp:
		s.SetCoarsePitch(s.CoarsePitch() + CoarseStep)
	case ActionFineDown:
		s.SetFinePitch(s.FinePitch() - FineStep)
	case ActionFineUp:
		s.SetFinePitch(s.FinePitch() + FineStep)
	case ActionVibratoDown, ActionVibratoUp:
		if v, ok := s.(VibratoSurface); ok {
			step := VibratoStep
			if ev.Action == ActionVibratoDown {
				step = -step
			}
			v.SetVibratoDepth(v.VibratoDepth() + step)
		}
	case ActionPrevWaveform:
		s.CycleWaveform(-1)
	case ActionNextWaveform:
		s.CycleWaveform(1)
	case ActionQuit:
		return false
	}
	return true
}
