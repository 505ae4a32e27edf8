// Package keys turns keyboard input into parameter changes on a voice.
package keys

// Action is what a key asks the voice to do.
type Action int

const (
	ActionNone Action = iota
	ActionNote
	ActionRelease
	ActionVolumeDown
	ActionVolumeUp
	ActionPanLeft
	ActionPanRight
	ActionCoarseDown
	ActionCoarseUp
	ActionFineDown
	ActionFineUp
	ActionVibratoDown
	ActionVibratoUp
	ActionPrevWaveform
	ActionNextWaveform
	ActionOctaveDown
	ActionOctaveUp
	ActionQuit
)

// Step sizes for the increment actions.
const (
	VolumeStep  = 0.05
	PanStep     = 0.05
	CoarseStep  = 1.0
	FineStep    = 5.0
	VibratoStep = 5.0
)

const (
	DefaultOctave = 4
	MinOctave     = 1
	MaxOctave     = 7

	maxNoteIndex = 87
)

// noteRow is laid out like a piano: the home row holds white keys and the
// row above it the black keys.
var noteRow = map[rune]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5, 't': 6,
	'g': 7, 'y': 8, 'h': 9, 'u': 10, 'j': 11, 'k': 12,
}

var actionKeys = map[rune]Action{
	' ': ActionRelease,
	'1': ActionVolumeDown,
	'2': ActionVolumeUp,
	'3': ActionPanLeft,
	'4': ActionPanRight,
	'5': ActionCoarseDown,
	'6': ActionCoarseUp,
	'7': ActionFineDown,
	'8': ActionFineUp,
	'9': ActionVibratoDown,
	'0': ActionVibratoUp,
	'[': ActionPrevWaveform,
	']': ActionNextWaveform,
	'z': ActionOctaveDown,
	'x': ActionOctaveUp,
	'q': ActionQuit,

	'\x1b': ActionQuit, // Esc
	'\x03': ActionQuit, // Ctrl-C in raw mode
}

// Event is a translated key press.
type Event struct {
	Action Action
	Note   uint8 // valid for ActionNote
}

// Keyboard tracks the octave the note row plays in.
type Keyboard struct {
	octave int
}

func New() *Keyboard {
	return &Keyboard{octave: DefaultOctave}
}

func (k *Keyboard) Octave() int { return k.octave }

// NoteIndex returns the 88-key index for a semitone above C of the
// current octave. C1 is index 3.
func (k *Keyboard) NoteIndex(semitone int) uint8 {
	idx := 3 + 12*(k.octave-1) + semitone
	if idx < 0 {
		idx = 0
	}
	if idx > maxNoteIndex {
		idx = maxNoteIndex
	}
	return uint8(idx)
}

// IsNoteKey reports whether r belongs to the note row.
func IsNoteKey(r rune) bool {
	_, ok := noteRow[toLower(r)]
	return ok
}

// Translate maps a key to an event. Octave changes are applied to the
// keyboard immediately and still reported so callers can show them.
func (k *Keyboard) Translate(r rune) Event {
	r = toLower(r)
	if semi, ok := noteRow[r]; ok {
		return Event{Action: ActionNote, Note: k.NoteIndex(semi)}
	}
	a, ok := actionKeys[r]
	if !ok {
		return Event{}
	}
	switch a {
	case ActionOctaveDown:
		if k.octave > MinOctave {
			k.octave--
		}
	case ActionOctaveUp:
		if k.octave < MaxOctave {
			k.octave++
		}
	}
	return Event{Action: a}
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
