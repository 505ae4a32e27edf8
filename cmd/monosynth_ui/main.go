package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/cbegin/monosynth-go"
	"github.com/cbegin/monosynth-go/internal/audio"
	"github.com/cbegin/monosynth-go/internal/keys"
	"github.com/cbegin/monosynth-go/internal/osc"
	"github.com/cbegin/monosynth-go/internal/waveform"
)

const (
	windowW    = 1000
	windowH    = 640
	minWindowW = 900
	minWindowH = 600

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale

	scopeLen    = 2048
	previewLen  = 256
	tapRingSize = 8192
)

var (
	bgColor         = color.RGBA{192, 192, 192, 255}
	panelColor      = color.RGBA{192, 192, 192, 255}
	borderColor     = color.RGBA{128, 128, 128, 255}
	bevelLight      = color.RGBA{255, 255, 255, 255}
	bevelDarker     = color.RGBA{64, 64, 64, 255}
	sunkenBgColor   = color.RGBA{24, 24, 32, 255}
	sliderFillColor = color.RGBA{0, 0, 128, 255}
	gateOnColor     = color.RGBA{0, 128, 0, 255}
	waveColor       = color.RGBA{80, 200, 255, 220}
	previewColor    = color.RGBA{255, 200, 80, 220}
)

// noteKeys maps physical keys to the runes keys.Keyboard understands.
var noteKeys = []struct {
	key ebiten.Key
	r   rune
}{
	{ebiten.KeyA, 'a'}, {ebiten.KeyW, 'w'}, {ebiten.KeyS, 's'}, {ebiten.KeyE, 'e'},
	{ebiten.KeyD, 'd'}, {ebiten.KeyF, 'f'}, {ebiten.KeyT, 't'}, {ebiten.KeyG, 'g'},
	{ebiten.KeyY, 'y'}, {ebiten.KeyH, 'h'}, {ebiten.KeyU, 'u'}, {ebiten.KeyJ, 'j'},
	{ebiten.KeyK, 'k'},
}

var controlKeys = []struct {
	key ebiten.Key
	r   rune
}{
	{ebiten.KeyZ, 'z'}, {ebiten.KeyX, 'x'},
	{ebiten.KeyBracketLeft, '['}, {ebiten.KeyBracketRight, ']'},
	{ebiten.KeyDigit1, '1'}, {ebiten.KeyDigit2, '2'}, {ebiten.KeyDigit3, '3'},
	{ebiten.KeyDigit4, '4'}, {ebiten.KeyDigit5, '5'}, {ebiten.KeyDigit6, '6'},
	{ebiten.KeyDigit7, '7'}, {ebiten.KeyDigit8, '8'}, {ebiten.KeyDigit9, '9'},
	{ebiten.KeyDigit0, '0'},
}

var noteNames = [12]string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

func noteName(index uint8) string {
	return fmt.Sprintf("%s%d", noteNames[int(index)%12], (int(index)+9)/12)
}

// slider binds a horizontal track to one voice parameter.
type slider struct {
	label    string
	min, max float64
	get      func() float64
	set      func(float64)
	format   func(float64) string
}

type game struct {
	synth *monosynth.Synth
	voice *osc.Oscillator
	kb    *keys.Keyboard
	tap   *audio.Ring

	sliders  []slider
	dragging int // slider index, -1 when idle

	held    []rune // note keys currently down, most recent last
	latched bool   // gate held by the on-screen button

	scope    []float32
	preview  []float32
	noise    *waveform.Noise
	wavePeak float64

	status    string
	textCache map[string]*ebiten.Image
	viewW     int
	viewH     int
}

func newGame(syn *monosynth.Synth, tap *audio.Ring) *game {
	v := syn.Oscillator()
	g := &game{
		synth:     syn,
		voice:     v,
		kb:        keys.New(),
		tap:       tap,
		dragging:  -1,
		scope:     make([]float32, scopeLen),
		preview:   make([]float32, previewLen),
		noise:     waveform.NewNoise(0x5EED),
		status:    "Play with A..K, Z/X for octave",
		textCache: make(map[string]*ebiten.Image, 256),
		viewW:     windowW,
		viewH:     windowH,
	}
	g.sliders = []slider{
		{"Vol", osc.VolumeMin, osc.VolumeMax, v.Volume, v.SetVolume,
			func(x float64) string { return fmt.Sprintf("%d%%", int(x*100+0.5)) }},
		{"Pan", osc.PanMin, osc.PanMax, v.Pan, v.SetPan,
			func(x float64) string { return fmt.Sprintf("%+.2f", x) }},
		{"Coarse", osc.CoarseMin, osc.CoarseMax, v.CoarsePitch,
			func(x float64) { v.SetCoarsePitch(math.Round(x)) },
			func(x float64) string { return fmt.Sprintf("%+.0f st", x) }},
		{"Fine", osc.FineMin, osc.FineMax, v.FinePitch,
			func(x float64) { v.SetFinePitch(math.Round(x)) },
			func(x float64) string { return fmt.Sprintf("%+.0f ct", x) }},
		{"Vibrato", 0, 100, v.VibratoDepth,
			func(x float64) { v.SetVibratoDepth(math.Round(x)) },
			func(x float64) string { return fmt.Sprintf("%.0f ct", x) }},
	}
	return g
}

func (g *game) Update() error {
	g.handleKeys()
	g.handleMouse()
	return nil
}

func (g *game) handleKeys() {
	for _, nk := range noteKeys {
		if inpututil.IsKeyJustPressed(nk.key) {
			g.held = append(g.held, nk.r)
		}
		if inpututil.IsKeyJustReleased(nk.key) {
			g.release(nk.r)
		}
	}
	for _, ck := range controlKeys {
		if inpututil.IsKeyJustPressed(ck.key) {
			keys.Apply(g.voice, g.kb.Translate(ck.r))
			if ck.r == 'z' || ck.r == 'x' {
				g.status = fmt.Sprintf("Octave %d", g.kb.Octave())
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.latched = false
		g.held = g.held[:0]
	}
	g.updateGate()
}

func (g *game) release(r rune) {
	for i, h := range g.held {
		if h == r {
			g.held = append(g.held[:i], g.held[i+1:]...)
			return
		}
	}
}

// updateGate plays the most recently pressed key that is still down.
func (g *game) updateGate() {
	if n := len(g.held); n > 0 {
		ev := g.kb.Translate(g.held[n-1])
		if g.voice.NoteIndex() != ev.Note || !g.voice.NoteActive() {
			keys.Apply(g.voice, ev)
		}
		return
	}
	g.voice.SetNoteActive(g.latched)
}

func (g *game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	l := g.layoutRects()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		switch {
		case pointInRect(mx, my, l.gate):
			g.latched = !g.latched
			return
		case pointInRect(mx, my, l.wave):
			g.voice.NextWaveform()
			g.status = "Waveform: " + g.voice.Waveform().String()
			return
		}
		for i, r := range l.sliders {
			if pointInRect(mx, my, r) {
				g.dragging = i
				g.updateSliderFromMouse(i, mx, r)
				return
			}
		}
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) && pointInRect(mx, my, l.wave) {
		g.voice.PrevWaveform()
		g.status = "Waveform: " + g.voice.Waveform().String()
	}
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.dragging = -1
	}
	if g.dragging >= 0 {
		g.updateSliderFromMouse(g.dragging, mx, l.sliders[g.dragging])
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	l := g.layoutRects()

	g.drawDarkPanel(screen, l.preview)
	g.drawDarkPanel(screen, l.scope)
	g.drawPreview(screen, l.preview)
	g.drawScope(screen, l.scope)

	gateLabel := "Gate off"
	var gateFill color.Color = panelColor
	if g.voice.NoteActive() {
		gateLabel = "Gate ON"
		gateFill = gateOnColor
	}
	g.drawButton(screen, l.gate, gateLabel, gateFill)
	g.drawButton(screen, l.wave, "Wave: "+g.voice.Waveform().String(), panelColor)
	for i, r := range l.sliders {
		g.drawSlider(screen, r, g.sliders[i])
	}

	g.drawSunkenPanel(screen, l.status)
	p := g.voice.Params()
	msg := fmt.Sprintf("%s  %s  %.2f Hz  oct %d  |  %s", noteName(p.NoteIndex), p.Waveform, p.Frequency, g.kb.Octave(), g.status)
	maxChars := max(8, (l.status.Dx()-16)/charW)
	g.drawText(screen, shortenEnd(msg, maxChars), l.status.Min.X+8, l.status.Min.Y+6)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	if outsideW < minWindowW {
		outsideW = minWindowW
	}
	if outsideH < minWindowH {
		outsideH = minWindowH
	}
	g.viewW = outsideW
	g.viewH = outsideH
	return outsideW, outsideH
}

type uiLayout struct {
	preview, scope image.Rectangle
	gate, wave     image.Rectangle
	sliders        []image.Rectangle
	status         image.Rectangle
}

func (g *game) layoutRects() uiLayout {
	w, h := g.viewW, g.viewH
	pad := 20
	rowH := 44
	statusH := 40

	statusTop := h - pad - statusH
	sliderTop := statusTop - 12 - len(g.sliders)*(rowH+8)
	buttonTop := sliderTop - rowH - 12
	graphBottom := buttonTop - 12

	previewW := (w - 2*pad) / 3
	l := uiLayout{
		preview: image.Rect(pad, pad, pad+previewW, graphBottom),
		scope:   image.Rect(pad+previewW+12, pad, w-pad, graphBottom),
		gate:    image.Rect(pad, buttonTop, pad+200, buttonTop+rowH),
		wave:    image.Rect(pad+212, buttonTop, pad+500, buttonTop+rowH),
		status:  image.Rect(pad, statusTop, w-pad, statusTop+statusH),
	}
	for i := range g.sliders {
		top := sliderTop + i*(rowH+8)
		l.sliders = append(l.sliders, image.Rect(pad, top, w-pad, top+rowH))
	}
	return l
}

// drawPreview draws one period of the selected waveform, brighter while the
// gate is open.
func (g *game) drawPreview(screen *ebiten.Image, rect image.Rectangle) {
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+8, rect.Max.X-8, rect.Max.Y-8)
	if inner.Dx() < 2 || inner.Dy() < 4 {
		return
	}
	waveform.Cycle(g.voice.Waveform(), g.preview, g.noise)
	midY := float64(inner.Min.Y + inner.Dy()/2)
	gain := float64(inner.Dy()/2-4) * g.voice.Volume()
	ebitenutil.DrawRect(screen, float64(inner.Min.X), midY, float64(inner.Dx()), 1, color.RGBA{40, 44, 58, 100})

	size := 2.0
	if g.voice.NoteActive() {
		size = 4
	}
	for i, s := range g.preview {
		x := float64(inner.Min.X) + float64(i)*float64(inner.Dx()-1)/float64(len(g.preview)-1)
		y := midY - float64(s)*gain
		ebitenutil.DrawRect(screen, x-size/2, y-size/2, size, size, previewColor)
	}
}

// drawScope draws the most recent output from the tap ring, triggered on a
// rising zero crossing.
func (g *game) drawScope(screen *ebiten.Image, rect image.Rectangle) {
	inner := image.Rect(rect.Min.X+8, rect.Min.Y+8, rect.Max.X-8, rect.Max.Y-8)
	width, height := inner.Dx(), inner.Dy()
	if width < 2 || height < 4 {
		return
	}
	g.tap.Snapshot(g.scope)
	samples := g.scope
	midY := inner.Min.Y + height/2
	ebitenutil.DrawRect(screen, float64(inner.Min.X), float64(midY), float64(width), 1, color.RGBA{40, 44, 58, 100})

	peak := float32(0)
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	target := math.Max(float64(peak), 0.01)
	if target > g.wavePeak {
		g.wavePeak = g.wavePeak*0.3 + target*0.7
	} else {
		g.wavePeak = g.wavePeak*0.995 + target*0.005
	}
	gain := float64(height/2-2) / math.Max(g.wavePeak, 0.01)

	trigger := findZeroCrossing(samples, len(samples)/2)
	visible := min(len(samples)-trigger, len(samples)/4)
	if visible < 2 {
		return
	}
	prevX := float64(inner.Min.X)
	prevY := float64(midY) - float64(samples[trigger])*gain
	for px := 1; px < width; px++ {
		si := trigger + px*visible/width
		y := float64(midY) - float64(samples[si])*gain
		x := float64(inner.Min.X + px)
		ebitenutil.DrawLine(screen, prevX, prevY, x, y, waveColor)
		prevX, prevY = x, y
	}
}

func findZeroCrossing(samples []float32, searchLen int) int {
	if searchLen > len(samples)-2 {
		searchLen = len(samples) - 2
	}
	for i := 1; i < searchLen; i++ {
		if samples[i-1] <= 0 && samples[i] > 0 {
			return i
		}
	}
	return 0
}

const (
	trackOffset = 260
	trackInset  = 276
)

func (g *game) drawSlider(screen *ebiten.Image, rect image.Rectangle, s slider) {
	g.drawPanel(screen, rect)
	v := s.get()
	g.drawText(screen, s.label+" "+s.format(v), rect.Min.X+8, rect.Min.Y+8)

	trackX := rect.Min.X + trackOffset
	trackW := rect.Dx() - trackInset
	trackY := rect.Min.Y + rect.Dy()/2 - 4
	if trackW < 20 {
		return
	}
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW), 8, bevelDarker)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), float64(trackW-1), 1, borderColor)
	ebitenutil.DrawRect(screen, float64(trackX), float64(trackY), 1, 7, borderColor)
	if s.min < 0 {
		centerX := trackX + trackW/2
		ebitenutil.DrawRect(screen, float64(centerX)-1, float64(trackY-2), 2, 12, borderColor)
	}
	frac := clamp((v-s.min)/(s.max-s.min), 0, 1)
	fillW := int(float64(trackW) * frac)
	if fillW > 2 {
		ebitenutil.DrawRect(screen, float64(trackX+1), float64(trackY+1), float64(fillW-1), 6, sliderFillColor)
	}
	knobX := min(max(trackX+fillW-5, trackX-5), trackX+trackW-5)
	knobRect := image.Rect(knobX, trackY-4, knobX+10, trackY+12)
	ebitenutil.DrawRect(screen, float64(knobRect.Min.X), float64(knobRect.Min.Y), float64(knobRect.Dx()), float64(knobRect.Dy()), panelColor)
	drawBorder(screen, knobRect)
}

func (g *game) updateSliderFromMouse(i int, mx int, rect image.Rectangle) {
	trackX := rect.Min.X + trackOffset
	trackW := rect.Dx() - trackInset
	if trackW <= 0 {
		return
	}
	s := g.sliders[i]
	frac := clamp(float64(mx-trackX)/float64(trackW), 0, 1)
	s.set(s.min + frac*(s.max-s.min))
	g.status = s.label + ": " + s.format(s.get())
}

func (g *game) drawPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), panelColor)
	drawBorder(screen, rect)
}

func (g *game) drawSunkenPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), sunkenBgColor)
	drawSunkenBorder(screen, rect)
}

func (g *game) drawDarkPanel(screen *ebiten.Image, rect image.Rectangle) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), color.RGBA{0, 0, 0, 255})
	drawSunkenBorder(screen, rect)
}

func (g *game) drawButton(screen *ebiten.Image, rect image.Rectangle, label string, fill color.Color) {
	ebitenutil.DrawRect(screen, float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()), fill)
	drawBorder(screen, rect)
	labelW := len([]rune(label)) * charW
	x := rect.Min.X + (rect.Dx()-labelW)/2
	y := rect.Min.Y + (rect.Dy()-lineH)/2
	g.drawText(screen, label, x, y)
}

// drawBorder draws a raised bevel.
func drawBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+h-2, w-3, 1, borderColor)
	ebitenutil.DrawRect(screen, x+w-2, y+1, 1, h-3, borderColor)
}

// drawSunkenBorder draws a sunken bevel.
func drawSunkenBorder(screen *ebiten.Image, rect image.Rectangle) {
	x := float64(rect.Min.X)
	y := float64(rect.Min.Y)
	w := float64(rect.Dx())
	h := float64(rect.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, borderColor)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, borderColor)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelLight)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelLight)
	ebitenutil.DrawRect(screen, x+1, y+1, w-3, 1, bevelDarker)
	ebitenutil.DrawRect(screen, x+1, y+2, 1, h-4, bevelDarker)
}

func (g *game) drawText(screen *ebiten.Image, msg string, x int, y int) {
	if msg == "" {
		return
	}
	img := g.textCache[msg]
	if img == nil {
		w := max(1, len([]rune(msg))*7)
		img = ebiten.NewImage(w, 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.textCache) > 1000 {
			g.textCache = make(map[string]*ebiten.Image, 256)
		}
		g.textCache[msg] = img
	}
	opS := &ebiten.DrawImageOptions{}
	opS.GeoM.Scale(textScale, textScale)
	opS.GeoM.Translate(float64(x+2), float64(y+2))
	opS.ColorScale.Scale(0, 0, 0, 1)
	screen.DrawImage(img, opS)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func shortenEnd(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:max(0, maxChars)])
	}
	return string(r[:maxChars-3]) + "..."
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

func main() {
	var (
		sampleRate   = flag.Int("sample-rate", 48000, "output sample rate")
		bufferFrames = flag.Int("buffer-frames", 256, "device buffer length in frames")
		panLawName   = flag.String("pan-law", "constant", "pan law: constant|linear")
		waveName     = flag.String("waveform", "sine", "initial waveform: sine|square|saw|triangle|noise")
	)
	flag.Parse()

	panLaw, err := monosynth.ParsePanLaw(*panLawName)
	if err != nil {
		log.Fatal(err)
	}
	wave, err := waveform.ParseKind(*waveName)
	if err != nil {
		log.Fatal(err)
	}
	tap := audio.NewRing(tapRingSize)
	syn, err := monosynth.New(*sampleRate,
		monosynth.WithBackend(monosynth.BackendEbiten),
		monosynth.WithBufferFrames(*bufferFrames),
		monosynth.WithPanLaw(panLaw),
		monosynth.WithInitialWaveform(wave),
		monosynth.WithSampleTap(tap),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := syn.Start(); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = syn.Stop() }()

	ebiten.SetWindowSize(windowW, windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(minWindowW, minWindowH, -1, -1)
	ebiten.SetWindowTitle("monosynth")
	if err := ebiten.RunGame(newGame(syn, tap)); err != nil {
		log.Fatal(err)
	}
}
