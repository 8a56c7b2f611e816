// Command padseq_ui is a touch surface for recording pad gestures into a
// running project.
package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	padseq "github.com/cbegin/padseq-go"
	"github.com/cbegin/padseq-go/internal/config"
	"github.com/cbegin/padseq-go/internal/debug"
	"github.com/cbegin/padseq-go/internal/loop"
	"github.com/cbegin/padseq-go/internal/pad"
	"github.com/cbegin/padseq-go/internal/project"
	"github.com/cbegin/padseq-go/internal/sequencer"
)

const (
	panelW  = 260
	margin  = 12
	buttonH = 28
	columns = 8

	textScale = 2
	charW     = 7 * textScale
	lineH     = 14 * textScale
)

var (
	bgColor        = color.RGBA{192, 192, 192, 255}
	padColor       = color.RGBA{24, 24, 32, 255}
	gridColor      = color.RGBA{48, 48, 64, 255}
	touchColor     = color.RGBA{0, 160, 255, 255}
	recordColor    = color.RGBA{200, 32, 32, 255}
	highlightColor = color.RGBA{0, 0, 128, 255}
	bevelLight     = color.RGBA{255, 255, 255, 255}
	bevelDark      = color.RGBA{64, 64, 64, 255}
)

type button struct {
	label  func() string
	action func() error
}

type game struct {
	ctx     context.Context
	cfg     config.Config
	path    string
	player  *padseq.Player
	seqs    []*sequencer.Sequencer
	current int

	record   bool
	quantize bool
	chord    bool
	arp      int // index into patterns, -1 is off
	patterns []string

	// touch id to finger, the mouse is finger 0
	fingers map[ebiten.TouchID]int
	touches map[int]image.Point

	buttons []button
	status  string
	cache   map[string]*ebiten.Image
}

func newGame(ctx context.Context, cfg config.Config, path string) (*game, error) {
	p, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	pl, err := padseq.NewPlayer(cfg.SampleRate, padseq.WithBlockSize(cfg.BlockSize), padseq.WithEffects(cfg.Effects))
	if err != nil {
		return nil, err
	}
	if err := pl.Load(ctx, p); err != nil {
		pl.Close()
		return nil, err
	}
	seqs, err := pl.Engine().Sequencers(ctx)
	if err != nil {
		pl.Close()
		return nil, err
	}
	if len(seqs) == 0 {
		pl.Close()
		return nil, fmt.Errorf("%s has no sequencers", path)
	}
	g := &game{
		ctx:      ctx,
		cfg:      cfg,
		path:     path,
		player:   pl,
		seqs:     seqs,
		quantize: cfg.Pad.Quantize,
		arp:      -1,
		patterns: seqs[0].PadArpeggioPatterns(),
		fingers:  map[ebiten.TouchID]int{},
		touches:  map[int]image.Point{},
		status:   "Ready",
		cache:    map[string]*ebiten.Image{},
	}
	g.buttons = []button{
		{func() string { return onOff("Play", g.playing()) }, g.togglePlay},
		{func() string { return "Rewind" }, func() error { return g.player.Rewind(g.ctx) }},
		{func() string { return onOff("Record", g.record) }, g.toggleRecord},
		{func() string { return onOff("Quantize", g.quantize) }, g.toggleQuantize},
		{func() string { return onOff("Chord", g.chord) }, g.toggleChord},
		{g.arpLabel, g.cycleArp},
		{func() string { return "Octave -" }, func() error { return g.shiftOctave(-1) }},
		{func() string { return "Octave +" }, func() error { return g.shiftOctave(1) }},
		{func() string { return "Pad to loop" }, g.export},
		{func() string { return "Clear pad" }, func() error { return g.seq().ClearPad(g.ctx) }},
		{func() string { return "Save" }, g.save},
	}
	for _, s := range seqs {
		s.SetPadResolution(cfg.Pad.Width, cfg.Pad.Height)
		if err := s.SetPadQuantize(ctx, g.quantize); err != nil {
			pl.Close()
			return nil, err
		}
	}
	if cfg.Pad.Record {
		if err := g.toggleRecord(); err != nil {
			pl.Close()
			return nil, err
		}
	}
	return g, nil
}

func onOff(label string, on bool) string {
	if on {
		return label + ": on"
	}
	return label + ": off"
}

func (g *game) seq() *sequencer.Sequencer { return g.seqs[g.current] }

func (g *game) playing() bool {
	st, err := g.player.Engine().Status(g.ctx)
	return err == nil && st.Playing
}

func (g *game) togglePlay() error {
	if g.playing() {
		return g.player.Stop(g.ctx)
	}
	return g.player.Play(g.ctx)
}

func (g *game) toggleRecord() error {
	g.record = !g.record
	return g.seq().SetPadRecord(g.ctx, g.record)
}

func (g *game) toggleQuantize() error {
	g.quantize = !g.quantize
	return g.seq().SetPadQuantize(g.ctx, g.quantize)
}

func (g *game) toggleChord() error {
	g.chord = !g.chord
	mode := pad.ChordOff
	if g.chord {
		mode = pad.ChordTriad
	}
	return g.seq().SetPadChordMode(g.ctx, mode)
}

func (g *game) arpLabel() string {
	if g.arp < 0 {
		return "Arp: off"
	}
	return "Arp: " + g.patterns[g.arp]
}

func (g *game) cycleArp() error {
	g.arp++
	if g.arp >= len(g.patterns) {
		g.arp = -1
	}
	name := ""
	if g.arp >= 0 {
		name = g.patterns[g.arp]
	}
	return g.seq().SetPadArpeggioPattern(g.ctx, name)
}

func (g *game) shiftOctave(d int) error {
	cfg, err := g.seq().PadConfiguration(g.ctx)
	if err != nil {
		return err
	}
	if err := g.seq().SetPadOctave(g.ctx, cfg.Octave+d); err != nil {
		return err
	}
	g.status = fmt.Sprintf("octave %d", cfg.Octave+d)
	return nil
}

func (g *game) export() error {
	id, err := g.seq().ExportPadToLoop(g.ctx, loop.NotSet)
	if err != nil {
		return err
	}
	g.status = fmt.Sprintf("exported to loop %d", id)
	return nil
}

func (g *game) save() error {
	p, err := g.player.Project(g.ctx)
	if err != nil {
		return err
	}
	if err := project.Save(g.path, p); err != nil {
		return err
	}
	g.status = "saved " + filepath.Base(g.path)
	return nil
}

// selectSeq moves the pad to another sequencer. Recording stays with the
// one it was started on.
func (g *game) selectSeq(i int) error {
	if i == g.current {
		return nil
	}
	if g.record {
		if err := g.seq().SetPadRecord(g.ctx, false); err != nil {
			return err
		}
		g.record = false
	}
	g.current = i
	cfg, err := g.seq().PadConfiguration(g.ctx)
	if err != nil {
		return err
	}
	g.chord = cfg.Chord != pad.ChordOff
	g.arp = -1
	if cfg.Mode == pad.ModeArpeggiator && cfg.ArpPattern >= 0 && cfg.ArpPattern < len(g.patterns) {
		g.arp = cfg.ArpPattern
	}
	return g.seq().SetPadQuantize(g.ctx, g.quantize)
}

func (g *game) layout() (surface image.Rectangle, buttons []image.Rectangle, list []image.Rectangle) {
	w, h := ebiten.WindowSize()
	side := min(w-panelW-3*margin, h-2*margin)
	surface = image.Rect(margin, margin, margin+side, margin+side)
	x := surface.Max.X + margin
	y := margin
	for range g.buttons {
		buttons = append(buttons, image.Rect(x, y, x+panelW, y+buttonH))
		y += buttonH + 4
	}
	y += margin
	for range g.seqs {
		list = append(list, image.Rect(x, y, x+panelW, y+buttonH))
		y += buttonH + 2
	}
	return surface, buttons, list
}

func (g *game) Update() error {
	surface, buttons, list := g.layout()
	g.seq().SetPadResolution(surface.Dx(), surface.Dy())

	for key, action := range g.keys() {
		if inpututil.IsKeyJustPressed(key) {
			g.report(action())
		}
	}

	mx, my := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		for i, r := range buttons {
			if image.Pt(mx, my).In(r) {
				g.report(g.buttons[i].action())
			}
		}
		for i, r := range list {
			if image.Pt(mx, my).In(r) {
				g.report(g.selectSeq(i))
			}
		}
	}
	g.pointer(0, surface, mx, my,
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft))

	pressed := map[ebiten.TouchID]bool{}
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		for f := 1; f < pad.MaxFingers; f++ {
			if !g.fingerTaken(f) {
				g.fingers[id] = f
				pressed[id] = true
				break
			}
		}
	}
	for _, id := range ebiten.AppendTouchIDs(nil) {
		f, ok := g.fingers[id]
		if !ok {
			continue
		}
		x, y := ebiten.TouchPosition(id)
		g.pointer(f, surface, x, y, pressed[id], true, false)
	}
	for _, id := range inpututil.AppendJustReleasedTouchIDs(nil) {
		if f, ok := g.fingers[id]; ok {
			x, y := inpututil.TouchPositionInPreviousTick(id)
			g.pointer(f, surface, x, y, false, false, true)
			delete(g.fingers, id)
		}
	}
	return nil
}

func (g *game) keys() map[ebiten.Key]func() error {
	return map[ebiten.Key]func() error{
		ebiten.KeySpace:     g.togglePlay,
		ebiten.KeyR:         g.toggleRecord,
		ebiten.KeyQ:         g.toggleQuantize,
		ebiten.KeyC:         g.toggleChord,
		ebiten.KeyA:         g.cycleArp,
		ebiten.KeyArrowUp:   func() error { return g.shiftOctave(1) },
		ebiten.KeyArrowDown: func() error { return g.shiftOctave(-1) },
		ebiten.KeyE:         g.export,
		ebiten.KeyS:         g.save,
		ebiten.KeyTab:       func() error { return g.selectSeq((g.current + 1) % len(g.seqs)) },
	}
}

func (g *game) fingerTaken(f int) bool {
	for _, v := range g.fingers {
		if v == f {
			return true
		}
	}
	return false
}

// pointer turns one pointer's state into pad events. A press outside the
// surface is ignored; a drag leaving it is clamped by the pad.
func (g *game) pointer(finger int, surface image.Rectangle, x, y int, pressed, down, released bool) {
	p := image.Pt(x, y).Sub(surface.Min)
	_, active := g.touches[finger]
	switch {
	case pressed && image.Pt(x, y).In(surface):
		g.touches[finger] = p
		g.enqueue(finger, pad.Press, p)
	case released && active:
		delete(g.touches, finger)
		g.enqueue(finger, pad.Release, p)
	case down && active && g.touches[finger] != p:
		g.touches[finger] = p
		g.enqueue(finger, pad.Slide, p)
	}
}

func (g *game) enqueue(finger int, kind pad.EventKind, p image.Point) {
	if !g.seq().EnqueuePadEvent(finger, kind, p.X, p.Y) {
		debug.LogEvery(20, "ui", "pad queue full, %s dropped", kind)
	}
}

func (g *game) report(err error) {
	if err != nil {
		g.status = err.Error()
		debug.Log("ui", "%v", err)
	}
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)
	surface, buttons, list := g.layout()

	fill(screen, surface, padColor)
	for c := 1; c < columns; c++ {
		x := surface.Min.X + surface.Dx()*c/columns
		ebitenutil.DrawRect(screen, float64(x), float64(surface.Min.Y), 1, float64(surface.Dy()), gridColor)
	}
	if g.record {
		ebitenutil.DrawRect(screen, float64(surface.Min.X), float64(surface.Min.Y), float64(surface.Dx()), 4, recordColor)
	}
	for _, p := range g.touches {
		q := p.Add(surface.Min)
		ebitenutil.DrawRect(screen, float64(q.X-8), float64(q.Y-8), 16, 16, touchColor)
	}

	for i, r := range buttons {
		fill(screen, r, bgColor)
		bevel(screen, r)
		g.text(screen, g.buttons[i].label(), r.Min.X+8, r.Min.Y+(r.Dy()-lineH)/2)
	}
	for i, r := range list {
		c := color.Color(padColor)
		if i == g.current {
			c = highlightColor
		}
		fill(screen, r, c)
		label := g.seqs[i].Name()
		if sib := g.seqs[i].Sibling(); sib != "" {
			label += " > " + sib
		}
		g.text(screen, label, r.Min.X+8, r.Min.Y+(r.Dy()-lineH)/2)
	}
	_, h := ebiten.WindowSize()
	g.text(screen, fmt.Sprintf("%s  %d events", g.status, g.player.EventCount()), surface.Max.X+margin, h-margin-lineH)
}

func (g *game) Layout(outsideW, outsideH int) (int, int) {
	return outsideW, outsideH
}

func fill(screen *ebiten.Image, r image.Rectangle, c color.Color) {
	ebitenutil.DrawRect(screen, float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), c)
}

func bevel(screen *ebiten.Image, r image.Rectangle) {
	x, y := float64(r.Min.X), float64(r.Min.Y)
	w, h := float64(r.Dx()), float64(r.Dy())
	ebitenutil.DrawRect(screen, x, y, w-1, 1, bevelLight)
	ebitenutil.DrawRect(screen, x, y+1, 1, h-2, bevelLight)
	ebitenutil.DrawRect(screen, x, y+h-1, w, 1, bevelDark)
	ebitenutil.DrawRect(screen, x+w-1, y, 1, h, bevelDark)
}

func (g *game) text(screen *ebiten.Image, msg string, x, y int) {
	if msg == "" {
		return
	}
	img := g.cache[msg]
	if img == nil {
		img = ebiten.NewImage(max(1, len([]rune(msg))*7), 14)
		ebitenutil.DebugPrintAt(img, msg, 0, 0)
		if len(g.cache) > 1000 {
			g.cache = map[string]*ebiten.Image{}
		}
		g.cache[msg] = img
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(textScale, textScale)
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <project.xml>", filepath.Base(os.Args[0]))
	}
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Log.Enabled {
		if err := debug.Enable(cfg.Log.Path); err != nil {
			log.Fatal(err)
		}
		defer debug.Disable()
	}

	g, err := newGame(context.Background(), cfg, os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer g.player.Close()

	ebiten.SetWindowSize(cfg.Pad.Width+panelW+3*margin, cfg.Pad.Height+2*margin)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("padseq " + filepath.Base(os.Args[1]))
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
