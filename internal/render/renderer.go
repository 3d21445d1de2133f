package render

import (
	"image/color"
	"math"

	"go.uber.org/zap"

	"audiogram/internal/layout"
	"audiogram/internal/segment"
)

// PaletteEntry is one two-stop background gradient.
type PaletteEntry struct {
	Top    color.RGBA
	Bottom color.RGBA
}

// DefaultPalette returns the background gradient palette the drift cycles
// through over the length of a clip
func DefaultPalette() []PaletteEntry {
	return []PaletteEntry{
		{Top: color.RGBA{R: 0x1e, G: 0x29, B: 0x52, A: 0xff}, Bottom: color.RGBA{R: 0x0d, G: 0x11, B: 0x24, A: 0xff}},
		{Top: color.RGBA{R: 0x3a, G: 0x1e, B: 0x52, A: 0xff}, Bottom: color.RGBA{R: 0x18, G: 0x0d, B: 0x24, A: 0xff}},
		{Top: color.RGBA{R: 0x52, G: 0x1e, B: 0x3d, A: 0xff}, Bottom: color.RGBA{R: 0x24, G: 0x0d, B: 0x1a, A: 0xff}},
		{Top: color.RGBA{R: 0x1e, G: 0x52, B: 0x4a, A: 0xff}, Bottom: color.RGBA{R: 0x0d, G: 0x24, B: 0x20, A: 0xff}},
	}
}

// Config holds the visual composition settings for frame drawing.
type Config struct {
	// BarFloor is the minimum bar height fraction so quiet audio still
	// shows a visible row.
	BarFloor float64
	// DriftEnabled interpolates the background across the palette over
	// the clip; disabled, the StaticPaletteIndex entry is used for every
	// frame.
	DriftEnabled       bool
	StaticPaletteIndex int
}

// DefaultConfig returns the frame composition settings
func DefaultConfig() Config {
	return Config{
		BarFloor:     0.08,
		DriftEnabled: true,
	}
}

// FrameState is the consistent snapshot a single frame is drawn from. The
// owning controller replaces it wholesale between operations; the render
// loop only ever reads it.
type FrameState struct {
	Segments      []segment.CaptionSegment
	TotalDuration float64
	Bars          []float64
	Metrics       layout.Metrics
	Artwork       map[string]Drawable
	FallbackText  string
}

// Renderer paints one frame of the audiogram composition for a playhead
// time: background gradient, waveform bars, active caption, and in
// multi-speaker mode the active speaker's artwork.
type Renderer struct {
	cfg     Config
	palette []PaletteEntry
	lookup  *segment.Lookup
	engine  *layout.Engine
	logger  *zap.Logger
}

// NewRenderer creates a Renderer with the given lookup and layout engine
func NewRenderer(cfg Config, palette []PaletteEntry, lookup *segment.Lookup, engine *layout.Engine) *Renderer {
	return NewRendererWithLogger(cfg, palette, lookup, engine, nil)
}

// NewRendererWithLogger creates a Renderer with the given logger
func NewRendererWithLogger(cfg Config, palette []PaletteEntry, lookup *segment.Lookup, engine *layout.Engine, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop() // Use no-op logger if nil is passed
	}
	if len(palette) == 0 {
		palette = DefaultPalette()
	}
	return &Renderer{
		cfg:     cfg,
		palette: palette,
		lookup:  lookup,
		engine:  engine,
		logger:  logger,
	}
}

// DrawFrame paints the frame for playhead time t. Drawing is pure with
// respect to its inputs: the same time and state produce the same frame.
func (r *Renderer) DrawFrame(c Canvas, t float64, state *FrameState) {
	width, height := c.Size()
	w := float64(width)
	h := float64(height)

	top, bottom := r.backgroundAt(t, state.TotalDuration)
	c.FillVerticalGradient(top, bottom)

	idx := r.lookup.IndexAt(state.Segments, t)

	r.drawArtwork(c, idx, state, w, h)
	r.drawBars(c, state.Bars, w, h)
	r.drawCaption(c, idx, state, w, h)
}

// backgroundAt interpolates the two gradient stops across the palette as a
// function of playhead progress
func (r *Renderer) backgroundAt(t, totalDuration float64) (color.Color, color.Color) {
	if !r.cfg.DriftEnabled || totalDuration <= 0 {
		idx := r.cfg.StaticPaletteIndex
		if idx < 0 || idx >= len(r.palette) {
			idx = 0
		}
		return r.palette[idx].Top, r.palette[idx].Bottom
	}

	progress := t / totalDuration
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	pos := progress * float64(len(r.palette)-1)
	i := int(math.Floor(pos))
	if i >= len(r.palette)-1 {
		return r.palette[len(r.palette)-1].Top, r.palette[len(r.palette)-1].Bottom
	}
	f := pos - float64(i)

	return lerpRGBA(r.palette[i].Top, r.palette[i+1].Top, f),
		lerpRGBA(r.palette[i].Bottom, r.palette[i+1].Bottom, f)
}

// drawArtwork paints the active speaker's portrait, centered in the upper
// third of the frame. Without a speaker assignment the first artwork entry
// is not guessed; nothing is drawn.
func (r *Renderer) drawArtwork(c Canvas, idx int, state *FrameState, w, h float64) {
	if idx == segment.NoActiveSegment || len(state.Artwork) == 0 {
		return
	}

	speaker := state.Segments[idx].Speaker
	img, ok := state.Artwork[speaker]
	if !ok {
		return
	}

	size := h * 0.28
	c.DrawImage(img, (w-size)/2, h*0.08, size, size)
}

// drawBars paints the waveform row across the vertical center of the frame
func (r *Renderer) drawBars(c Canvas, bars []float64, w, h float64) {
	if len(bars) == 0 {
		return
	}

	rowY := h * 0.52
	maxBar := h * 0.12
	slot := w * 0.9 / float64(len(bars))
	barW := slot * 0.6
	left := w * 0.05

	barColor := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xe6}

	for i, v := range bars {
		if v < r.cfg.BarFloor {
			v = r.cfg.BarFloor
		}
		if v > 1 {
			v = 1
		}
		barH := maxBar * v
		x := left + float64(i)*slot + (slot-barW)/2
		c.FillRoundedRect(x, rowY-barH/2, barW, barH, barW/2, barColor)
	}
}

// drawCaption wraps and paints the active caption text in the lower third.
// A gap lookup paints nothing: silence renders blank.
func (r *Renderer) drawCaption(c Canvas, idx int, state *FrameState, w, h float64) {
	var text string
	switch {
	case idx != segment.NoActiveSegment:
		text = state.Segments[idx].Text
	case len(state.Segments) == 0 && state.FallbackText != "":
		text = state.FallbackText
	default:
		return
	}

	boxWidth := w * 0.86
	lines := r.engine.WrapText(text, state.Metrics.Size, boxWidth)

	blockHeight := float64(len(lines)-1) * state.Metrics.LineHeight
	baseY := h*0.78 - blockHeight/2

	textColor := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for i, line := range lines {
		c.DrawTextLine(line, w/2, baseY+float64(i)*state.Metrics.LineHeight, state.Metrics.Size, textColor)
	}
}

// lerpRGBA interpolates between two colors
func lerpRGBA(a, b color.RGBA, f float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*f),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*f),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*f),
		A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*f),
	}
}
