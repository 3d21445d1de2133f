package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiogram/internal/layout"
	"audiogram/internal/segment"
)

// recordingCanvas captures draw calls so tests can assert on what a frame
// was composed of without rasterizing pixels.
type recordingCanvas struct {
	width, height int

	gradients []struct{ top, bottom color.Color }
	rects     int
	rounded   int
	textLines []string
	images    []Drawable
}

func newRecordingCanvas(w, h int) *recordingCanvas {
	return &recordingCanvas{width: w, height: h}
}

func (c *recordingCanvas) Size() (int, int) { return c.width, c.height }

func (c *recordingCanvas) FillRect(x, y, w, h float64, col color.Color) { c.rects++ }

func (c *recordingCanvas) FillRoundedRect(x, y, w, h, radius float64, col color.Color) {
	c.rounded++
}

func (c *recordingCanvas) FillVerticalGradient(top, bottom color.Color) {
	c.gradients = append(c.gradients, struct{ top, bottom color.Color }{top, bottom})
}

func (c *recordingCanvas) DrawTextLine(text string, x, y, size float64, col color.Color) {
	c.textLines = append(c.textLines, text)
}

func (c *recordingCanvas) DrawImage(img Drawable, x, y, w, h float64) {
	c.images = append(c.images, img)
}

// fakeDrawable is a stand-in artwork handle.
type fakeDrawable struct{ name string }

func (d *fakeDrawable) Bounds() (int, int)                    { return 100, 100 }
func (d *fakeDrawable) DrawInto(c Canvas, x, y, w, h float64) { c.DrawImage(d, x, y, w, h) }

func newTestRenderer() *Renderer {
	engine := layout.NewEngine(MeasureText, layout.DefaultConfig())
	lookup := segment.NewLookup(segment.DefaultLookupConfig())
	return NewRenderer(DefaultConfig(), nil, lookup, engine)
}

func testFrameState() *FrameState {
	return &FrameState{
		Segments: []segment.CaptionSegment{
			{Start: 0.0, End: 3.0, Text: "hello there", Speaker: "ALEX"},
			{Start: 5.0, End: 7.0, Text: "hi again", Speaker: "JAMIE"},
		},
		TotalDuration: 8.0,
		Bars:          []float64{0.1, 0.5, 0.9, 0.3},
		Metrics:       layout.Metrics{Size: 60, LineHeight: 68},
	}
}

func TestRenderer_DrawFrame_ActiveSegmentCaption(t *testing.T) {
	// Arrange
	r := newTestRenderer()
	c := newRecordingCanvas(1080, 1920)

	// Act
	r.DrawFrame(c, 1.5, testFrameState())

	// Assert
	require.Len(t, c.gradients, 1)
	require.NotEmpty(t, c.textLines)
	joined := ""
	for _, line := range c.textLines {
		joined += line + " "
	}
	assert.Contains(t, joined, "hello")
}

func TestRenderer_DrawFrame_BlankCaptionInGap(t *testing.T) {
	// Arrange: t=4.0 sits in the 2 second silence between segments.
	r := newTestRenderer()
	c := newRecordingCanvas(1080, 1920)

	// Act
	r.DrawFrame(c, 4.0, testFrameState())

	// Assert: background and bars still drawn, no caption text.
	assert.Len(t, c.gradients, 1)
	assert.Equal(t, 4, c.rounded)
	assert.Empty(t, c.textLines)
}

func TestRenderer_DrawFrame_FallbackTextWhenNoSegments(t *testing.T) {
	// Arrange
	r := newTestRenderer()
	c := newRecordingCanvas(1080, 1920)
	state := &FrameState{
		TotalDuration: 5.0,
		Metrics:       layout.Metrics{Size: 60, LineHeight: 68},
		FallbackText:  "Your audiogram",
	}

	// Act
	r.DrawFrame(c, 1.0, state)

	// Assert
	assert.NotEmpty(t, c.textLines)
}

func TestRenderer_DrawFrame_ArtworkFollowsActiveSpeaker(t *testing.T) {
	// Arrange
	r := newTestRenderer()
	alex := &fakeDrawable{name: "alex"}
	jamie := &fakeDrawable{name: "jamie"}
	state := testFrameState()
	state.Artwork = map[string]Drawable{"ALEX": alex, "JAMIE": jamie}

	// Act
	c1 := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c1, 1.0, state)
	c2 := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c2, 6.0, state)

	// Assert
	require.Len(t, c1.images, 1)
	assert.Same(t, alex, c1.images[0])
	require.Len(t, c2.images, 1)
	assert.Same(t, jamie, c2.images[0])
}

func TestRenderer_DrawFrame_NoArtworkDuringGap(t *testing.T) {
	// Arrange
	r := newTestRenderer()
	state := testFrameState()
	state.Artwork = map[string]Drawable{"ALEX": &fakeDrawable{name: "alex"}}

	// Act
	c := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c, 4.0, state)

	// Assert: nothing attributed, nothing guessed.
	assert.Empty(t, c.images)
}

func TestRenderer_DrawFrame_NoArtworkForUnknownSpeaker(t *testing.T) {
	// Arrange: artwork exists only for a speaker who never talks here.
	r := newTestRenderer()
	state := testFrameState()
	state.Artwork = map[string]Drawable{"NARRATOR": &fakeDrawable{name: "narrator"}}

	// Act
	c := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c, 1.0, state)

	// Assert
	assert.Empty(t, c.images)
}

func TestRenderer_DrawFrame_OneRoundedRectPerBar(t *testing.T) {
	// Arrange
	r := newTestRenderer()
	state := testFrameState()
	state.Bars = make([]float64, 64)

	// Act
	c := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c, 1.0, state)

	// Assert
	assert.Equal(t, 64, c.rounded)
}

func TestRenderer_DrawFrame_Deterministic(t *testing.T) {
	// Arrange
	r := newTestRenderer()
	state := testFrameState()

	// Act
	c1 := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c1, 2.0, state)
	c2 := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c2, 2.0, state)

	// Assert: same time and state, same draw sequence.
	assert.Equal(t, c1.textLines, c2.textLines)
	assert.Equal(t, c1.rounded, c2.rounded)
	assert.Equal(t, c1.gradients, c2.gradients)
}

func TestRenderer_BackgroundDriftsAcrossPalette(t *testing.T) {
	// Arrange
	r := newTestRenderer()
	state := testFrameState()

	// Act
	c1 := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c1, 0.0, state)
	c2 := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c2, state.TotalDuration, state)

	// Assert: start and end of the clip use different gradients.
	assert.NotEqual(t, c1.gradients[0], c2.gradients[0])
}

func TestRenderer_StaticBackgroundWhenDriftDisabled(t *testing.T) {
	// Arrange
	cfg := DefaultConfig()
	cfg.DriftEnabled = false
	engine := layout.NewEngine(MeasureText, layout.DefaultConfig())
	lookup := segment.NewLookup(segment.DefaultLookupConfig())
	r := NewRenderer(cfg, nil, lookup, engine)
	state := testFrameState()

	// Act
	c1 := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c1, 0.0, state)
	c2 := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c2, state.TotalDuration, state)

	// Assert
	assert.Equal(t, c1.gradients[0], c2.gradients[0])
}

func TestRenderer_DrawFrame_EmptyBars(t *testing.T) {
	// Arrange
	r := newTestRenderer()
	state := testFrameState()
	state.Bars = nil

	// Act
	c := newRecordingCanvas(1080, 1920)
	r.DrawFrame(c, 1.0, state)

	// Assert: no bar row, everything else intact.
	assert.Zero(t, c.rounded)
	assert.Len(t, c.gradients, 1)
}
