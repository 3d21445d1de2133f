package render

import "image/color"

// Canvas is the drawing surface contract the render loop paints onto.
// One implementation rasterizes frames for export; tests substitute
// recording fakes.
type Canvas interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)
	// FillRect fills an axis-aligned rectangle.
	FillRect(x, y, w, h float64, c color.Color)
	// FillRoundedRect fills a rectangle with rounded corners.
	FillRoundedRect(x, y, w, h, radius float64, c color.Color)
	// FillVerticalGradient fills the whole surface with a two-stop
	// top-to-bottom linear gradient.
	FillVerticalGradient(top, bottom color.Color)
	// DrawTextLine draws one line of text with its horizontal center at x
	// and baseline at y.
	DrawTextLine(text string, x, y, size float64, c color.Color)
	// DrawImage draws a decoded image scaled into the given rectangle.
	DrawImage(img Drawable, x, y, w, h float64)
}

// Drawable is an abstract image handle: anything with known dimensions
// that can paint itself into a rectangle on a Canvas. The concrete decode
// mechanism behind it is a platform detail.
type Drawable interface {
	// Bounds returns the intrinsic width and height in pixels.
	Bounds() (width, height int)
	// DrawInto paints the image scaled into the rectangle on c.
	DrawInto(c Canvas, x, y, w, h float64)
}

// MeasureText reports the approximate rendered advance width of text at a
// font size, matching the glyph metrics the raster canvas uses. The layout
// engine sizes captions against this.
func MeasureText(text string, size float64) float64 {
	return float64(len([]rune(text))) * size * 0.6
}
