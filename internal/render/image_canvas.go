package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // Registered for artwork decoding
	_ "image/png"  // Registered for artwork decoding
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageCanvas is a software raster Canvas backed by an RGBA image. Export
// reads its frame buffer directly as raw RGBA bytes.
type ImageCanvas struct {
	img *image.RGBA
}

// NewImageCanvas creates a raster canvas of the given pixel dimensions
func NewImageCanvas(width, height int) *ImageCanvas {
	return &ImageCanvas{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Size returns the surface dimensions in pixels
func (ic *ImageCanvas) Size() (int, int) {
	b := ic.img.Bounds()
	return b.Dx(), b.Dy()
}

// RGBA exposes the backing frame buffer
func (ic *ImageCanvas) RGBA() *image.RGBA {
	return ic.img
}

// FrameBytes returns the raw RGBA pixel data of the current frame
func (ic *ImageCanvas) FrameBytes() []byte {
	return ic.img.Pix
}

// FillRect fills an axis-aligned rectangle
func (ic *ImageCanvas) FillRect(x, y, w, h float64, c color.Color) {
	rect := image.Rect(int(x), int(y), int(x+w), int(y+h)).Intersect(ic.img.Bounds())
	draw.Draw(ic.img, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

// FillRoundedRect fills a rectangle with rounded corners
func (ic *ImageCanvas) FillRoundedRect(x, y, w, h, radius float64, c color.Color) {
	if radius <= 0 {
		ic.FillRect(x, y, w, h, c)
		return
	}
	if radius > w/2 {
		radius = w / 2
	}
	if radius > h/2 {
		radius = h / 2
	}

	// Center body plus side strips, then quarter circles on the corners.
	ic.FillRect(x+radius, y, w-2*radius, h, c)
	ic.FillRect(x, y+radius, radius, h-2*radius, c)
	ic.FillRect(x+w-radius, y+radius, radius, h-2*radius, c)

	corners := [][2]float64{
		{x + radius, y + radius},
		{x + w - radius, y + radius},
		{x + radius, y + h - radius},
		{x + w - radius, y + h - radius},
	}
	for _, corner := range corners {
		ic.fillCircleQuadrant(corner[0], corner[1], radius, c)
	}
}

// fillCircleQuadrant fills the pixels within radius of the center point
func (ic *ImageCanvas) fillCircleQuadrant(cx, cy, radius float64, c color.Color) {
	r2 := radius * radius
	bounds := ic.img.Bounds()
	for py := int(cy - radius); py <= int(cy+radius); py++ {
		for px := int(cx - radius); px <= int(cx+radius); px++ {
			if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
				continue
			}
			dx := float64(px) + 0.5 - cx
			dy := float64(py) + 0.5 - cy
			if dx*dx+dy*dy <= r2 {
				ic.img.Set(px, py, c)
			}
		}
	}
}

// FillVerticalGradient fills the surface with a two-stop linear gradient
func (ic *ImageCanvas) FillVerticalGradient(top, bottom color.Color) {
	w, h := ic.Size()
	tr, tg, tb, ta := top.RGBA()
	br, bg, bb, ba := bottom.RGBA()

	for y := 0; y < h; y++ {
		f := float64(y) / float64(max(h-1, 1))
		c := color.RGBA{
			R: lerp8(tr, br, f),
			G: lerp8(tg, bg, f),
			B: lerp8(tb, bb, f),
			A: lerp8(ta, ba, f),
		}
		ic.FillRect(0, float64(y), float64(w), 1, c)
	}
}

// lerp8 interpolates between two 16-bit color components into 8 bits
func lerp8(a, b uint32, f float64) uint8 {
	v := float64(a>>8) + (float64(b>>8)-float64(a>>8))*f
	return uint8(v)
}

// DrawTextLine draws one line of text centered at x with baseline y. The
// base glyph face is integer-scaled to approximate the requested size.
func (ic *ImageCanvas) DrawTextLine(text string, x, y, size float64, c color.Color) {
	face := basicfont.Face7x13
	scale := int(size / float64(face.Height))
	if scale < 1 {
		scale = 1
	}

	glyphW := face.Advance * scale
	totalW := glyphW * len([]rune(text))

	if scale == 1 {
		d := &font.Drawer{
			Dst:  ic.img,
			Src:  image.NewUniform(c),
			Face: face,
			Dot:  fixed.P(int(x)-totalW/2, int(y)),
		}
		d.DrawString(text)
		return
	}

	// Rasterize at base size, then nearest-neighbor scale into place.
	small := image.NewRGBA(image.Rect(0, 0, face.Advance*len([]rune(text))+2, face.Height+2))
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	dstX := int(x) - totalW/2
	dstY := int(y) - face.Ascent*scale
	bounds := ic.img.Bounds()
	sb := small.Bounds()
	for sy := sb.Min.Y; sy < sb.Max.Y; sy++ {
		for sx := sb.Min.X; sx < sb.Max.X; sx++ {
			_, _, _, a := small.At(sx, sy).RGBA()
			if a == 0 {
				continue
			}
			for oy := 0; oy < scale; oy++ {
				for ox := 0; ox < scale; ox++ {
					px := dstX + sx*scale + ox
					py := dstY + sy*scale + oy
					if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
						ic.img.Set(px, py, c)
					}
				}
			}
		}
	}
}

// DrawImage draws a decoded image scaled into the given rectangle
func (ic *ImageCanvas) DrawImage(img Drawable, x, y, w, h float64) {
	img.DrawInto(ic, x, y, w, h)
}

// BitmapDrawable adapts a decoded image.Image to the Drawable contract
type BitmapDrawable struct {
	src image.Image
}

// NewBitmapDrawable wraps a decoded image
func NewBitmapDrawable(src image.Image) *BitmapDrawable {
	return &BitmapDrawable{src: src}
}

// LoadDrawable decodes an image file from disk into a Drawable
func LoadDrawable(path string) (*BitmapDrawable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artwork %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork %s: %w", path, err)
	}

	return &BitmapDrawable{src: img}, nil
}

// Bounds returns the intrinsic image dimensions
func (b *BitmapDrawable) Bounds() (int, int) {
	r := b.src.Bounds()
	return r.Dx(), r.Dy()
}

// DrawInto paints the image scaled into the rectangle on c. Non-raster
// canvases receive nothing; scaling only applies to the software surface.
func (b *BitmapDrawable) DrawInto(c Canvas, x, y, w, h float64) {
	ic, ok := c.(*ImageCanvas)
	if !ok || w <= 0 || h <= 0 {
		return
	}

	src := b.src.Bounds()
	bounds := ic.img.Bounds()
	for py := int(y); py < int(y+h); py++ {
		for px := int(x); px < int(x+w); px++ {
			if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
				continue
			}
			sx := src.Min.X + int(float64(px-int(x))/w*float64(src.Dx()))
			sy := src.Min.Y + int(float64(py-int(y))/h*float64(src.Dy()))
			if sx >= src.Max.X {
				sx = src.Max.X - 1
			}
			if sy >= src.Max.Y {
				sy = src.Max.Y - 1
			}
			ic.img.Set(px, py, b.src.At(sx, sy))
		}
	}
}
