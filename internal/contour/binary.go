package contour

import (
	"image"
)

// Pixel values of a binary raster.
const (
	Black uint8 = 0
	White uint8 = 255
)

// Opposite returns the other binary colour.
func Opposite(c uint8) uint8 {
	if c == White {
		return Black
	}
	return White
}

// BinaryImage is a single-channel 0/255 raster with one extra pixel of
// padding on every side.
//
// The padding lets the boundary walk look at all 8 neighbours of any
// interior pixel without bounds checks. Pixel (x, y) of the source image is
// stored at padded position (x+1, y+1). The padding colour is set by the
// tracer to the opposite of the boundary colour being traced, so a walk can
// never step onto it.
type BinaryImage struct {
	// Width and Height of the source image (without padding).
	Width  int
	Height int

	// Stride is the length of one padded row (Width + 2).
	Stride int

	pix []uint8
}

// NewBinaryImage copies a thresholded grayscale image into a padded raster.
//
// Any non-zero source value is stored as White. The padding starts out
// Black; Tracer.Trace repaints it as needed.
func NewBinaryImage(src *image.Gray) *BinaryImage {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	img := &BinaryImage{
		Width:  w,
		Height: h,
		Stride: w + 2,
		pix:    make([]uint8, (w+2)*(h+2)),
	}
	for y := 0; y < h; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := img.pix[(y+1)*img.Stride+1:]
		for x := 0; x < w; x++ {
			if row[x] != 0 {
				dst[x] = White
			}
		}
	}
	return img
}

// At returns the value at padded coordinates (x, y).
func (b *BinaryImage) At(x, y int) uint8 {
	return b.pix[y*b.Stride+x]
}

// Set writes the value at padded coordinates (x, y).
func (b *BinaryImage) Set(x, y int, v uint8) {
	b.pix[y*b.Stride+x] = v
}

// padWith paints the one pixel border with v.
func (b *BinaryImage) padWith(v uint8) {
	last := b.Height + 1
	for x := 0; x < b.Stride; x++ {
		b.pix[x] = v
		b.pix[last*b.Stride+x] = v
	}
	for y := 1; y < last; y++ {
		b.pix[y*b.Stride] = v
		b.pix[y*b.Stride+b.Stride-1] = v
	}
}
