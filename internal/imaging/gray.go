package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// ToGray converts any image to 8-bit grayscale.
//
// The conversion uses imaging.Grayscale, which weights the channels with the
// ITU-R BT.601 luma coefficients (0.299 R + 0.587 G + 0.114 B). The result
// always has its origin at (0, 0). A *image.Gray that already starts at the
// origin is returned as is, not copied.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}

	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			// All three channels carry the same luma value.
			dst[x] = src[x*4]
		}
	}
	return out
}

// ToNRGBA returns a non-premultiplied RGBA copy of img with origin (0, 0).
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// Resize scales img to exactly width x height using Lanczos resampling.
func Resize(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// Smooth applies a Gaussian blur of the given radius to a grayscale image.
// A radius of zero or less returns gray unchanged.
func Smooth(gray *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return gray
	}
	return ToGray(blur.Gaussian(gray, radius))
}
