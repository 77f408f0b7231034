package contour

import (
	"image"
)

// KeepBetweenLength removes, in place, every contour whose length is outside
// [minLength, maxLength]. Survivors keep their relative order. The returned
// slice shares the backing array of contours.
func KeepBetweenLength(contours []*Contour, minLength, maxLength int) []*Contour {
	return keep(contours, func(c *Contour) bool {
		return c.Length >= minLength && c.Length <= maxLength
	})
}

// KeepBetweenCorners removes, in place, every contour whose corner count is
// outside [minCorners, maxCorners].
func KeepBetweenCorners(contours []*Contour, minCorners, maxCorners int) []*Contour {
	return keep(contours, func(c *Contour) bool {
		n := len(c.Corners)
		return n >= minCorners && n <= maxCorners
	})
}

func keep(contours []*Contour, pred func(*Contour) bool) []*Contour {
	out := contours[:0]
	for _, c := range contours {
		if pred(c) {
			out = append(out, c)
		}
	}
	for i := len(out); i < len(contours); i++ {
		contours[i] = nil
	}
	return out
}

// BoundaryRaster draws the points of every contour at 255 on a black raster
// with the same one pixel padding as BinaryImage. width and height are the
// unpadded source dimensions.
func BoundaryRaster(contours []*Contour, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width+2, height+2))
	for _, c := range contours {
		for _, p := range c.Points {
			x, y := p.X+1, p.Y+1
			if x >= 0 && y >= 0 && x < width+2 && y < height+2 {
				img.Pix[y*img.Stride+x] = White
			}
		}
	}
	return img
}
