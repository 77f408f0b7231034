package imaging

import (
	"image"
)

// HarrisOptions configures the Harris corner response.
type HarrisOptions struct {
	// Radius is the half size of the square window over which gradient
	// products are summed. A radius of 3 gives a 7x7 window.
	Radius int

	// K is the Harris free parameter. Smaller values report more corners.
	K float64
}

// DefaultHarrisOptions returns the window and free parameter used by the
// marker pipeline.
func DefaultHarrisOptions() HarrisOptions {
	return HarrisOptions{Radius: 3, K: 0.05}
}

// HarrisResponse computes the Harris corner measure of every pixel.
//
// # Algorithm
//
//  1. Intensities are scaled to [0, 1].
//
//  2. Gradients Ix and Iy come from the 3x3 Sobel operators, divided by 8
//     so a unit step edge has a gradient of 0.5:
//
//     -1 0 1        -1 -2 -1
//     -2 0 2         0  0  0
//     -1 0 1         1  2  1
//
//  3. The structure tensor entries Sxx, Syy and Sxy are box sums of Ix²,
//     Iy² and Ix·Iy over a (2·Radius+1)² window.
//
//  4. The response is det − K·trace², i.e. Sxx·Syy − Sxy² − K·(Sxx + Syy)².
//
// Corners give large positive values, straight edges negative values and
// flat regions zero. Border pixels use clamped (replicated) neighbours.
//
// For a one pixel wide outline with the default options a right angle
// corner responds at about 2, while a straight run sits near −0.6.
func HarrisResponse(gray *image.Gray, opts HarrisOptions) *FloatRaster {
	b := gray.Bounds()
	width, height := b.Dx(), b.Dy()
	out := NewFloatRaster(width, height)
	if width == 0 || height == 0 {
		return out
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[gray.PixOffset(b.Min.X+x, b.Min.Y+y)]) / 255.0
	}

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	xx := NewFloatRaster(width, height)
	yy := NewFloatRaster(width, height)
	xy := NewFloatRaster(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := at(x+kx, y+ky)
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			gx /= 8
			gy /= 8
			i := y*width + x
			xx.Pix[i] = gx * gx
			yy.Pix[i] = gy * gy
			xy.Pix[i] = gx * gy
		}
	}

	sxx := boxSum(xx, opts.Radius)
	syy := boxSum(yy, opts.Radius)
	sxy := boxSum(xy, opts.Radius)
	for i := range out.Pix {
		a, c, bb := sxx.Pix[i], syy.Pix[i], sxy.Pix[i]
		tr := a + c
		out.Pix[i] = a*c - bb*bb - opts.K*tr*tr
	}
	return out
}

// boxSum returns the sum of every (2r+1)² window, computed separably.
// Pixels outside the raster contribute nothing.
func boxSum(r *FloatRaster, radius int) *FloatRaster {
	if radius <= 0 {
		out := NewFloatRaster(r.Width, r.Height)
		copy(out.Pix, r.Pix)
		return out
	}

	rows := NewFloatRaster(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		base := y * r.Width
		for x := 0; x < r.Width; x++ {
			var sum float64
			for k := x - radius; k <= x+radius; k++ {
				if k >= 0 && k < r.Width {
					sum += r.Pix[base+k]
				}
			}
			rows.Pix[base+x] = sum
		}
	}

	out := NewFloatRaster(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			var sum float64
			for k := y - radius; k <= y+radius; k++ {
				if k >= 0 && k < r.Height {
					sum += rows.Pix[k*r.Width+x]
				}
			}
			out.Pix[y*r.Width+x] = sum
		}
	}
	return out
}
