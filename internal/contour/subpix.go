package contour

import (
	"image"
	"math"
)

// SubPixOptions controls corner refinement.
type SubPixOptions struct {
	// Window is the half size of the search window; 5 gives an 11x11
	// window.
	Window int

	// MaxIterations bounds the number of refinement steps per corner.
	MaxIterations int

	// Epsilon stops refinement once a step moves the corner less than this
	// distance in pixels.
	Epsilon float64
}

// DefaultSubPixOptions returns the refinement settings used by the marker
// pipeline.
func DefaultSubPixOptions() SubPixOptions {
	return SubPixOptions{Window: 5, MaxIterations: 100, Epsilon: 0.001}
}

// RefinePoint moves an approximate corner to the point q where the image
// gradient in the surrounding window is orthogonal to every vector from q.
//
// Each step solves the 2x2 system
//
//	Σ w·g·gᵀ · q = Σ w·g·gᵀ · p
//
// over the window pixels p with gradients g, weighting pixels by a
// Gaussian of their distance from the centre. Gradients are central
// differences of the bilinearly sampled image. When the result drifts
// further than Window from the start, the start point is returned.
func RefinePoint(gray *image.Gray, p Point, opts SubPixOptions) (float64, float64) {
	win := opts.Window
	if win <= 0 {
		return float64(p.X), float64(p.Y)
	}

	b := gray.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	sample := func(x, y float64) float64 {
		return bilinearGray(gray, x, y)
	}

	size := 2*win + 1
	mask := make([]float64, size*size)
	coeff := 1.0 / float64(win*win)
	for i := 0; i < size; i++ {
		yy := float64(i - win)
		for j := 0; j < size; j++ {
			xx := float64(j - win)
			mask[i*size+j] = math.Exp(-(xx*xx)*coeff) * math.Exp(-(yy*yy)*coeff)
		}
	}

	x0, y0 := float64(p.X), float64(p.Y)
	cx, cy := x0, y0
	eps := opts.Epsilon * opts.Epsilon
	for iter := 0; iter < max(opts.MaxIterations, 1); iter++ {
		var a, bxy, c, bb1, bb2 float64
		for i := 0; i < size; i++ {
			py := float64(i - win)
			for j := 0; j < size; j++ {
				px := float64(j - win)
				m := mask[i*size+j]
				gx := sample(cx+px+1, cy+py) - sample(cx+px-1, cy+py)
				gy := sample(cx+px, cy+py+1) - sample(cx+px, cy+py-1)
				gxx, gxy, gyy := gx*gx*m, gx*gy*m, gy*gy*m
				a += gxx
				bxy += gxy
				c += gyy
				bb1 += gxx*px + gxy*py
				bb2 += gxy*px + gyy*py
			}
		}

		det := a*c - bxy*bxy
		if math.Abs(det) <= 1e-12 {
			break
		}
		nx := cx + (c*bb1-bxy*bb2)/det
		ny := cy + (a*bb2-bxy*bb1)/det
		step := (nx-cx)*(nx-cx) + (ny-cy)*(ny-cy)
		cx, cy = nx, ny
		if cx < 0 || cx >= w || cy < 0 || cy >= h || step <= eps {
			break
		}
	}

	if math.Abs(cx-x0) > float64(win) || math.Abs(cy-y0) > float64(win) {
		return x0, y0
	}
	return cx, cy
}

// RefineCorners refines every corner of every contour against gray, the
// thresholded frame the contours were traced from, and stores the result
// rounded to the nearest pixel.
func RefineCorners(gray *image.Gray, contours []*Contour, opts SubPixOptions) {
	for _, c := range contours {
		for i, p := range c.Corners {
			x, y := RefinePoint(gray, p, opts)
			c.Corners[i] = Point{X: int(math.Round(x)), Y: int(math.Round(y))}
		}
	}
}

// bilinearGray samples gray at a fractional position with pixel centres on
// integer coordinates. Positions outside the image take the nearest edge
// value.
func bilinearGray(gray *image.Gray, x, y float64) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	x = math.Max(0, math.Min(x, float64(w-1)))
	y = math.Max(0, math.Min(y, float64(h-1)))

	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	at := func(px, py int) float64 {
		return float64(gray.Pix[gray.PixOffset(b.Min.X+px, b.Min.Y+py)])
	}
	top := at(x0, y0)*(1-fx) + at(x1, y0)*fx
	bottom := at(x0, y1)*(1-fx) + at(x1, y1)*fx
	return top*(1-fy) + bottom*fy
}
