package geometry

import (
	"image"
	"math"
)

// WarpGray resamples src through the forward transform h into a new
// width x height image: each output pixel q takes the bilinearly
// interpolated source value at h⁻¹(q). Samples that fall outside src take
// the nearest edge value.
func WarpGray(src *image.Gray, h Homography, width, height int) (*image.Gray, error) {
	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := out.Pix[y*out.Stride:]
		for x := 0; x < width; x++ {
			p, ok := inv.Apply(Pt(float64(x), float64(y)))
			if !ok {
				continue
			}
			row[x] = uint8(math.Round(sampleGray(src, p.X, p.Y)))
		}
	}
	return out, nil
}

// ComposeNRGBA paints src into dst through toSrc, a transform mapping dst
// pixel coordinates into src coordinates.
//
// Only dst pixels whose image under toSrc lands inside the src rectangle
// [0, width] x [0, height] are written, with bilinear sampling; everything
// else in dst is left untouched. The scan is limited to the bounding box of
// the src rectangle projected into dst. It returns the number of pixels
// written.
func ComposeNRGBA(dst, src *image.NRGBA, toSrc Homography) (int, error) {
	fromSrc, err := toSrc.Inverse()
	if err != nil {
		return 0, err
	}

	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	area := projectedBounds(fromSrc, sw, sh, dst.Bounds())

	written := 0
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			q, ok := toSrc.Apply(Pt(float64(x), float64(y)))
			if !ok || q.X < 0 || q.Y < 0 || q.X > sw || q.Y > sh {
				continue
			}
			r, g, b, a := sampleNRGBA(src, q.X, q.Y)
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = b
			dst.Pix[i+3] = a
			written++
		}
	}
	return written, nil
}

// projectedBounds returns the integer bounding box of the w x h rectangle
// mapped through h, clipped to clip. If a corner maps to infinity the whole
// clip rectangle is returned.
func projectedBounds(h Homography, w, hh float64, clip image.Rectangle) image.Rectangle {
	corners := [4]Point2D{Pt(0, 0), Pt(w, 0), Pt(w, hh), Pt(0, hh)}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		p, ok := h.Apply(c)
		if !ok {
			return clip
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	r := image.Rect(
		int(math.Floor(minX))-1, int(math.Floor(minY))-1,
		int(math.Ceil(maxX))+2, int(math.Ceil(maxY))+2,
	)
	return r.Intersect(clip)
}

// sampleGray interpolates src at (x, y) relative to its origin, with pixel
// centres on integer coordinates and replicated edges.
func sampleGray(src *image.Gray, x, y float64) float64 {
	b := src.Bounds()
	x0, y0, x1, y1, fx, fy, ok := neighbours(b.Dx(), b.Dy(), x, y)
	if !ok {
		return 0
	}
	at := func(px, py int) float64 {
		return float64(src.Pix[src.PixOffset(b.Min.X+px, b.Min.Y+py)])
	}
	top := at(x0, y0)*(1-fx) + at(x1, y0)*fx
	bottom := at(x0, y1)*(1-fx) + at(x1, y1)*fx
	return top*(1-fy) + bottom*fy
}

// sampleNRGBA interpolates each channel of src at (x, y).
func sampleNRGBA(src *image.NRGBA, x, y float64) (uint8, uint8, uint8, uint8) {
	b := src.Bounds()
	x0, y0, x1, y1, fx, fy, ok := neighbours(b.Dx(), b.Dy(), x, y)
	if !ok {
		return 0, 0, 0, 0
	}
	var out [4]uint8
	i00 := src.PixOffset(b.Min.X+x0, b.Min.Y+y0)
	i10 := src.PixOffset(b.Min.X+x1, b.Min.Y+y0)
	i01 := src.PixOffset(b.Min.X+x0, b.Min.Y+y1)
	i11 := src.PixOffset(b.Min.X+x1, b.Min.Y+y1)
	for c := 0; c < 4; c++ {
		top := float64(src.Pix[i00+c])*(1-fx) + float64(src.Pix[i10+c])*fx
		bottom := float64(src.Pix[i01+c])*(1-fx) + float64(src.Pix[i11+c])*fx
		out[c] = uint8(math.Round(top*(1-fy) + bottom*fy))
	}
	return out[0], out[1], out[2], out[3]
}

// neighbours clamps (x, y) into a w x h grid and returns the four pixel
// indices around it with the fractional weights.
func neighbours(w, h int, x, y float64) (x0, y0, x1, y1 int, fx, fy float64, ok bool) {
	if w == 0 || h == 0 {
		return 0, 0, 0, 0, 0, 0, false
	}
	x = math.Max(0, math.Min(x, float64(w-1)))
	y = math.Max(0, math.Min(y, float64(h-1)))
	x0, y0 = int(x), int(y)
	x1, y1 = min(x0+1, w-1), min(y0+1, h-1)
	return x0, y0, x1, y1, x - float64(x0), y - float64(y0), true
}
