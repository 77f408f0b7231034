package imaging

// FloatRaster is a dense single-channel float64 image.
//
// It holds intermediate results that do not fit in 8 bits, such as gradient
// products and corner responses. Pixel (x, y) is stored at Pix[y*Width+x].
type FloatRaster struct {
	Width  int
	Height int
	Pix    []float64
}

// NewFloatRaster allocates a zeroed raster.
func NewFloatRaster(width, height int) *FloatRaster {
	return &FloatRaster{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// At returns the value at (x, y). Out of range coordinates are clamped to
// the nearest edge pixel.
func (r *FloatRaster) At(x, y int) float64 {
	x = clamp(x, 0, r.Width-1)
	y = clamp(y, 0, r.Height-1)
	return r.Pix[y*r.Width+x]
}

// Set writes v at (x, y). Out of range coordinates are ignored.
func (r *FloatRaster) Set(x, y int, v float64) {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return
	}
	r.Pix[y*r.Width+x] = v
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
