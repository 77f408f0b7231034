package imaging

import (
	"image"
)

// Histogram counts the pixels of each intensity in a grayscale image.
func Histogram(gray *image.Gray) [256]int {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			hist[row[x]]++
		}
	}
	return hist
}

// OtsuLevel returns the global threshold t that maximizes the between-class
// variance of the intensity histogram.
//
// For every candidate t in 0..255 the histogram is split into levels <= t
// and levels > t. With ω(t) the cumulative probability, μ(t) the cumulative
// first moment and μT the total moment, the between-class variance is
//
//	σ²(t) = (μT·ω(t) − μ(t))² / (ω(t)·(1 − ω(t)))
//
// Levels where one class is empty (ω = 0 or ω = 1) are skipped. The first t
// reaching the maximum wins. An empty or single-valued image returns 0.
func OtsuLevel(gray *image.Gray) uint8 {
	hist := Histogram(gray)
	total := 0
	for _, n := range hist {
		total += n
	}
	if total == 0 {
		return 0
	}

	var prob [256]float64
	var muT float64
	for i, n := range hist {
		prob[i] = float64(n) / float64(total)
		muT += float64(i+1) * prob[i]
	}

	best := -1.0
	level := 0
	var omega, mu float64
	for t := 0; t < 256; t++ {
		omega += prob[t]
		mu += float64(t+1) * prob[t]
		if omega <= 0 || omega >= 1 {
			continue
		}
		d := muT*omega - mu
		v := d * d / (omega * (1 - omega))
		if v > best {
			best = v
			level = t
		}
	}
	return uint8(level)
}

// Threshold binarizes gray: pixels strictly greater than t become 255, all
// others 0. The result has its origin at (0, 0).
func Threshold(gray *image.Gray, t uint8) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := gray.Pix[gray.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if src[x] > t {
				dst[x] = 255
			}
		}
	}
	return out
}

// OtsuThreshold binarizes gray at its Otsu level and returns the binary
// image together with the level used.
func OtsuThreshold(gray *image.Gray) (*image.Gray, uint8) {
	t := OtsuLevel(gray)
	return Threshold(gray, t), t
}
