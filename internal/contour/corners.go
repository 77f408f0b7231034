package contour

import (
	"github.com/ironsheep/marker-ar-mcp/internal/imaging"
)

// CornerOptions controls corner extraction along a contour.
type CornerOptions struct {
	// Threshold is the summed response a point must exceed to be part of
	// a corner run.
	Threshold float64

	// Window is the half size of the square summed around each point.
	// Zero means the point's own response only.
	Window int
}

// run is a contiguous stretch of above-threshold points. The strongest
// point is kept by value together with its index in the ring.
type run struct {
	start int
	index int
	best  Point
	value float64
}

// ExtractCorners finds the corners of c from a corner response raster.
//
// The response raster must be aligned with the padded frame used during
// tracing, so point (x, y) is looked up at (x+1, y+1). Consecutive points
// above the threshold form a run, and each run contributes its strongest
// point as one corner. Corners keep the clockwise order of the ring. The
// ring is cyclic: a run still open at the last point continues into a run
// that started at the first point, and the two are merged.
func ExtractCorners(c *Contour, response *imaging.FloatRaster, opts CornerOptions) {
	var runs []run
	var cur run
	onRun := false

	for i, p := range c.Points {
		v := windowSum(response, p.X+1, p.Y+1, opts.Window)
		if v > opts.Threshold {
			if !onRun {
				onRun = true
				cur = run{start: i, index: i, best: p, value: v}
			} else if v > cur.value {
				cur.index, cur.best, cur.value = i, p, v
			}
			continue
		}
		if onRun {
			runs = append(runs, cur)
			onRun = false
		}
	}

	// A run still open at the end of the ring continues the run at index 0
	// when there is one; otherwise it is a corner of its own.
	if onRun {
		if len(runs) > 0 && runs[0].start == 0 {
			if cur.value > runs[0].value {
				runs[0].index, runs[0].best, runs[0].value = cur.index, cur.best, cur.value
			}
		} else {
			runs = append(runs, cur)
		}
	}

	c.Corners = make([]Point, 0, len(runs))
	for _, r := range runs {
		c.Corners = append(c.Corners, r.best)
	}
}

// ExtractAllCorners runs ExtractCorners on every contour.
func ExtractAllCorners(contours []*Contour, response *imaging.FloatRaster, opts CornerOptions) {
	for _, c := range contours {
		ExtractCorners(c, response, opts)
	}
}

func windowSum(r *imaging.FloatRaster, cx, cy, k int) float64 {
	var sum float64
	for y := cy - k; y <= cy+k; y++ {
		if y < 0 || y >= r.Height {
			continue
		}
		for x := cx - k; x <= cx+k; x++ {
			if x < 0 || x >= r.Width {
				continue
			}
			sum += r.At(x, y)
		}
	}
	return sum
}
