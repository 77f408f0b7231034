package contour

// clock holds the neighbour offsets around a centre pixel b, numbered
// clockwise from the upper-left neighbour:
//
//	0 1 2
//	7 b 3
//	6 5 4
var clock = [8]Point{
	{-1, -1}, {0, -1}, {1, -1},
	{1, 0},
	{1, 1}, {0, 1}, {-1, 1},
	{-1, 0},
}

// clockIndex returns the clock position of c relative to b, or -1 when
// they coincide.
func clockIndex(c, b Point) int {
	dx, dy := c.X-b.X, c.Y-b.Y
	for i, o := range clock {
		if o.X == dx && o.Y == dy {
			return i
		}
	}
	return -1
}

// tracer holds the state of one Trace call.
type tracer struct {
	img      *BinaryImage
	boundary uint8
	visited  []bool
	maxSteps int
}

// Trace finds the outer contour of every connected region of boundary
// coloured pixels in img.
//
// The image is scanned in row-major order. A boundary pixel seeds a new
// contour only if a pixel of the opposite colour has been seen since the
// previous seed and the pixel is not already part of a traced contour.
// Each seed is followed with a Moore-neighbour walk. Returned points are in
// source image coordinates (padding removed) and each ring is clockwise.
//
// Every call starts from scratch; tracing the same image twice yields
// identical results.
func Trace(img *BinaryImage, boundary uint8) []*Contour {
	other := Opposite(boundary)
	img.padWith(other)

	t := &tracer{
		img:      img,
		boundary: boundary,
		visited:  make([]bool, len(img.pix)),
		maxSteps: 4 * len(img.pix),
	}

	var contours []*Contour
	ready := true
	for y := 1; y <= img.Height; y++ {
		for x := 1; x <= img.Width; x++ {
			v := img.At(x, y)
			if !ready && v == other {
				ready = true
			} else if ready && v == boundary {
				ready = false
				if !t.visited[y*img.Stride+x] {
					contours = append(contours, t.walk(Point{x, y}))
				}
			}
		}
	}

	for _, c := range contours {
		c.offset(-1, -1)
	}
	return contours
}

// walk follows the boundary clockwise from seed b0 until it comes back to
// b0. The synthetic starting crossing point is the pixel left of b0, which
// the raster scan guarantees is not boundary coloured.
func (t *tracer) walk(b0 Point) *Contour {
	c := &Contour{}
	t.add(c, b0)

	cur, b, ok := t.step(Point{b0.X - 1, b0.Y}, b0)
	if !ok {
		return c
	}
	for steps := 0; b != b0 && steps < t.maxSteps; steps++ {
		t.add(c, b)
		cur, b, _ = t.step(cur, b)
	}
	return c
}

func (t *tracer) add(c *Contour, p Point) {
	t.visited[p.Y*t.img.Stride+p.X] = true
	c.Add(p)
}

// step searches clockwise around b, starting just after c, for the next
// boundary pixel. It returns the new (c, b) pair; c is the neighbour scanned
// immediately before the new b. ok is false when b has no boundary
// coloured neighbour at all.
func (t *tracer) step(c, b Point) (Point, Point, bool) {
	idx := clockIndex(c, b)
	for i := 0; i < len(clock); i++ {
		idx = (idx + 1) % len(clock)
		o := clock[idx]
		if t.img.At(b.X+o.X, b.Y+o.Y) == t.boundary {
			prev := clock[(idx+len(clock)-1)%len(clock)]
			return Point{b.X + prev.X, b.Y + prev.Y}, Point{b.X + o.X, b.Y + o.Y}, true
		}
	}
	return c, b, false
}
