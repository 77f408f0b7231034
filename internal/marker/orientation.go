package marker

import (
	"fmt"
	"image"
)

// Orientation is the clockwise rotation, in degrees, between an upright
// marker and the one found in a candidate.
type Orientation int

// The four orientations a square marker can take.
const (
	Rotate0   Orientation = 0
	Rotate90  Orientation = 90
	Rotate180 Orientation = 180
	Rotate270 Orientation = 270
)

// Orientations lists the hypotheses in voting order.
var Orientations = [4]Orientation{Rotate0, Rotate90, Rotate180, Rotate270}

// Geometry describes where the orientation bar of a marker lies inside the
// canonical square. It is an immutable value.
type Geometry struct {
	// Size is the side of the canonical square.
	Size int

	// Border is the width of the marker's outer frame. Pixels closer than
	// Border to any edge are not counted.
	Border int

	// BarLength and BarWidth are the long and short sides of the
	// orientation bar.
	BarLength int
	BarWidth  int

	// Regions holds, per orientation, the rectangle the bar covers when the
	// marker is rotated by that orientation. A pixel counts only when it
	// lies strictly between Min and Max on both axes.
	Regions [4]image.Rectangle
}

// Reference marker layout on a 256 pixel square.
const (
	referenceSize      = 256
	referenceBorder    = 53
	referenceBarLength = 135
	referenceBarWidth  = 55
)

// NewGeometry scales the reference marker layout to a size x size square.
func NewGeometry(size int) Geometry {
	scale := func(v int) int {
		return (v*size + referenceSize/2) / referenceSize
	}
	s := size
	o := scale(referenceBorder)
	w := scale(referenceBarLength)
	h := scale(referenceBarWidth)

	return Geometry{
		Size:      s,
		Border:    o,
		BarLength: w,
		BarWidth:  h,
		Regions: [4]image.Rectangle{
			// Bar along the bottom edge, right aligned.
			image.Rect(s-(o+w), s-(o+h), s-o, s-o),
			// Bar along the right edge, top aligned.
			image.Rect(s-(o+h), o, s-o, o+w),
			// Bar along the top edge, left aligned.
			image.Rect(o, o, o+w, o+h),
			// Bar along the left edge, bottom aligned.
			image.Rect(o, s-(o+w), o+h, s-o),
		},
	}
}

func strictlyInside(r image.Rectangle, x, y int) bool {
	return x > r.Min.X && x < r.Max.X && y > r.Min.Y && y < r.Max.Y
}

// Detector votes for the orientation of rectified candidates.
type Detector struct {
	geom     Geometry
	boundary uint8
}

// NewDetector returns a Detector counting pixels of the boundary colour.
func NewDetector(geom Geometry, boundary uint8) *Detector {
	return &Detector{geom: geom, boundary: boundary}
}

// Geometry returns the layout the detector votes with.
func (d *Detector) Geometry() Geometry {
	return d.geom
}

// Votes counts, for each orientation, the boundary coloured pixels inside
// its region. Only pixels at least Border away from every edge are
// considered.
func (d *Detector) Votes(img *image.Gray) ([4]int, error) {
	var votes [4]int
	b := img.Bounds()
	if b.Dx() != d.geom.Size || b.Dy() != d.geom.Size {
		return votes, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrNotCanonical, b.Dx(), b.Dy(), d.geom.Size, d.geom.Size)
	}

	o := d.geom.Border
	for y := o; y < d.geom.Size-o; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := o; x < d.geom.Size-o; x++ {
			if row[x] != d.boundary {
				continue
			}
			for i, r := range d.geom.Regions {
				if strictlyInside(r, x, y) {
					votes[i]++
				}
			}
		}
	}
	return votes, nil
}

// Detect returns the orientation with the most votes. Equal counts resolve
// to the smallest angle.
func (d *Detector) Detect(img *image.Gray) (Orientation, error) {
	votes, err := d.Votes(img)
	if err != nil {
		return Rotate0, err
	}
	return argmaxOrientation(votes), nil
}

func argmaxOrientation(votes [4]int) Orientation {
	best := 0
	for i := 1; i < len(votes); i++ {
		if votes[i] > votes[best] {
			best = i
		}
	}
	return Orientations[best]
}
