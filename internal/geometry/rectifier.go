package geometry

import (
	"image"
)

// Rectifier maps quadrilaterals found in a frame onto a canonical square
// and back.
type Rectifier struct {
	size int
	dst  [4]Point2D
}

// NewRectifier returns a Rectifier for a size x size canonical square whose
// corners, in clockwise order from the top-left, are (0,0), (size,0),
// (size,size) and (0,size).
func NewRectifier(size int) *Rectifier {
	s := float64(size)
	return &Rectifier{
		size: size,
		dst:  [4]Point2D{Pt(0, 0), Pt(s, 0), Pt(s, s), Pt(0, s)},
	}
}

// Size returns the side of the canonical square.
func (r *Rectifier) Size() int {
	return r.size
}

// Destination returns the canonical corners.
func (r *Rectifier) Destination() [4]Point2D {
	return r.dst
}

// Homography returns the transform that maps corners, given clockwise from
// the corner that should land at the canonical origin, onto the canonical
// square.
func (r *Rectifier) Homography(corners [4]Point2D) (Homography, error) {
	return ComputeHomography(corners, r.dst)
}

// Rectify warps src into a new canonical image through h.
func (r *Rectifier) Rectify(src *image.Gray, h Homography) (*image.Gray, error) {
	return WarpGray(src, h, r.size, r.size)
}

// Compose places a canonical picture back into frame through h, the
// transform from frame coordinates to canonical coordinates. Frame pixels
// that fall outside the canonical square are not touched.
func (r *Rectifier) Compose(frame, picture *image.NRGBA, h Homography) (int, error) {
	return ComposeNRGBA(frame, picture, h)
}
