package geometry

import (
	"fmt"
)

// RotationMatrix returns the transform that rotates a size x size canonical
// square by angle degrees about the origin and translates it back onto
// itself. Only multiples of 90 in [0, 270] are accepted.
//
//	  0: (x, y) -> (x, y)
//	 90: (x, y) -> (size - y, x)
//	180: (x, y) -> (size - x, size - y)
//	270: (x, y) -> (y, size - x)
//
// The entries are exact integers, so the rotations compose and invert
// without rounding error.
func RotationMatrix(angle, size int) (Homography, error) {
	s := float64(size)
	switch angle {
	case 0:
		return Identity(), nil
	case 90:
		return Homography{
			{0, -1, s},
			{1, 0, 0},
			{0, 0, 1},
		}, nil
	case 180:
		return Homography{
			{-1, 0, s},
			{0, -1, s},
			{0, 0, 1},
		}, nil
	case 270:
		return Homography{
			{0, 1, 0},
			{-1, 0, s},
			{0, 0, 1},
		}, nil
	default:
		return Homography{}, fmt.Errorf("unsupported rotation %d: only 0, 90, 180 and 270 degrees are supported", angle)
	}
}

// PictureRotation returns the rotation applied to a replacement picture for
// a marker found at angle degrees. Quarter turns are mirrored to the
// opposite quarter turn; 0 and 180 are used unchanged.
func PictureRotation(angle, size int) (Homography, error) {
	if angle == 90 || angle == 270 {
		angle = (angle + 180) % 360
	}
	return RotationMatrix(angle, size)
}
