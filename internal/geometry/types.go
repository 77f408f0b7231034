package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDegenerateQuad is returned when four corners do not span a proper
	// quadrilateral (three collinear points or zero area).
	ErrDegenerateQuad = errors.New("degenerate quadrilateral")

	// ErrSingular is returned when a projective transform cannot be solved
	// or inverted.
	ErrSingular = errors.New("singular transform")
)

// Point2D represents a point in continuous image coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point2D{x, y}.
func Pt(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.2f,%.2f)", p.X, p.Y)
}

// Homography is a 3x3 projective transform in row-major order. A point
// (x, y) maps to (u/w, v/w) where [u v w]ᵀ = H·[x y 1]ᵀ.
type Homography [3][3]float64

// Identity returns the identity transform.
func Identity() Homography {
	return Homography{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Apply maps p through h. ok is false when p maps to the line at infinity.
func (h Homography) Apply(p Point2D) (Point2D, bool) {
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	if math.Abs(w) < 1e-12 {
		return Point2D{}, false
	}
	return Point2D{
		X: (h[0][0]*p.X + h[0][1]*p.Y + h[0][2]) / w,
		Y: (h[1][0]*p.X + h[1][1]*p.Y + h[1][2]) / w,
	}, true
}

// Mul returns the composition h·other, which applies other first.
func (h Homography) Mul(other Homography) Homography {
	var out Homography
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += h[i][k] * other[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// Inverse returns the inverse transform, normalized so the bottom-right
// element is 1 when possible.
func (h Homography) Inverse() (Homography, error) {
	m := mat.NewDense(3, 3, h.flat())

	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var out Homography
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = inv.At(i, j)
		}
	}
	return out.normalized(), nil
}

// Near reports whether every element of h is within tol of other after
// both are normalized.
func (h Homography) Near(other Homography, tol float64) bool {
	a, b := h.normalized(), other.normalized()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(a[i][j]-b[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

func (h Homography) flat() []float64 {
	return []float64{
		h[0][0], h[0][1], h[0][2],
		h[1][0], h[1][1], h[1][2],
		h[2][0], h[2][1], h[2][2],
	}
}

func (h Homography) normalized() Homography {
	s := h[2][2]
	if math.Abs(s) < 1e-12 {
		return h
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			h[i][j] /= s
		}
	}
	return h
}
