package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// collinearEpsilon is the smallest triangle area (in square pixels) a corner
// triple may span before the quad counts as degenerate.
const collinearEpsilon = 1e-6

// ComputeHomography solves the projective transform that maps the four src
// points onto the four dst points.
//
// With h22 fixed to 1, each correspondence (x, y) -> (u, v) contributes the
// two rows
//
//	[x y 1 0 0 0 -u·x -u·y] · h = u
//	[0 0 0 x y 1 -v·x -v·y] · h = v
//
// and the resulting 8x8 system is solved directly. Both quads are checked
// first; a degenerate one returns ErrDegenerateQuad.
func ComputeHomography(src, dst [4]Point2D) (Homography, error) {
	if err := CheckQuad(src); err != nil {
		return Homography{}, fmt.Errorf("source %w", err)
	}
	if err := CheckQuad(dst); err != nil {
		return Homography{}, fmt.Errorf("destination %w", err)
	}

	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -u*x)
		A.Set(i*2, 7, -u*y)
		B.SetVec(i*2, u)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -v*x)
		A.Set(i*2+1, 7, -v*y)
		B.SetVec(i*2+1, v)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	return Homography{
		{params.AtVec(0), params.AtVec(1), params.AtVec(2)},
		{params.AtVec(3), params.AtVec(4), params.AtVec(5)},
		{params.AtVec(6), params.AtVec(7), 1},
	}, nil
}

// CheckQuad returns ErrDegenerateQuad when any three of the corners are
// collinear or the polygon they outline has zero area.
func CheckQuad(q [4]Point2D) error {
	for i := 0; i < 4; i++ {
		a, b, c := q[i], q[(i+1)%4], q[(i+2)%4]
		if math.Abs(cross(a, b, c)) < 2*collinearEpsilon {
			return fmt.Errorf("%w: corners %v %v %v are collinear", ErrDegenerateQuad, a, b, c)
		}
	}
	if math.Abs(QuadArea(q)) < collinearEpsilon {
		return fmt.Errorf("%w: zero area", ErrDegenerateQuad)
	}
	return nil
}

// QuadArea returns the signed area of the polygon q by the shoelace
// formula. It is positive for clockwise corners in image coordinates
// (y pointing down).
func QuadArea(q [4]Point2D) float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		a, b := q[i], q[(i+1)%4]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// cross returns twice the signed area of triangle abc.
func cross(a, b, c Point2D) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
