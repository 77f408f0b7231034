// Package geometry implements the projective transforms used to rectify
// marker candidates and to paint replacement pictures back into a frame.
//
// Coordinates are continuous with pixel centres on integer values, so pixel
// (x, y) of an image is sampled at exactly (x, y). A canonical square of
// side W has corners (0,0), (W,0), (W,W) and (0,W).
//
// Homographies are solved directly from four point correspondences with
// gonum's dense solver. Degenerate quadrilaterals are rejected with
// ErrDegenerateQuad before any solve, and transforms that cannot be
// inverted yield ErrSingular.
package geometry
