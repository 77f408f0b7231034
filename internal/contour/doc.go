// Package contour extracts closed boundaries of connected regions from binary
// images and locates the corners along them.
//
// # Pipeline
//
//  1. NewBinaryImage wraps a thresholded frame in a raster with one pixel of
//     padding.
//  2. Trace follows the outer boundary of every region of the chosen colour
//     with a Moore-neighbour walk and returns each as a clockwise Contour.
//  3. KeepBetweenLength drops contours that are too short or too long.
//  4. BoundaryRaster redraws the survivors, and a corner response computed
//     on it (see imaging.HarrisResponse) feeds ExtractCorners.
//  5. KeepBetweenCorners keeps the quadrilaterals and RefineCorners snaps
//     their corners to the intensity edges of the thresholded frame.
//
// # Coordinates
//
// Contour points are in source image coordinates. Rasters that carry the
// tracing padding (BoundaryRaster, and any response computed from it) store
// source pixel (x, y) at (x+1, y+1).
//
// # Thread Safety
//
// Trace repaints the padding of the BinaryImage it is given, so one
// BinaryImage must not be traced from two goroutines at once. Everything
// else only reads its inputs.
package contour
