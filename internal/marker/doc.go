// Package marker recognises planar fiducial markers in camera frames and
// replaces them with pictures.
//
// A Pipeline binarizes a frame with Otsu's method, traces the boundary of
// every dark region, and keeps those whose length and corner count fit a
// quadrilateral marker. Each surviving quadrilateral is rectified onto a
// canonical square, turned upright using the position of the marker's
// orientation bar, and compared pixel by pixel with a fixed set of
// templates. When the best template scores above the match threshold its
// replacement picture is warped back over the marker.
//
// Processing is per frame and synchronous. The templates are the only state
// shared between frames, so a single Pipeline can serve concurrent callers
// and ApplyBatch spreads independent frames over a worker pool.
package marker
