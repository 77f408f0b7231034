// Package imaging provides the raster operations the marker pipeline is built
// from.
//
// It covers loading and caching of frames, marker templates and replacement
// pictures, grayscale conversion, Otsu binarization, the Harris corner
// response, and small drawing helpers used for debug overlays. Images are
// exchanged as standard library types (*image.Gray, *image.NRGBA) and all
// results start at the origin.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Binary Images
//
// Thresholded images hold only 0 (black) and 255 (white). Threshold maps a
// pixel to white when its value is strictly greater than the level.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and never modify their inputs, so they can run concurrently on
// shared images.
package imaging
