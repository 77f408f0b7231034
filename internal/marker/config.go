package marker

import (
	"fmt"

	"github.com/ironsheep/marker-ar-mcp/internal/contour"
	"github.com/ironsheep/marker-ar-mcp/internal/imaging"
)

// Default pipeline constants. The length bounds and match threshold were
// tuned on 640x480 camera frames.
const (
	DefaultMinLength       = 200
	DefaultMaxLength       = 1500
	DefaultMatchThreshold  = 0.90
	DefaultCanonicalSize   = 256
	DefaultCornerThreshold = 0.5
)

// Config holds every tunable of the marker pipeline. A Config is copied into
// the Pipeline at construction and never changes afterwards.
type Config struct {
	// MinLength and MaxLength bound the number of points a contour may have
	// to be considered a marker outline (inclusive).
	MinLength int `json:"min_length"`
	MaxLength int `json:"max_length"`

	// MinCorners and MaxCorners bound the corner count (inclusive). Both are
	// 4 for quadrilateral markers.
	MinCorners int `json:"min_corners"`
	MaxCorners int `json:"max_corners"`

	// MatchThreshold is the similarity a candidate must strictly exceed to
	// be replaced.
	MatchThreshold float64 `json:"match_threshold"`

	// CanonicalSize is the side of the square every candidate is rectified
	// into. Marker templates and replacement pictures must have this size.
	CanonicalSize int `json:"canonical_size"`

	// Boundary is the colour of marker outlines in the thresholded frame.
	Boundary uint8 `json:"boundary"`

	// BlurRadius optionally smooths the grayscale frame before thresholding.
	// Zero disables smoothing.
	BlurRadius float64 `json:"blur_radius"`

	Harris          imaging.HarrisOptions `json:"-"`
	CornerThreshold float64               `json:"corner_threshold"`
	CornerWindow    int                   `json:"corner_window"`
	SubPix          contour.SubPixOptions `json:"-"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		MinLength:       DefaultMinLength,
		MaxLength:       DefaultMaxLength,
		MinCorners:      4,
		MaxCorners:      4,
		MatchThreshold:  DefaultMatchThreshold,
		CanonicalSize:   DefaultCanonicalSize,
		Boundary:        contour.Black,
		Harris:          imaging.DefaultHarrisOptions(),
		CornerThreshold: DefaultCornerThreshold,
		SubPix:          contour.DefaultSubPixOptions(),
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.MinLength < 1 || c.MaxLength < c.MinLength:
		return fmt.Errorf("invalid length bounds [%d, %d]", c.MinLength, c.MaxLength)
	case c.MinCorners < 4 || c.MaxCorners < c.MinCorners:
		return fmt.Errorf("invalid corner bounds [%d, %d]: rectification needs 4 corners", c.MinCorners, c.MaxCorners)
	case c.MaxCorners != 4:
		return fmt.Errorf("max corners must be 4 (got %d)", c.MaxCorners)
	case c.MatchThreshold < 0 || c.MatchThreshold > 1:
		return fmt.Errorf("match threshold must be in [0, 1] (got %v)", c.MatchThreshold)
	case c.CanonicalSize < 32:
		return fmt.Errorf("canonical size must be at least 32 (got %d)", c.CanonicalSize)
	case c.Boundary != contour.Black && c.Boundary != contour.White:
		return fmt.Errorf("boundary colour must be 0 or 255 (got %d)", c.Boundary)
	case c.BlurRadius < 0:
		return fmt.Errorf("blur radius must not be negative (got %v)", c.BlurRadius)
	case c.CornerWindow < 0:
		return fmt.Errorf("corner window must not be negative (got %d)", c.CornerWindow)
	}
	return nil
}
