package marker

import (
	"image"

	"github.com/ironsheep/marker-ar-mcp/internal/geometry"
)

// Status is the outcome of processing one frame.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Reason tags why a frame failed. It is empty for StatusOK.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonInvalidFrame Reason = "invalid_frame"
	ReasonInternal     Reason = "internal"
	ReasonCanceled     Reason = "canceled"
)

// Region describes one replaced marker.
type Region struct {
	Template    int                 `json:"template"`
	Name        string              `json:"name,omitempty"`
	Orientation Orientation         `json:"orientation"`
	Score       float64             `json:"score"`
	Corners     [4]geometry.Point2D `json:"corners"`
	Pixels      int                 `json:"pixels_written"`
}

// Result reports what ApplyAR did to a frame. On StatusFailed the frame is
// unmodified and Regions is empty.
type Result struct {
	Status Status `json:"status"`
	Reason Reason `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`

	// Threshold is the Otsu level used to binarize the frame.
	Threshold uint8 `json:"threshold"`

	// Contours, Candidates and Skipped count traced contours, contours
	// that passed both filters, and candidates dropped on a geometry error.
	Contours   int `json:"contours"`
	Candidates int `json:"candidates"`
	Skipped    int `json:"skipped"`

	Regions []Region `json:"regions"`

	// Debug is an annotated copy of the input frame, present only when
	// requested.
	Debug *image.NRGBA `json:"-"`
}

// Replaced returns the number of regions written into the frame.
func (r Result) Replaced() int {
	return len(r.Regions)
}

func failed(reason Reason, err error) Result {
	res := Result{Status: StatusFailed, Reason: reason, Regions: []Region{}}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
