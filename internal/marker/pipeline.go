package marker

import (
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/marker-ar-mcp/internal/contour"
	"github.com/ironsheep/marker-ar-mcp/internal/geometry"
	"github.com/ironsheep/marker-ar-mcp/internal/imaging"
	"github.com/ironsheep/marker-ar-mcp/internal/logging"
)

// ErrEmptyFrame is returned for frames without pixels.
var ErrEmptyFrame = errors.New("frame has no pixels")

// Pipeline finds markers in camera frames and paints the matching
// replacement pictures over them.
//
// A Pipeline holds only read-only state after New returns. Every call
// allocates its own rasters and contours, so one Pipeline may process many
// frames concurrently.
type Pipeline struct {
	cfg       Config
	matcher   *Matcher
	detector  *Detector
	rectifier *geometry.Rectifier
	log       logrus.FieldLogger
}

// New validates cfg and returns a Pipeline matching against matcher. A nil
// logger discards all output.
func New(cfg Config, matcher *Matcher, log logrus.FieldLogger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if matcher == nil {
		return nil, ErrTemplateCount
	}
	if matcher.size != cfg.CanonicalSize {
		return nil, fmt.Errorf("templates are %dx%d but canonical size is %d: %w",
			matcher.size, matcher.size, cfg.CanonicalSize, ErrNotCanonical)
	}
	if log == nil {
		log = logging.Discard()
	}

	return &Pipeline{
		cfg:       cfg,
		matcher:   matcher,
		detector:  NewDetector(NewGeometry(cfg.CanonicalSize), cfg.Boundary),
		rectifier: geometry.NewRectifier(cfg.CanonicalSize),
		log:       log,
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Matcher returns the template matcher.
func (p *Pipeline) Matcher() *Matcher {
	return p.matcher
}

// Detector returns the orientation detector.
func (p *Pipeline) Detector() *Detector {
	return p.detector
}

// Analysis holds the per-frame rasters and contours that precede candidate
// evaluation.
type Analysis struct {
	Width  int
	Height int

	Gray   *image.Gray
	Binary *image.Gray
	Level  uint8

	// Traced is the number of contours found before any filtering.
	Traced int

	// Contours passed the length filter and carry their extracted corners.
	Contours []*contour.Contour

	// Quads passed the corner filter. Their corners are refined in place,
	// so the same contours in Contours see the refined positions.
	Quads []*contour.Contour
}

// Analyze runs the frame-level stages with cfg: grayscale conversion, Otsu
// thresholding, contour tracing, length filtering, corner extraction,
// corner filtering and sub-pixel refinement. It needs no templates.
func Analyze(cfg Config, frame image.Image) (*Analysis, error) {
	b := frame.Bounds()
	if b.Empty() {
		return nil, ErrEmptyFrame
	}
	w, h := b.Dx(), b.Dy()

	gray := imaging.Smooth(imaging.ToGray(frame), cfg.BlurRadius)
	binary, level := imaging.OtsuThreshold(gray)

	traced := contour.Trace(contour.NewBinaryImage(binary), cfg.Boundary)
	a := &Analysis{
		Width:  w,
		Height: h,
		Gray:   gray,
		Binary: binary,
		Level:  level,
		Traced: len(traced),
	}

	sized := contour.KeepBetweenLength(traced, cfg.MinLength, cfg.MaxLength)
	response := imaging.HarrisResponse(contour.BoundaryRaster(sized, w, h), cfg.Harris)
	contour.ExtractAllCorners(sized, response, contour.CornerOptions{
		Threshold: cfg.CornerThreshold,
		Window:    cfg.CornerWindow,
	})
	a.Contours = append([]*contour.Contour(nil), sized...)

	quads := contour.KeepBetweenCorners(sized, cfg.MinCorners, cfg.MaxCorners)
	contour.RefineCorners(binary, quads, cfg.SubPix)
	a.Quads = quads

	return a, nil
}

// Analyze runs the frame-level stages with the pipeline's configuration.
func (p *Pipeline) Analyze(frame image.Image) (*Analysis, error) {
	a, err := Analyze(p.cfg, frame)
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"width":      a.Width,
		"height":     a.Height,
		"threshold":  a.Level,
		"traced":     a.Traced,
		"sized":      len(a.Contours),
		"candidates": len(a.Quads),
	}).Debug("frame analyzed")
	return a, nil
}

// Candidate is one quadrilateral contour carried through rectification,
// orientation detection and matching.
type Candidate struct {
	Contour *contour.Contour    `json:"-"`
	Corners [4]geometry.Point2D `json:"corners"`

	// ToCanonical maps frame coordinates onto the canonical square with the
	// first corner at the origin.
	ToCanonical geometry.Homography `json:"-"`
	Rectified   *image.Gray         `json:"-"`

	Orientation Orientation `json:"orientation"`
	Votes       [4]int      `json:"votes"`

	// ToUpright maps frame coordinates onto the canonical square with the
	// marker upright. Upright is the frame resampled through it.
	ToUpright geometry.Homography `json:"-"`
	Upright   *image.Gray         `json:"-"`

	Match   Match `json:"match"`
	Matched bool  `json:"matched"`
}

// Evaluate rectifies one quadrilateral contour out of the binary frame,
// detects its orientation and matches it against the templates. It returns
// an error when the contour's corners cannot define a homography.
func (p *Pipeline) Evaluate(binary *image.Gray, c *contour.Contour) (*Candidate, error) {
	if len(c.Corners) != 4 {
		return nil, fmt.Errorf("%w: contour has %d corners", geometry.ErrDegenerateQuad, len(c.Corners))
	}

	cand := &Candidate{Contour: c}
	for i, k := range c.Corners {
		cand.Corners[i] = geometry.Pt(float64(k.X), float64(k.Y))
	}

	h, err := p.rectifier.Homography(cand.Corners)
	if err != nil {
		return nil, err
	}
	cand.ToCanonical = h

	cand.Rectified, err = p.rectifier.Rectify(binary, h)
	if err != nil {
		return nil, err
	}

	cand.Votes, err = p.detector.Votes(cand.Rectified)
	if err != nil {
		return nil, err
	}
	cand.Orientation = argmaxOrientation(cand.Votes)

	rot, err := geometry.RotationMatrix(int(cand.Orientation), p.cfg.CanonicalSize)
	if err != nil {
		return nil, err
	}
	cand.ToUpright = rot.Mul(h)
	if cand.Orientation == Rotate0 {
		cand.Upright = cand.Rectified
	} else {
		// Upright comes straight from the frame, not from Rectified.
		cand.Upright, err = p.rectifier.Rectify(binary, cand.ToUpright)
		if err != nil {
			return nil, err
		}
	}

	cand.Match, cand.Matched, err = p.matcher.BestMatch(cand.Upright)
	if err != nil {
		return nil, err
	}
	return cand, nil
}

// compose paints the matched template's picture into frame over the
// candidate's quadrilateral. The picture is turned by the companion
// picture rotation so it keeps the marker's orientation.
func (p *Pipeline) compose(frame *image.NRGBA, cand *Candidate) (int, error) {
	pic, err := geometry.PictureRotation(int(cand.Orientation), p.cfg.CanonicalSize)
	if err != nil {
		return 0, err
	}
	toCanonical, err := pic.Inverse()
	if err != nil {
		return 0, err
	}
	return p.rectifier.Compose(frame, cand.Match.Picture, toCanonical.Mul(cand.ToCanonical))
}

// ApplyAR replaces every recognised marker in frame with its template's
// picture.
//
// Candidates whose geometry fails are logged and skipped. Any other failure,
// including a panic in an image operation, is reported through the Result
// and leaves frame unmodified: replacements are drawn on a private copy that
// is written back only once the whole frame has succeeded.
func (p *Pipeline) ApplyAR(frame *image.NRGBA, debug bool) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("panic", r).Error("frame processing aborted")
			res = failed(ReasonInternal, fmt.Errorf("panic: %v", r))
		}
	}()

	if frame == nil || frame.Bounds().Empty() {
		return failed(ReasonInvalidFrame, ErrEmptyFrame)
	}

	a, err := p.Analyze(frame)
	if err != nil {
		p.log.WithError(err).Warn("frame analysis failed")
		return failed(ReasonInternal, err)
	}

	res = Result{
		Status:     StatusOK,
		Threshold:  a.Level,
		Contours:   a.Traced,
		Candidates: len(a.Quads),
		Regions:    []Region{},
	}

	var work *image.NRGBA
	var evaluated []*Candidate
	for i, c := range a.Quads {
		log := p.log.WithField("contour", i)

		cand, err := p.Evaluate(a.Binary, c)
		if err != nil {
			res.Skipped++
			log.WithError(err).Debug("candidate skipped")
			continue
		}
		evaluated = append(evaluated, cand)

		if !cand.Matched {
			log.WithFields(logrus.Fields{
				"template": cand.Match.Index,
				"score":    cand.Match.Score,
			}).Debug("no template matched")
			continue
		}

		if work == nil {
			work = imaging.ToNRGBA(frame)
		}
		n, err := p.compose(work, cand)
		if err != nil {
			res.Skipped++
			log.WithError(err).Debug("replacement skipped")
			continue
		}

		res.Regions = append(res.Regions, Region{
			Template:    cand.Match.Index,
			Name:        cand.Match.Name,
			Orientation: cand.Orientation,
			Score:       cand.Match.Score,
			Corners:     cand.Corners,
			Pixels:      n,
		})
		log.WithFields(logrus.Fields{
			"template":    cand.Match.Index,
			"score":       cand.Match.Score,
			"orientation": int(cand.Orientation),
			"pixels":      n,
		}).Info("marker replaced")
	}

	if debug {
		var drawn image.Image = frame
		if work != nil {
			drawn = work
		}
		res.Debug = Annotate(drawn, a, evaluated)
	}
	if work != nil {
		copyInto(frame, work)
	}
	return res
}

// copyInto writes src, which has its origin at (0, 0), over dst.
func copyInto(dst, src *image.NRGBA) {
	b := dst.Bounds()
	n := 4 * b.Dx()
	for y := 0; y < b.Dy(); y++ {
		d := dst.PixOffset(b.Min.X, b.Min.Y+y)
		s := y * src.Stride
		copy(dst.Pix[d:d+n], src.Pix[s:s+n])
	}
}
