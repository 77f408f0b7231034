package marker

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrDimensionMismatch is returned when two images that must share a
	// size do not.
	ErrDimensionMismatch = errors.New("image dimensions differ")

	// ErrTemplateCount is returned when the template list is empty or a
	// template has no replacement picture.
	ErrTemplateCount = errors.New("every marker template needs exactly one replacement picture")

	// ErrNotCanonical is returned for images that are not size x size.
	ErrNotCanonical = errors.New("image is not canonical size")
)

// Similarity returns the mean per-pixel agreement of a and b over region:
// each pixel contributes (255 - |a - b|) / 255 and the sum is divided by the
// region's area. Identical images score exactly 1 and exact inverses of a
// binary image score exactly 0.
//
// region is given in the coordinates of a's bounds. An empty region means
// the whole image.
func Similarity(a, b *image.Gray, region image.Rectangle) (float64, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	if region.Empty() {
		region = ab
	}
	region = region.Intersect(ab)
	if region.Empty() {
		return 0, fmt.Errorf("%w: region outside image", ErrDimensionMismatch)
	}

	dx, dy := bb.Min.X-ab.Min.X, bb.Min.Y-ab.Min.Y
	var sum float64
	for y := region.Min.Y; y < region.Max.Y; y++ {
		ra := a.Pix[a.PixOffset(region.Min.X, y):]
		rb := b.Pix[b.PixOffset(region.Min.X+dx, y+dy):]
		for x := 0; x < region.Dx(); x++ {
			d := int(ra[x]) - int(rb[x])
			if d < 0 {
				d = -d
			}
			sum += float64(255-d) / 255
		}
	}
	return sum / float64(region.Dx()*region.Dy()), nil
}

// Template pairs a binarized marker with the picture drawn in its place.
type Template struct {
	Name    string
	Marker  *image.Gray
	Picture *image.NRGBA
}

// Match is the best scoring template for one candidate.
type Match struct {
	Index   int          `json:"template"`
	Name    string       `json:"name,omitempty"`
	Score   float64      `json:"score"`
	Picture *image.NRGBA `json:"-"`
}

// Matcher compares rectified candidates against a fixed template set.
// It is read-only after construction and safe for concurrent use.
type Matcher struct {
	templates []Template
	threshold float64
	size      int
}

// NewMatcher validates the templates and returns a Matcher. Every marker
// and picture must be size x size.
func NewMatcher(templates []Template, threshold float64, size int) (*Matcher, error) {
	if len(templates) == 0 {
		return nil, ErrTemplateCount
	}
	for i, t := range templates {
		if t.Marker == nil || t.Picture == nil {
			return nil, fmt.Errorf("template %d: %w", i, ErrTemplateCount)
		}
		if b := t.Marker.Bounds(); b.Dx() != size || b.Dy() != size {
			return nil, fmt.Errorf("template %d marker %dx%d: %w", i, b.Dx(), b.Dy(), ErrNotCanonical)
		}
		if b := t.Picture.Bounds(); b.Dx() != size || b.Dy() != size {
			return nil, fmt.Errorf("template %d picture %dx%d: %w", i, b.Dx(), b.Dy(), ErrNotCanonical)
		}
	}
	ts := make([]Template, len(templates))
	copy(ts, templates)
	return &Matcher{templates: ts, threshold: threshold, size: size}, nil
}

// Len returns the number of templates.
func (m *Matcher) Len() int {
	return len(m.templates)
}

// Template returns template i.
func (m *Matcher) Template(i int) Template {
	return m.templates[i]
}

// Threshold returns the score a candidate must exceed.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Scores returns the similarity of the candidate to every template, in
// template order.
func (m *Matcher) Scores(candidate *image.Gray) ([]float64, error) {
	if b := candidate.Bounds(); b.Dx() != m.size || b.Dy() != m.size {
		return nil, fmt.Errorf("candidate %dx%d: %w", b.Dx(), b.Dy(), ErrDimensionMismatch)
	}
	scores := make([]float64, len(m.templates))
	for i, t := range m.templates {
		s, err := Similarity(candidate, t.Marker, image.Rectangle{})
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	return scores, nil
}

// BestMatch returns the highest scoring template. On equal scores the
// lowest index wins. ok is false when the best score does not exceed the
// threshold; the returned Match still carries that score.
func (m *Matcher) BestMatch(candidate *image.Gray) (Match, bool, error) {
	scores, err := m.Scores(candidate)
	if err != nil {
		return Match{}, false, err
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	t := m.templates[best]
	match := Match{Index: best, Name: t.Name, Score: scores[best], Picture: t.Picture}
	return match, scores[best] > m.threshold, nil
}
