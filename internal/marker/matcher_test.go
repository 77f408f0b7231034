package marker

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// createPlain returns a w x h gray image filled with v.
func createPlain(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// withFlipped returns a copy of img with the first n pixels inverted.
func withFlipped(img *image.Gray, n int) *image.Gray {
	out := image.NewGray(img.Bounds())
	copy(out.Pix, img.Pix)
	for i := 0; i < n; i++ {
		out.Pix[i] = 255 - out.Pix[i]
	}
	return out
}

func createPicture(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestSimilarity(t *testing.T) {
	black := createPlain(10, 10, 0)
	white := createPlain(10, 10, 255)

	tests := []struct {
		name   string
		a, b   *image.Gray
		region image.Rectangle
		want   float64
	}{
		{"identical", black, black, image.Rectangle{}, 1.0},
		{"inverse", black, white, image.Rectangle{}, 0.0},
		{"eleven flipped", black, withFlipped(black, 11), image.Rectangle{}, 0.89},
		{"nine flipped", black, withFlipped(black, 9), image.Rectangle{}, 0.91},
		{"region avoids flipped row", black, withFlipped(black, 10), image.Rect(0, 1, 10, 10), 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Similarity(tt.a, tt.b, tt.region)
			if err != nil {
				t.Fatalf("Similarity failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	a := withFlipped(createPlain(8, 8, 40), 20)
	b := createPlain(8, 8, 200)

	ab, _ := Similarity(a, b, image.Rectangle{})
	ba, _ := Similarity(b, a, image.Rectangle{})
	if ab != ba {
		t.Errorf("Similarity is not symmetric: %v vs %v", ab, ba)
	}
}

func TestSimilarity_DimensionMismatch(t *testing.T) {
	_, err := Similarity(createPlain(10, 10, 0), createPlain(10, 11, 0), image.Rectangle{})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestMatcher_Threshold(t *testing.T) {
	template := createPlain(10, 10, 0)
	pic := createPicture(10, color.NRGBA{255, 0, 0, 255})
	m, err := NewMatcher([]Template{{Marker: template, Picture: pic}}, 0.90, 10)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}

	tests := []struct {
		name    string
		flipped int
		want    bool
	}{
		{"score 0.89", 11, false},
		{"score 0.90", 10, false},
		{"score 0.91", 9, true},
		{"score 1.0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, ok, err := m.BestMatch(withFlipped(template, tt.flipped))
			if err != nil {
				t.Fatalf("BestMatch failed: %v", err)
			}
			if ok != tt.want {
				t.Errorf("matched: got %v, want %v (score %v)", ok, tt.want, match.Score)
			}
			if match.Index != 0 {
				t.Errorf("index: got %d, want 0", match.Index)
			}
		})
	}
}

func TestMatcher_PicksBestTemplate(t *testing.T) {
	a := createPlain(10, 10, 0)
	b := withFlipped(a, 5)
	red := createPicture(10, color.NRGBA{255, 0, 0, 255})
	blue := createPicture(10, color.NRGBA{0, 0, 255, 255})

	m, err := NewMatcher([]Template{
		{Name: "a", Marker: a, Picture: red},
		{Name: "b", Marker: b, Picture: blue},
	}, 0.90, 10)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}

	match, ok, err := m.BestMatch(b)
	if err != nil {
		t.Fatalf("BestMatch failed: %v", err)
	}
	if !ok || match.Index != 1 || match.Name != "b" || match.Picture != blue {
		t.Errorf("got %+v (ok %v), want template 1", match, ok)
	}

	scores, err := m.Scores(b)
	if err != nil {
		t.Fatalf("Scores failed: %v", err)
	}
	if scores[0] != 0.95 || scores[1] != 1.0 {
		t.Errorf("scores: got %v, want [0.95 1]", scores)
	}
}

func TestMatcher_TieGoesToLowestIndex(t *testing.T) {
	marker := createPlain(10, 10, 0)
	pic := createPicture(10, color.NRGBA{0, 255, 0, 255})

	m, err := NewMatcher([]Template{
		{Marker: marker, Picture: pic},
		{Marker: marker, Picture: pic},
		{Marker: marker, Picture: pic},
	}, 0.5, 10)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}

	match, _, err := m.BestMatch(marker)
	if err != nil {
		t.Fatalf("BestMatch failed: %v", err)
	}
	if match.Index != 0 {
		t.Errorf("index: got %d, want 0", match.Index)
	}
}

func TestNewMatcher_Validation(t *testing.T) {
	marker := createPlain(10, 10, 0)
	pic := createPicture(10, color.NRGBA{0, 0, 0, 255})

	tests := []struct {
		name      string
		templates []Template
		want      error
	}{
		{"empty", nil, ErrTemplateCount},
		{"missing picture", []Template{{Marker: marker}}, ErrTemplateCount},
		{"marker wrong size", []Template{{Marker: createPlain(12, 10, 0), Picture: pic}}, ErrNotCanonical},
		{"picture wrong size", []Template{{Marker: marker, Picture: createPicture(8, color.NRGBA{})}}, ErrNotCanonical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMatcher(tt.templates, 0.9, 10); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMatcher_CandidateWrongSize(t *testing.T) {
	m, err := NewMatcher([]Template{{
		Marker:  createPlain(10, 10, 0),
		Picture: createPicture(10, color.NRGBA{}),
	}}, 0.9, 10)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}
	if _, _, err := m.BestMatch(createPlain(9, 9, 0)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("got %v, want ErrDimensionMismatch", err)
	}
}
