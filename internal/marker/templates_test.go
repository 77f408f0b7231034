package marker

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/marker-ar-mcp/internal/imaging"
)

func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", name, err)
	}
	return path
}

func TestLoadTemplates(t *testing.T) {
	markerPath := writePNG(t, "arrow.png", createTemplate(design))
	picturePath := writePNG(t, "logo.png", createPicture(64, red))

	cache := imaging.NewImageCache()
	templates, err := LoadTemplates(cache, []TemplateSource{
		{Marker: markerPath, Picture: picturePath},
		{Name: "second", Marker: markerPath, Picture: picturePath},
	}, 256)
	if err != nil {
		t.Fatalf("LoadTemplates failed: %v", err)
	}

	if len(templates) != 2 {
		t.Fatalf("got %d templates, want 2", len(templates))
	}
	if templates[0].Name != "arrow" || templates[1].Name != "second" {
		t.Errorf("names: got %q and %q", templates[0].Name, templates[1].Name)
	}
	if b := templates[0].Picture.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Errorf("picture not scaled to canonical size: %v", b)
	}

	s, err := Similarity(templates[0].Marker, createTemplate(design), image.Rectangle{})
	if err != nil {
		t.Fatalf("Similarity failed: %v", err)
	}
	if s != 1 {
		t.Errorf("loaded marker differs from the source: similarity %v", s)
	}

	if _, err := NewMatcher(templates, 0.9, 256); err != nil {
		t.Errorf("loaded templates rejected by the matcher: %v", err)
	}
}

func TestLoadTemplates_Errors(t *testing.T) {
	cache := imaging.NewImageCache()

	if _, err := LoadTemplates(cache, nil, 256); !errors.Is(err, ErrTemplateCount) {
		t.Errorf("no sources: got %v, want ErrTemplateCount", err)
	}
	if _, err := LoadTemplates(cache, []TemplateSource{{Marker: "m.png"}}, 256); !errors.Is(err, ErrTemplateCount) {
		t.Errorf("missing picture: got %v, want ErrTemplateCount", err)
	}
	missing := []TemplateSource{{Marker: "/nonexistent/m.png", Picture: "/nonexistent/p.png"}}
	if _, err := LoadTemplates(cache, missing, 256); err == nil {
		t.Error("missing files accepted")
	}
}
