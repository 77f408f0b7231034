package marker

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/marker-ar-mcp/internal/imaging"
)

// TemplateSource names the files of one marker and its replacement picture.
type TemplateSource struct {
	Name    string `json:"name"`
	Marker  string `json:"marker"`
	Picture string `json:"picture"`
}

// LoadTemplates reads every source through cache, scaling markers and
// pictures to the canonical size. A source without a name is named after
// its marker file.
func LoadTemplates(cache *imaging.ImageCache, sources []TemplateSource, size int) ([]Template, error) {
	if len(sources) == 0 {
		return nil, ErrTemplateCount
	}

	templates := make([]Template, 0, len(sources))
	for i, src := range sources {
		if src.Marker == "" || src.Picture == "" {
			return nil, fmt.Errorf("template %d: %w", i, ErrTemplateCount)
		}
		m, err := cache.LoadMarker(src.Marker, size)
		if err != nil {
			return nil, fmt.Errorf("template %d marker: %w", i, err)
		}
		p, err := cache.LoadPicture(src.Picture, size)
		if err != nil {
			return nil, fmt.Errorf("template %d picture: %w", i, err)
		}

		name := src.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(src.Marker), filepath.Ext(src.Marker))
		}
		templates = append(templates, Template{Name: name, Marker: m, Picture: p})
	}
	return templates, nil
}
