package config

import (
	"reflect"
	"testing"

	"github.com/ironsheep/marker-ar-mcp/internal/contour"
	"github.com/ironsheep/marker-ar-mcp/internal/marker"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		EnvLogLevel, EnvTemplates, EnvWorkers, EnvMinLength, EnvMaxLength,
		EnvMatchThreshold, EnvCanonicalSize, EnvBoundary, EnvBlurRadius, EnvCornerThreshold,
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.Workers != 0 || len(cfg.Templates) != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Pipeline, marker.DefaultConfig()) {
		t.Errorf("pipeline config: got %+v, want defaults", cfg.Pipeline)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvWorkers, "4")
	t.Setenv(EnvMinLength, "100")
	t.Setenv(EnvMaxLength, "900")
	t.Setenv(EnvMatchThreshold, "0.8")
	t.Setenv(EnvCanonicalSize, "128")
	t.Setenv(EnvBoundary, "white")
	t.Setenv(EnvBlurRadius, "1.5")
	t.Setenv(EnvTemplates, "a.png=b.png")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}

	p := cfg.Pipeline
	if p.MinLength != 100 || p.MaxLength != 900 || p.MatchThreshold != 0.8 || p.CanonicalSize != 128 {
		t.Errorf("numeric overrides not applied: %+v", p)
	}
	if p.Boundary != contour.White || p.BlurRadius != 1.5 {
		t.Errorf("boundary/blur: got %d/%v", p.Boundary, p.BlurRadius)
	}
	if cfg.LogLevel != "debug" || cfg.Workers != 4 || len(cfg.Templates) != 1 {
		t.Errorf("server overrides not applied: %+v", cfg)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"negative workers", EnvWorkers, "-1"},
		{"threshold out of range", EnvMatchThreshold, "2"},
		{"bad boundary", EnvBoundary, "grey"},
		{"bad templates", EnvTemplates, "only-a-marker.png"},
		{"inverted lengths", EnvMinLength, "5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("%s=%q accepted", tt.key, tt.value)
			}
		})
	}
}

func TestParseTemplates(t *testing.T) {
	got, err := ParseTemplates(" arrow:m/arrow.png=p/cat.png , m/star.png = p/dog.png ,")
	if err != nil {
		t.Fatalf("ParseTemplates failed: %v", err)
	}
	want := []marker.TemplateSource{
		{Name: "arrow", Marker: "m/arrow.png", Picture: "p/cat.png"},
		{Marker: "m/star.png", Picture: "p/dog.png"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if got, err := ParseTemplates(""); err != nil || got != nil {
		t.Errorf("empty input: got %v, %v", got, err)
	}
	if _, err := ParseTemplates("a.png="); err == nil {
		t.Error("missing picture accepted")
	}
}

func TestParseBoundary(t *testing.T) {
	tests := []struct {
		in   string
		want uint8
		ok   bool
	}{
		{"black", 0, true},
		{"WHITE", 255, true},
		{"0", 0, true},
		{"255", 255, true},
		{"gray", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseBoundary(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseBoundary(%q): got %d, %v", tt.in, got, err)
		}
	}
}
