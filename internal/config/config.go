// Package config reads server and pipeline settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/marker-ar-mcp/internal/contour"
	"github.com/ironsheep/marker-ar-mcp/internal/marker"
)

// Environment variable names.
const (
	EnvLogLevel        = "MARKER_AR_LOG_LEVEL"
	EnvTemplates       = "MARKER_AR_TEMPLATES"
	EnvWorkers         = "MARKER_AR_WORKERS"
	EnvMinLength       = "MARKER_AR_MIN_LENGTH"
	EnvMaxLength       = "MARKER_AR_MAX_LENGTH"
	EnvMatchThreshold  = "MARKER_AR_MATCH_THRESHOLD"
	EnvCanonicalSize   = "MARKER_AR_CANONICAL_SIZE"
	EnvBoundary        = "MARKER_AR_BOUNDARY"
	EnvBlurRadius      = "MARKER_AR_BLUR_RADIUS"
	EnvCornerThreshold = "MARKER_AR_CORNER_THRESHOLD"
)

// Config holds the server settings and the marker pipeline configuration.
type Config struct {
	LogLevel  string
	Workers   int
	Templates []marker.TemplateSource
	Pipeline  marker.Config
}

// LoadFromEnv builds a Config from the environment, falling back to the
// pipeline defaults for anything unset or unparsable.
func LoadFromEnv() (*Config, error) {
	p := marker.DefaultConfig()
	p.MinLength = parseIntOrDefault(EnvMinLength, p.MinLength)
	p.MaxLength = parseIntOrDefault(EnvMaxLength, p.MaxLength)
	p.MatchThreshold = parseFloatOrDefault(EnvMatchThreshold, p.MatchThreshold)
	p.CanonicalSize = parseIntOrDefault(EnvCanonicalSize, p.CanonicalSize)
	p.BlurRadius = parseFloatOrDefault(EnvBlurRadius, p.BlurRadius)
	p.CornerThreshold = parseFloatOrDefault(EnvCornerThreshold, p.CornerThreshold)

	boundary, err := ParseBoundary(getEnvOrDefault(EnvBoundary, "black"))
	if err != nil {
		return nil, err
	}
	p.Boundary = boundary

	templates, err := ParseTemplates(os.Getenv(EnvTemplates))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvTemplates, err)
	}

	cfg := &Config{
		LogLevel:  getEnvOrDefault(EnvLogLevel, "info"),
		Workers:   parseIntOrDefault(EnvWorkers, 0),
		Templates: templates,
		Pipeline:  p,
	}

	if cfg.Workers < 0 {
		return nil, fmt.Errorf("%s must be >= 0 (got %d)", EnvWorkers, cfg.Workers)
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseTemplates parses a comma separated list of marker=picture pairs. A
// pair may be prefixed with "name:" to name the template. An empty string
// yields no templates.
//
//	arrow:markers/arrow.png=pictures/cat.png,markers/star.png=pictures/dog.png
func ParseTemplates(s string) ([]marker.TemplateSource, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var out []marker.TemplateSource
	for i, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		var src marker.TemplateSource
		if name, rest, ok := strings.Cut(item, ":"); ok && len(name) > 1 && !strings.ContainsAny(name, `/\=.`) {
			src.Name = name
			item = rest
		}
		m, p, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(m) == "" || strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("template %d: want marker=picture, got %q", i, item)
		}
		src.Marker = strings.TrimSpace(m)
		src.Picture = strings.TrimSpace(p)
		out = append(out, src)
	}
	return out, nil
}

// ParseBoundary maps "black" or "white" (or the pixel values 0 and 255) to
// the boundary colour.
func ParseBoundary(s string) (uint8, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "black", "0":
		return contour.Black, nil
	case "white", "255":
		return contour.White, nil
	}
	return 0, fmt.Errorf("invalid %s: %q (want black or white)", EnvBoundary, s)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
