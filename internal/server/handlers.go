package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ironsheep/marker-ar-mcp/internal/contour"
	"github.com/ironsheep/marker-ar-mcp/internal/geometry"
	"github.com/ironsheep/marker-ar-mcp/internal/imaging"
	"github.com/ironsheep/marker-ar-mcp/internal/marker"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "marker_apply").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	// Template management
	case "marker_templates":
		return s.handleMarkerTemplates(args)

	// Replacement
	case "marker_apply":
		return s.handleMarkerApply(args)
	case "marker_apply_batch":
		return s.handleMarkerApplyBatch(args)

	// Pipeline stages
	case "marker_contours":
		return s.handleMarkerContours(args)
	case "marker_rectify":
		return s.handleMarkerRectify(args)
	case "marker_orientation":
		return s.handleMarkerOrientation(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Templates ===

type markerTemplatesArgs struct {
	Templates []marker.TemplateSource `json:"templates"`
}

type templateInfo struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Marker  string `json:"marker"`
	Picture string `json:"picture"`
}

type templatesResult struct {
	CanonicalSize  int            `json:"canonical_size"`
	MatchThreshold float64        `json:"match_threshold"`
	Templates      []templateInfo `json:"templates"`
}

func (s *Server) handleMarkerTemplates(args json.RawMessage) (interface{}, error) {
	var a markerTemplatesArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}
	if len(a.Templates) > 0 {
		if err := s.LoadTemplates(a.Templates); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res := &templatesResult{
		CanonicalSize:  s.cfg.CanonicalSize,
		MatchThreshold: s.cfg.MatchThreshold,
		Templates:      []templateInfo{},
	}
	if s.pipeline == nil {
		return res, nil
	}
	m := s.pipeline.Matcher()
	for i := 0; i < m.Len(); i++ {
		res.Templates = append(res.Templates, templateInfo{
			Index:   i,
			Name:    m.Template(i).Name,
			Marker:  s.sources[i].Marker,
			Picture: s.sources[i].Picture,
		})
	}
	return res, nil
}

// === Replacement ===

type markerApplyArgs struct {
	Path         string `json:"path"`
	ImageBase64  string `json:"image_base64"`
	OutputPath   string `json:"output_path"`
	Debug        bool   `json:"debug"`
	DebugPath    string `json:"debug_path"`
	IncludeImage bool   `json:"include_image"`
}

type markerApplyResult struct {
	marker.Result
	OutputPath string                `json:"output_path,omitempty"`
	DebugPath  string                `json:"debug_path,omitempty"`
	Image      *imaging.EncodedImage `json:"image,omitempty"`
	DebugImage *imaging.EncodedImage `json:"debug_image,omitempty"`
}

// loadFrame returns a private NRGBA copy of the image at path, so the
// cached decode is never modified.
func (s *Server) loadFrame(path string) (*image.NRGBA, error) {
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return imaging.ToNRGBA(img), nil
}

func (s *Server) handleMarkerApply(args json.RawMessage) (interface{}, error) {
	var a markerApplyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.activePipeline()
	if err != nil {
		return nil, err
	}
	var frame *image.NRGBA
	switch {
	case a.ImageBase64 != "":
		img, err := imaging.DecodeBase64(a.ImageBase64)
		if err != nil {
			return nil, err
		}
		frame = imaging.ToNRGBA(img)
	case a.Path != "":
		if frame, err = s.loadFrame(a.Path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("path or image_base64 is required")
	}

	debug := a.Debug || a.DebugPath != ""
	out := &markerApplyResult{Result: p.ApplyAR(frame, debug)}

	if a.OutputPath != "" {
		if err := imaging.Save(a.OutputPath, frame); err != nil {
			return nil, err
		}
		out.OutputPath = a.OutputPath
	}
	if a.DebugPath != "" && out.Debug != nil {
		if err := imaging.Save(a.DebugPath, out.Debug); err != nil {
			return nil, err
		}
		out.DebugPath = a.DebugPath
	}
	if a.IncludeImage {
		if out.Image, err = imaging.EncodePNG(frame); err != nil {
			return nil, err
		}
		if a.Debug && out.Debug != nil {
			if out.DebugImage, err = imaging.EncodePNG(out.Debug); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

type markerApplyBatchArgs struct {
	Paths     []string `json:"paths"`
	OutputDir string   `json:"output_dir"`
}

type batchItem struct {
	Path       string        `json:"path"`
	OutputPath string        `json:"output_path,omitempty"`
	Result     marker.Result `json:"result"`
}

func (s *Server) handleMarkerApplyBatch(args json.RawMessage) (interface{}, error) {
	var a markerApplyBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must not be empty")
	}
	p, err := s.activePipeline()
	if err != nil {
		return nil, err
	}

	frames := make([]*image.NRGBA, len(a.Paths))
	for i, path := range a.Paths {
		if frames[i], err = s.loadFrame(path); err != nil {
			return nil, err
		}
	}

	results, err := p.ApplyBatch(context.Background(), frames, s.workers, false)
	if err != nil {
		return nil, err
	}

	items := make([]batchItem, len(a.Paths))
	for i, path := range a.Paths {
		items[i] = batchItem{Path: path, Result: results[i]}
		if a.OutputDir == "" || results[i].Replaced() == 0 {
			continue
		}
		outPath := OutputPath(a.OutputDir, path)
		if err := imaging.Save(outPath, frames[i]); err != nil {
			return nil, err
		}
		items[i].OutputPath = outPath
	}
	return items, nil
}

// OutputPath returns the path in dir for the processed copy of input. The
// copy is always written as PNG.
func OutputPath(dir, input string) string {
	base := filepath.Base(input)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".png")
}

// === Pipeline stages ===

type markerContoursArgs struct {
	Path           string `json:"path"`
	MinLength      int    `json:"min_length"`
	MaxLength      int    `json:"max_length"`
	IncludeOverlay bool   `json:"include_overlay"`
}

type contourInfo struct {
	Index   int             `json:"index"`
	Length  int             `json:"length"`
	MinX    int             `json:"min_x"`
	MinY    int             `json:"min_y"`
	MaxX    int             `json:"max_x"`
	MaxY    int             `json:"max_y"`
	Corners []contour.Point `json:"corners"`
	Quad    bool            `json:"quad"`
}

type contoursResult struct {
	Width     int                   `json:"width"`
	Height    int                   `json:"height"`
	Threshold uint8                 `json:"threshold"`
	Traced    int                   `json:"traced"`
	Contours  []contourInfo         `json:"contours"`
	Overlay   *imaging.EncodedImage `json:"overlay,omitempty"`
}

func (s *Server) handleMarkerContours(args json.RawMessage) (interface{}, error) {
	var a markerContoursArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg := s.cfg
	if a.MinLength > 0 {
		cfg.MinLength = a.MinLength
	}
	if a.MaxLength > 0 {
		cfg.MaxLength = a.MaxLength
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	an, err := marker.Analyze(cfg, img)
	if err != nil {
		return nil, err
	}

	quads := make(map[*contour.Contour]bool, len(an.Quads))
	for _, q := range an.Quads {
		quads[q] = true
	}

	res := &contoursResult{
		Width:     an.Width,
		Height:    an.Height,
		Threshold: an.Level,
		Traced:    an.Traced,
		Contours:  make([]contourInfo, len(an.Contours)),
	}
	for i, c := range an.Contours {
		res.Contours[i] = contourInfo{
			Index:   i,
			Length:  c.Length,
			MinX:    c.MinX,
			MinY:    c.MinY,
			MaxX:    c.MaxX,
			MaxY:    c.MaxY,
			Corners: c.Corners,
			Quad:    quads[c],
		}
	}
	if a.IncludeOverlay {
		if res.Overlay, err = imaging.EncodePNG(marker.Annotate(img, an, nil)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type pointArg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type markerRectifyArgs struct {
	Path    string     `json:"path"`
	Corners []pointArg `json:"corners"`
}

type rectifyResult struct {
	Homography  geometry.Homography   `json:"homography"`
	Orientation marker.Orientation    `json:"orientation"`
	Votes       [4]int                `json:"votes"`
	Scores      []float64             `json:"scores,omitempty"`
	Image       *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleMarkerRectify(args json.RawMessage) (interface{}, error) {
	var a markerRectifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Corners) != 4 {
		return nil, fmt.Errorf("need exactly 4 corners, got %d", len(a.Corners))
	}
	var corners [4]geometry.Point2D
	for i, c := range a.Corners {
		corners[i] = geometry.Pt(c.X, c.Y)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	binary, _ := imaging.OtsuThreshold(imaging.ToGray(img))

	size := s.cfg.CanonicalSize
	r := geometry.NewRectifier(size)
	h, err := r.Homography(corners)
	if err != nil {
		return nil, err
	}
	rectified, err := r.Rectify(binary, h)
	if err != nil {
		return nil, err
	}

	d := marker.NewDetector(marker.NewGeometry(size), s.cfg.Boundary)
	votes, err := d.Votes(rectified)
	if err != nil {
		return nil, err
	}
	angle, _ := d.Detect(rectified)

	res := &rectifyResult{Homography: h, Orientation: angle, Votes: votes}

	upright := rectified
	if angle != marker.Rotate0 {
		rot, err := geometry.RotationMatrix(int(angle), size)
		if err != nil {
			return nil, err
		}
		if upright, err = r.Rectify(binary, rot.Mul(h)); err != nil {
			return nil, err
		}
	}
	if p, err := s.activePipeline(); err == nil {
		if res.Scores, err = p.Matcher().Scores(upright); err != nil {
			return nil, err
		}
	}

	if res.Image, err = imaging.EncodePNG(upright); err != nil {
		return nil, err
	}
	return res, nil
}

type markerOrientationArgs struct {
	Path string `json:"path"`
}

type orientationResult struct {
	Orientation marker.Orientation `json:"orientation"`
	Votes       [4]int             `json:"votes"`
	Regions     [4]image.Rectangle `json:"regions"`
}

func (s *Server) handleMarkerOrientation(args json.RawMessage) (interface{}, error) {
	var a markerOrientationArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	size := s.cfg.CanonicalSize
	canonical, err := s.cache.LoadMarker(a.Path, size)
	if err != nil {
		return nil, err
	}

	d := marker.NewDetector(marker.NewGeometry(size), s.cfg.Boundary)
	votes, err := d.Votes(canonical)
	if err != nil {
		return nil, err
	}
	angle, err := d.Detect(canonical)
	if err != nil {
		return nil, err
	}
	return &orientationResult{
		Orientation: angle,
		Votes:       votes,
		Regions:     d.Geometry().Regions,
	}, nil
}
