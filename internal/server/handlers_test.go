package server

import (
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

var (
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{0, 0, 0, 255}
	red   = color.NRGBA{255, 0, 0, 255}
)

// design is a 256 square marker: a 52 pixel black frame with a bar near the
// bottom edge.
func design(u, v int) bool {
	if u < 52 || u >= 204 || v < 52 || v >= 204 {
		return true
	}
	return u >= 80 && u < 190 && v >= 150 && v < 190
}

func writePNG(t *testing.T, path string, img image.Image) string {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
	return path
}

func createMarkerFile(t *testing.T, dir string, shape func(u, v int) bool) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	for v := 0; v < 256; v++ {
		for u := 0; u < 256; u++ {
			c := white
			if shape(u, v) {
				c = black
			}
			img.SetNRGBA(u, v, c)
		}
	}
	return writePNG(t, filepath.Join(dir, "marker.png"), img)
}

func createSolidFile(t *testing.T, path string, w, h int, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return writePNG(t, path, img)
}

// createFrameFile writes a 320x240 white frame with the design drawn at
// half scale with its corner at (96, 56).
func createFrameFile(t *testing.T, path string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.SetNRGBA(x, y, white)
		}
	}
	for j := 0; j < 128; j++ {
		for i := 0; i < 128; i++ {
			if design(2*i, 2*j) {
				img.SetNRGBA(96+i, 56+j, black)
			}
		}
	}
	return writePNG(t, path, img)
}

// newTemplateServer returns a server with the design template loaded and a
// solid red replacement picture.
func newTemplateServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	s := newTestServer()

	result := callTool(t, s, "marker_templates", map[string]interface{}{
		"templates": []map[string]interface{}{
			{
				"marker":  createMarkerFile(t, dir, design),
				"picture": createSolidFile(t, filepath.Join(dir, "picture.png"), 64, 64, red),
			},
		},
	})
	var res templatesResult
	if err := json.Unmarshal([]byte(result), &res); err != nil {
		t.Fatalf("failed to decode templates result: %v", err)
	}
	if len(res.Templates) != 1 || res.Templates[0].Name != "marker" {
		t.Fatalf("templates: got %+v", res.Templates)
	}
	return s, dir
}

// callTool sends a tools/call request through handleRequest and returns the
// text content of a successful response.
func callTool(t *testing.T, s *Server, name string, args interface{}) string {
	t.Helper()
	resp := s.handleRequest(toolRequest(t, name, args))
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("%s failed: %s (%v)", name, resp.Error.Message, resp.Error.Data)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	return content[0]["text"].(string)
}

func toolRequest(t *testing.T, name string, args interface{}) *MCPRequest {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	return &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer()
	imgPath := createSolidFile(t, filepath.Join(t.TempDir(), "solid.png"), 100, 80, red)

	text := callTool(t, s, "image_load", map[string]interface{}{"path": imgPath})

	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if info.Width != 100 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format: got %s, want png", info.Format)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(toolRequest(t, "image_load", map[string]interface{}{
		"path": "/nonexistent/path/to/image.png",
	}))

	if resp.Error == nil {
		t.Fatal("Expected error for non-existent file")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(toolRequest(t, "nonexistent_tool", map[string]interface{}{}))

	if resp.Error == nil {
		t.Fatal("Expected error for invalid tool")
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{invalid json}`),
	})

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_MarkerTemplates(t *testing.T) {
	s := newTestServer()

	var res templatesResult
	if err := json.Unmarshal([]byte(callTool(t, s, "marker_templates", map[string]interface{}{})), &res); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(res.Templates) != 0 {
		t.Errorf("templates: got %d, want 0", len(res.Templates))
	}
	if res.CanonicalSize != 256 || res.MatchThreshold != 0.9 {
		t.Errorf("settings: got size %d threshold %v", res.CanonicalSize, res.MatchThreshold)
	}

	resp := s.handleRequest(toolRequest(t, "marker_templates", map[string]interface{}{
		"templates": []map[string]interface{}{{"marker": "/nonexistent/marker.png", "picture": "/nonexistent/picture.png"}},
	}))
	if resp.Error == nil {
		t.Error("expected an error for missing template files")
	}
	if _, err := s.activePipeline(); err == nil {
		t.Error("a failed load should not activate a pipeline")
	}
}

func TestHandleToolsCall_MarkerApply_NoTemplates(t *testing.T) {
	s := newTestServer()
	frame := createFrameFile(t, filepath.Join(t.TempDir(), "frame.png"))

	resp := s.handleRequest(toolRequest(t, "marker_apply", map[string]interface{}{"path": frame}))
	if resp.Error == nil {
		t.Fatal("expected an error without templates")
	}
}

type appliedRegion struct {
	Template    int `json:"template"`
	Orientation int `json:"orientation"`
}

type applyResponse struct {
	Status     string                 `json:"status"`
	Regions    []appliedRegion        `json:"regions"`
	OutputPath string                 `json:"output_path"`
	DebugPath  string                 `json:"debug_path"`
	Image      map[string]interface{} `json:"image"`
	DebugImage map[string]interface{} `json:"debug_image"`
}

func TestHandleToolsCall_MarkerApply(t *testing.T) {
	s, dir := newTemplateServer(t)
	frame := createFrameFile(t, filepath.Join(dir, "frame.png"))
	output := filepath.Join(dir, "out.png")
	debugOut := filepath.Join(dir, "debug.png")

	text := callTool(t, s, "marker_apply", map[string]interface{}{
		"path":          frame,
		"output_path":   output,
		"debug_path":    debugOut,
		"include_image": true,
	})

	var res applyResponse
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if res.Status != "ok" {
		t.Fatalf("status: got %s", res.Status)
	}
	if len(res.Regions) != 1 || res.Regions[0].Template != 0 || res.Regions[0].Orientation != 0 {
		t.Fatalf("regions: got %+v", res.Regions)
	}
	if res.OutputPath != output || res.DebugPath != debugOut {
		t.Errorf("paths: got %q and %q", res.OutputPath, res.DebugPath)
	}
	if res.Image == nil {
		t.Error("include_image should return the frame")
	}
	if res.DebugImage != nil {
		t.Error("debug image should only be inlined when debug is set")
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if got := color.NRGBAModel.Convert(img.At(160, 120)).(color.NRGBA); got != red {
		t.Errorf("marker centre: got %v, want %v", got, red)
	}
	if got := color.NRGBAModel.Convert(img.At(10, 10)).(color.NRGBA); got != white {
		t.Errorf("background: got %v, want %v", got, white)
	}

	if _, err := os.Stat(debugOut); err != nil {
		t.Errorf("debug overlay not written: %v", err)
	}

	// The cached source frame is untouched, so a second run matches again.
	var again applyResponse
	if err := json.Unmarshal([]byte(callTool(t, s, "marker_apply", map[string]interface{}{"path": frame})), &again); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(again.Regions) != 1 {
		t.Errorf("second run regions: got %d, want 1", len(again.Regions))
	}
}

func TestHandleToolsCall_MarkerApply_Base64(t *testing.T) {
	s, dir := newTemplateServer(t)
	raw, err := os.ReadFile(createFrameFile(t, filepath.Join(dir, "frame.png")))
	if err != nil {
		t.Fatalf("failed to read frame: %v", err)
	}

	text := callTool(t, s, "marker_apply", map[string]interface{}{
		"image_base64": "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw),
	})
	var res applyResponse
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(res.Regions) != 1 {
		t.Errorf("regions: got %d, want 1", len(res.Regions))
	}

	resp := s.handleRequest(toolRequest(t, "marker_apply", map[string]interface{}{}))
	if resp.Error == nil {
		t.Error("expected an error without path or image")
	}
}

func TestHandleToolsCall_MarkerApplyBatch(t *testing.T) {
	s, dir := newTemplateServer(t)
	frame := createFrameFile(t, filepath.Join(dir, "frame.png"))
	blank := createSolidFile(t, filepath.Join(dir, "blank.png"), 320, 240, white)
	outDir := t.TempDir()

	text := callTool(t, s, "marker_apply_batch", map[string]interface{}{
		"paths":      []string{frame, blank},
		"output_dir": outDir,
	})

	var items []struct {
		Path       string `json:"path"`
		OutputPath string `json:"output_path"`
		Result     struct {
			Regions []interface{} `json:"regions"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items: got %d, want 2", len(items))
	}
	if len(items[0].Result.Regions) != 1 || len(items[1].Result.Regions) != 0 {
		t.Errorf("regions: got %d and %d, want 1 and 0", len(items[0].Result.Regions), len(items[1].Result.Regions))
	}
	if items[0].OutputPath != filepath.Join(outDir, "frame.png") {
		t.Errorf("output path: got %q", items[0].OutputPath)
	}
	if items[1].OutputPath != "" {
		t.Errorf("unchanged frame should not be written, got %q", items[1].OutputPath)
	}
	if _, err := os.Stat(items[0].OutputPath); err != nil {
		t.Errorf("output not written: %v", err)
	}

	resp := s.handleRequest(toolRequest(t, "marker_apply_batch", map[string]interface{}{"paths": []string{}}))
	if resp.Error == nil {
		t.Error("expected an error for empty paths")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		dir, input, want string
	}{
		{"/out", "/in/frame.jpg", "/out/frame.png"},
		{"/out", "/in/frame.png", "/out/frame.png"},
		{"/out", "/in/archive.tar.gif", "/out/archive.tar.png"},
		{"out", "frame", "out/frame.png"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.dir, tt.input); got != filepath.FromSlash(tt.want) {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.dir, tt.input, got, tt.want)
		}
	}
}

func TestHandleToolsCall_MarkerContours(t *testing.T) {
	s := newTestServer()
	frame := createFrameFile(t, filepath.Join(t.TempDir(), "frame.png"))

	text := callTool(t, s, "marker_contours", map[string]interface{}{
		"path":            frame,
		"include_overlay": true,
	})

	var res contoursResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if res.Width != 320 || res.Height != 240 {
		t.Errorf("dimensions: got %dx%d", res.Width, res.Height)
	}
	if len(res.Contours) == 0 {
		t.Fatal("expected contours")
	}
	quads := 0
	for _, c := range res.Contours {
		if c.Quad {
			quads++
			if len(c.Corners) != 4 {
				t.Errorf("quad %d has %d corners", c.Index, len(c.Corners))
			}
		}
	}
	if quads == 0 {
		t.Error("expected at least one quadrilateral")
	}
	if res.Overlay == nil || res.Overlay.Width != 320 {
		t.Errorf("overlay: got %+v", res.Overlay)
	}

	// A minimum above every contour leaves nothing.
	var none contoursResult
	if err := json.Unmarshal([]byte(callTool(t, s, "marker_contours", map[string]interface{}{
		"path":       frame,
		"min_length": 1000,
	})), &none); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(none.Contours) != 0 {
		t.Errorf("contours: got %d, want 0", len(none.Contours))
	}

	resp := s.handleRequest(toolRequest(t, "marker_contours", map[string]interface{}{
		"path":       frame,
		"min_length": 2000,
	}))
	if resp.Error == nil {
		t.Error("expected an error when min_length exceeds max_length")
	}
}

func TestHandleToolsCall_MarkerRectify(t *testing.T) {
	s, dir := newTemplateServer(t)
	frame := createFrameFile(t, filepath.Join(dir, "frame.png"))

	corners := []map[string]float64{
		{"x": 96, "y": 56}, {"x": 224, "y": 56}, {"x": 224, "y": 184}, {"x": 96, "y": 184},
	}
	text := callTool(t, s, "marker_rectify", map[string]interface{}{
		"path":    frame,
		"corners": corners,
	})

	var res struct {
		Orientation int       `json:"orientation"`
		Votes       [4]int    `json:"votes"`
		Scores      []float64 `json:"scores"`
		Image       struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"image"`
	}
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if res.Orientation != 0 {
		t.Errorf("orientation: got %d, want 0 (votes %v)", res.Orientation, res.Votes)
	}
	if len(res.Scores) != 1 || res.Scores[0] <= 0.9 {
		t.Errorf("scores: got %v, want one score above 0.9", res.Scores)
	}
	if res.Image.Width != 256 || res.Image.Height != 256 {
		t.Errorf("image: got %dx%d, want 256x256", res.Image.Width, res.Image.Height)
	}

	resp := s.handleRequest(toolRequest(t, "marker_rectify", map[string]interface{}{
		"path":    frame,
		"corners": corners[:3],
	}))
	if resp.Error == nil {
		t.Error("expected an error for three corners")
	}
}

func TestHandleToolsCall_MarkerOrientation(t *testing.T) {
	s := newTestServer()
	dir := t.TempDir()

	tests := []struct {
		name  string
		shape func(u, v int) bool
		want  int
	}{
		{"upright", design, 0},
		{"quarter turn", func(u, v int) bool { return design(256-v, u) }, 90},
		{"half turn", func(u, v int) bool { return design(255-u, 255-v) }, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createMarkerFile(t, dir, tt.shape)
			s.cache.Clear()

			var res orientationResult
			if err := json.Unmarshal([]byte(callTool(t, s, "marker_orientation", map[string]interface{}{"path": path})), &res); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if int(res.Orientation) != tt.want {
				t.Errorf("orientation: got %d, want %d (votes %v)", res.Orientation, tt.want, res.Votes)
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := newTestServer()
	_, err := s.executeTool("unknown_tool", nil)
	if err == nil {
		t.Error("Expected error for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer()
	_, err := s.executeTool("marker_orientation", json.RawMessage(`{invalid}`))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
