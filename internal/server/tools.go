package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},

		// Template management
		{
			Name:        "marker_templates",
			Description: "Load marker templates and their replacement pictures, or list the active set when called without templates. Markers are binarized and both images are scaled to the canonical size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"templates": map[string]interface{}{
						"type":        "array",
						"description": "Marker/picture pairs. Index order is the match tie-break order.",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name":    map[string]interface{}{"type": "string"},
								"marker":  pathProperty("Absolute path to the marker image"),
								"picture": pathProperty("Absolute path to the replacement picture"),
							},
							"required": []string{"marker", "picture"},
						},
					},
				},
			},
		},

		// Replacement
		{
			Name:        "marker_apply",
			Description: "Find every known marker in a frame and paint its replacement picture over it. Returns the replaced regions with template, orientation, score and corners.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the frame image"),
					"image_base64": map[string]interface{}{
						"type":        "string",
						"description": "The frame as base64 PNG, JPEG or GIF, used instead of path",
					},
					"output_path": pathProperty("Where to write the processed frame. The format follows the extension."),
					"debug": map[string]interface{}{
						"type":        "boolean",
						"description": "Produce an overlay with contours, corners and candidate scores",
						"default":     false,
					},
					"debug_path": pathProperty("Where to write the debug overlay. Implies debug."),
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the processed frame (and overlay, with debug) as base64 PNG",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "marker_apply_batch",
			Description: "Run marker replacement on several frames in parallel.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the frames",
					},
					"output_dir": pathProperty("Directory for processed frames. Frames with no replacement are not written."),
				},
				"required": []string{"paths"},
			},
		},

		// Pipeline stages
		{
			Name:        "marker_contours",
			Description: "Trace the boundaries in a frame after Otsu thresholding and report those within the length bounds, with their corners and whether they qualify as quadrilateral marker candidates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the frame image"),
					"min_length": map[string]interface{}{
						"type":        "integer",
						"description": "Override the minimum contour length",
					},
					"max_length": map[string]interface{}{
						"type":        "integer",
						"description": "Override the maximum contour length",
					},
					"include_overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the contours drawn over the frame as base64 PNG",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "marker_rectify",
			Description: "Warp the quadrilateral given by four clockwise corners onto the canonical square, detect its orientation and return the upright result. Scores against the loaded templates are included when templates are active.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the frame image"),
					"corners": map[string]interface{}{
						"type":        "array",
						"description": "Four corners, clockwise, starting with the one mapped to the canonical origin",
						"minItems":    4,
						"maxItems":    4,
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"path", "corners"},
			},
		},
		{
			Name:        "marker_orientation",
			Description: "Detect which quarter turn makes a canonical marker image upright by counting boundary pixels in the four bar regions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to a marker image; it is scaled to the canonical size"),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
