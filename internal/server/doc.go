// Package server implements the MCP (Model Context Protocol) server for
// marker replacement.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Templates:
//   - marker_templates: Load marker/picture pairs or list the active set
//
// Replacement:
//   - marker_apply: Replace every known marker in a frame
//   - marker_apply_batch: Replace markers in several frames in parallel
//
// Pipeline stages, for inspecting why a marker was or was not replaced:
//   - marker_contours: Traced contours, corners and quadrilateral candidates
//   - marker_rectify: Warp four corners to the canonical square and score it
//   - marker_orientation: Orientation votes for a canonical marker image
//
// Other:
//   - image_load: Image metadata
//
// Replacement tools fail until a template set is loaded, either at startup
// through LoadTemplates or with marker_templates.
//
// # Image Caching
//
// Decoded images and binarized markers are cached by path for the lifetime
// of the server. Frames are copied before processing so the cache is never
// modified.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A frame the pipeline cannot process is not a tool error: marker_apply
// reports status "failed" with a reason and leaves the frame untouched.
//
// # Usage
//
//	srv := server.New(marker.DefaultConfig(), log)
//	if err := srv.LoadTemplates(sources); err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
