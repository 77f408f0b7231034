package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/marker-ar-mcp/internal/imaging"
	"github.com/ironsheep/marker-ar-mcp/internal/logging"
	"github.com/ironsheep/marker-ar-mcp/internal/marker"
)

// Version is reported in the initialize handshake. The command sets it from
// its build-time version.
var Version = "dev"

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	log     logrus.FieldLogger
	cfg     marker.Config
	workers int

	mu       sync.RWMutex
	pipeline *marker.Pipeline
	sources  []marker.TemplateSource
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server that runs the marker pipeline with cfg. Templates
// are loaded later with LoadTemplates or the marker_templates tool. A nil
// logger discards all output.
func New(cfg marker.Config, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	return &Server{
		cache: imaging.NewImageCache(),
		log:   log,
		cfg:   cfg,
	}
}

// SetWorkers sets the number of goroutines used for batch requests. Zero
// means one per CPU.
func (s *Server) SetWorkers(n int) {
	s.workers = n
}

// LoadTemplates loads marker/picture pairs from disk and replaces the
// active template set. On error the previous set stays active.
func (s *Server) LoadTemplates(sources []marker.TemplateSource) error {
	templates, err := marker.LoadTemplates(s.cache, sources, s.cfg.CanonicalSize)
	if err != nil {
		return err
	}
	m, err := marker.NewMatcher(templates, s.cfg.MatchThreshold, s.cfg.CanonicalSize)
	if err != nil {
		return err
	}
	p, err := marker.New(s.cfg, m, s.log)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pipeline = p
	s.sources = append([]marker.TemplateSource(nil), sources...)
	s.mu.Unlock()

	s.log.WithField("templates", len(templates)).Info("templates loaded")
	return nil
}

// activePipeline returns the pipeline for the current template set.
func (s *Server) activePipeline() (*marker.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pipeline == nil {
		return nil, fmt.Errorf("no marker templates loaded; call marker_templates first")
	}
	return s.pipeline, nil
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Frames may arrive inline as base64, so allow large lines.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 32*1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("failed to parse request")
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.WithError(err).Error("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	s.log.WithField("method", req.Method).Debug("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "marker-ar-mcp",
				"version": Version,
			},
		},
	}
}
