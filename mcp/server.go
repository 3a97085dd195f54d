// Package mcp implements a Model Context Protocol (MCP) server that exposes
// the template export engine as tools and resources for AI assistants.
//
// The server communicates via JSON-RPC 2.0 over stdio, one message per
// line, and implements the tools and resources parts of MCP 2024-11-05.
// See cmd/pdfzone-mcp for the client configuration.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

// ProtocolVersion is the MCP revision the server speaks.
const ProtocolVersion = "2024-11-05"

// Server is an MCP server that handles JSON-RPC 2.0 messages over stdio.
type Server struct {
	name      string
	version   string
	tools     map[string]Tool
	resources map[string]Resource
	input     io.Reader
	output    io.Writer
	logger    *slog.Logger
	mu        sync.Mutex
}

// Tool defines an MCP tool that can be called by the client.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Handler     ToolHandler    `json:"-"`
}

// ToolHandler executes a tool with the given arguments.
type ToolHandler func(ctx context.Context, args map[string]any) (ToolResult, error)

// ToolResult is the result returned by a tool execution.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is a piece of content in a tool result.
type ContentBlock struct {
	Type     string `json:"type"` // "text" or "resource"
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64 for binary
}

func textResult(format string, args ...any) ToolResult {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf(format, args...)}}}
}

// Resource defines an MCP resource.
type Resource struct {
	URI         string          `json:"uri"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	MIMEType    string          `json:"mimeType,omitempty"`
	Handler     ResourceHandler `json:"-"`
}

// ResourceHandler reads a resource and returns its content.
type ResourceHandler func(uri string) ([]ResourceContent, error)

// ResourceContent is the content of a read resource.
type ResourceContent struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"` // base64
}

// JSON-RPC types
type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id"`
	Result  any              `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// NewServer creates a new MCP server reading from stdin and writing to stdout.
func NewServer(version string, logger *slog.Logger) *Server {
	return NewServerWithIO(os.Stdin, os.Stdout, version, logger)
}

// NewServerWithIO creates a new MCP server with custom I/O. A nil logger
// discards log output.
func NewServerWithIO(in io.Reader, out io.Writer, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		name:      "pdfzone-mcp",
		version:   version,
		tools:     make(map[string]Tool),
		resources: make(map[string]Resource),
		input:     in,
		output:    out,
		logger:    logger,
	}
}

// AddTool registers a tool with the server.
func (s *Server) AddTool(t Tool) {
	s.tools[t.Name] = t
}

// AddResource registers a resource with the server.
func (s *Server) AddResource(r Resource) {
	s.resources[r.URI] = r
}

// Run processes messages until EOF or until ctx is canceled. Requests are
// handled one at a time, in arrival order.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.input)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(nil, codeParseError, "Parse error", err.Error())
			continue
		}
		s.handleRequest(ctx, req)
	}
	return scanner.Err()
}

func (s *Server) handleRequest(ctx context.Context, req jsonrpcRequest) {
	s.logger.Debug("mcp request", "method", req.Method)
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Notification, no response needed
	case "ping":
		s.sendResult(req.ID, map[string]any{})
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(ctx, req)
	case "resources/list":
		s.handleResourcesList(req)
	case "resources/read":
		s.handleResourcesRead(req)
	default:
		if req.ID == nil {
			return
		}
		s.sendError(req.ID, codeMethodNotFound, "Method not found", req.Method)
	}
}

func (s *Server) handleInitialize(req jsonrpcRequest) {
	s.sendResult(req.ID, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
	})
}

func (s *Server) handleToolsList(req jsonrpcRequest) {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, s.tools[name])
	}
	s.sendResult(req.ID, map[string]any{"tools": tools})
}

func (s *Server) handleToolsCall(ctx context.Context, req jsonrpcRequest) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}

	tool, ok := s.tools[params.Name]
	if !ok {
		s.sendError(req.ID, codeInvalidParams, "Unknown tool", params.Name)
		return
	}

	result, err := tool.Handler(ctx, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		s.sendResult(req.ID, ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
			IsError: true,
		})
		return
	}
	s.sendResult(req.ID, result)
}

func (s *Server) handleResourcesList(req jsonrpcRequest) {
	uris := make([]string, 0, len(s.resources))
	for uri := range s.resources {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	resources := make([]Resource, 0, len(uris))
	for _, uri := range uris {
		resources = append(resources, s.resources[uri])
	}
	s.sendResult(req.ID, map[string]any{"resources": resources})
}

func (s *Server) handleResourcesRead(req jsonrpcRequest) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}

	resource, ok := s.lookupResource(params.URI)
	if !ok {
		s.sendError(req.ID, codeInvalidParams, "Unknown resource", params.URI)
		return
	}

	contents, err := resource.Handler(params.URI)
	if err != nil {
		s.sendError(req.ID, codeInternalError, "Resource error", err.Error())
		return
	}
	s.sendResult(req.ID, map[string]any{"contents": contents})
}

// lookupResource matches uri against the registered resources, ignoring
// any query string.
func (s *Server) lookupResource(uri string) (Resource, bool) {
	if r, ok := s.resources[uri]; ok {
		return r, true
	}
	if base, _, ok := strings.Cut(uri, "?"); ok {
		r, ok := s.resources[base]
		return r, ok
	}
	return Resource{}, false
}

func (s *Server) sendResult(id *json.RawMessage, result any) {
	s.send(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *Server) sendError(id *json.RawMessage, code int, message string, data any) {
	s.send(jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &jsonrpcError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

func (s *Server) send(resp jsonrpcResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encoding response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := s.output.Write(data); err != nil {
		s.logger.Error("writing response", "error", err)
	}
}
