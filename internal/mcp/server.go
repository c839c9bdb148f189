// Package mcp exposes the renderer to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/state"
)

// Version is set via ldflags at build time.
var Version = "dev"

// SessionID names the per-call session of an MCP render.
const SessionID = "mcp"

// Server wraps an MCP server that exposes the analysis renderer.
type Server struct {
	engine *render.Engine
	cache  state.Cache
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server. cache may be nil, in which case
// get_cached_analysis reports that no cache is configured.
func NewServer(engine *render.Engine, cache state.Cache) *Server {
	s := &Server{
		engine: engine,
		cache:  cache,
	}
	if s.engine == nil {
		s.engine = render.NewEngine(render.Options{Cache: cache})
	}

	s.mcp = server.NewMCPServer(
		"sage",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(renderAnalysisTool, s.handleRenderAnalysis)
	s.mcp.AddTool(listAnalysisKindsTool, s.handleListAnalysisKinds)
	s.mcp.AddTool(getCachedAnalysisTool, s.handleGetCachedAnalysis)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
