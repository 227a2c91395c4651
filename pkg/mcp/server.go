// Package mcp exposes the story catalog to MCP clients over stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/storydex/pkg/catalog"
)

const serverVersion = "0.1.0-dev"

// Server is the MCP server for storydex, exposing catalog query tools.
type Server struct {
	mcpServer *server.MCPServer
	query     *catalog.QueryService
	logger    *slog.Logger
}

// NewServer creates an MCP server backed by the given QueryService.
func NewServer(qs *catalog.QueryService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{query: qs, logger: logger}

	s.mcpServer = server.NewMCPServer(
		"storydex",
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: listStoriesTool(), Handler: s.handleListStories},
		server.ServerTool{Tool: getStoryTool(), Handler: s.handleGetStory},
		server.ServerTool{Tool: searchStoriesTool(), Handler: s.handleSearchStories},
		server.ServerTool{Tool: listTitlesTool(), Handler: s.handleListTitles},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
