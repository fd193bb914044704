// ABOUTME: MCP server setup for the vitals datastore.
// ABOUTME: Wraps MCP server with the ingest service and daily file store.
package mcp

import (
	"context"

	"github.com/harperreed/vitals/internal/ingest"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with ingest and query access.
type Server struct {
	mcpServer *mcp.Server
	svc       *ingest.Service
	store     *storage.Store
}

// NewServer creates a new MCP server over the given ingest service.
func NewServer(svc *ingest.Service) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "vitals",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		svc:       svc,
		store:     svc.Store(),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
