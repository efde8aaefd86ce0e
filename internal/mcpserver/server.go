// Package mcpserver exposes the Basecamp client over the Model Context
// Protocol on stdio. Fixed tools cover authentication, the generic API
// surface, and attachment download; the curated action registry is mapped
// onto one tool per action.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/alexjbarnes/basecamp-mcp/internal/basecamp"
	"github.com/alexjbarnes/basecamp-mcp/internal/registry"
)

// Server wraps an MCP server bound to one Basecamp client.
type Server struct {
	mcp            *mcp.Server
	client         *basecamp.Client
	reg            *registry.Registry
	safeToOriginal map[string]string
	logger         *slog.Logger
}

// New builds the server and registers all tools.
func New(client *basecamp.Client, reg *registry.Registry, logger *slog.Logger, version string) *Server {
	s := &Server{
		mcp: mcp.NewServer(
			&mcp.Implementation{Name: "basecamp-mcp", Version: version},
			nil,
		),
		client:         client,
		reg:            reg,
		safeToOriginal: registry.SafeNames(reg.Names()),
		logger:         logger,
	}
	s.registerTools()

	return s
}

// SafeToOriginal returns the tool-name to action-name mapping.
func (s *Server) SafeToOriginal() map[string]string { return s.safeToOriginal }

// Run serves MCP over stdio until ctx is cancelled or the client
// disconnects. Authentication is attempted in the background so the first
// tool call does not stall on OAuth; if silent auth fails, a browser flow
// is started and tool calls prompt again on demand.
func (s *Server) Run(ctx context.Context) error {
	go s.autoAuthenticate(ctx)

	s.logger.Info("Basecamp MCP server started")

	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) autoAuthenticate(ctx context.Context) {
	flow := s.client.Flow()

	if token := flow.TryAutoAuth(ctx); token != nil {
		s.logger.Info("authenticated with cached/refreshed token")
		return
	}

	s.logger.Info("no valid token found, opening browser for authentication")
	if _, err := flow.Authenticate(ctx, true); err != nil {
		s.logger.Error("auto-authentication failed, tools will prompt when called",
			slog.Any("error", err))
		return
	}

	s.logger.Info("authentication successful")
}
