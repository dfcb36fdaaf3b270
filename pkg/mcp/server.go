// Package mcp exposes the gateway over the Model Context Protocol so agents
// can dispatch actions and query capabilities without the HTTP surface.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/homeroomhq/homeroom/internal/gateway"
)

// GatewayServerDeps holds the dependencies for creating a GatewayServer.
type GatewayServerDeps struct {
	Router *gateway.Router
	Prober *gateway.Prober
	Logger *slog.Logger
}

// GatewayServer wraps an MCP server with gateway tool handlers.
type GatewayServer struct {
	router    *gateway.Router
	prober    *gateway.Prober
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewGatewayServer creates a GatewayServer with all 4 tools registered.
func NewGatewayServer(deps GatewayServerDeps) *GatewayServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &GatewayServer{
		router: deps.Router,
		prober: deps.Prober,
		logger: logger,
	}

	mcpSrv := server.NewMCPServer(
		"homeroom",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Homeroom is an integration gateway for agent dashboards. Use homeroom.dispatch to invoke a provider action, homeroom.providers to list available actions, homeroom.capabilities to read the probed availability snapshot, and homeroom.refresh to re-probe after configuration changes."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *GatewayServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *GatewayServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *GatewayServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: dispatchTool(), Handler: s.handleDispatch},
		{Tool: providersTool(), Handler: s.handleProviders},
		{Tool: capabilitiesTool(), Handler: s.handleCapabilities},
		{Tool: refreshTool(), Handler: s.handleRefresh},
	}
}
