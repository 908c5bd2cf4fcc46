// Package server provides the MCP server implementation wrapping the
// perceptual image quantizer.
//
// Server Lifecycle:
//  1. Create server with New() using validated config
//  2. The quantize_image tool is registered during initialization
//  3. Run() starts the server with stdio transport
//  4. The server processes tool requests via MCP protocol
//  5. Context cancellation triggers graceful shutdown
package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pixelforge/imagequant/pkg/config"
	"github.com/willibrandon/mtlog/core"
)

// Server wraps the MCP server and the configuration its one tool quantizes
// against.
type Server struct {
	mcp    *mcp.Server
	config *config.Config
	logger core.Logger
}

// New creates a new imagequant MCP server with the given configuration.
//
// The configuration is validated before server creation; an invalid config
// is returned as an error immediately rather than surfacing as a confusing
// per-request failure later.
func New(cfg *config.Config, logger core.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "imagequant-mcp",
		Version: "0.1.0",
	}, nil)

	s := &Server{
		mcp:    mcpServer,
		config: cfg,
		logger: logger,
	}

	s.registerQuantizeTool()

	return s, nil
}

// Run starts the MCP server with stdio transport.
//
// Run blocks until the context is cancelled, the client closes the
// connection, or a fatal error occurs. Context cancellation triggers
// graceful shutdown and does not itself return an error.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Information("Starting imagequant MCP server")
	s.logger.Debug("Configuration: {@Config}", s.config)

	transport := &mcp.StdioTransport{}

	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
