package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
)

// wrapWithTiming wraps a tool handler with a request ID, operation timing,
// and start/end logging.
//
// The wrapper:
//   - Generates a short request ID and pushes it onto the log context
//   - Times the handler and logs its duration on completion
//   - Logs at error level (with the error) if the handler fails
func wrapWithTiming[I any, O any](
	toolName string,
	logger core.Logger,
	handler func(context.Context, *mcp.CallToolRequest, I) (*mcp.CallToolResult, O, error),
) func(context.Context, *mcp.CallToolRequest, I) (*mcp.CallToolResult, O, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input I) (*mcp.CallToolResult, O, error) {
		requestID := uuid.New().String()[:8]

		ctx = mtlog.PushProperty(ctx, "RequestID", requestID)
		ctx = mtlog.PushProperty(ctx, "Tool", toolName)
		opLogger := logger.WithContext(ctx)

		start := time.Now()
		opLogger.InfoContext(ctx, "Tool operation started")

		result, output, err := handler(ctx, req, input)

		duration := time.Since(start)
		if err != nil {
			opLogger.ErrorContext(ctx, "Tool operation failed after {Duration}", duration, "error", err)
		} else {
			opLogger.InfoContext(ctx, "Tool operation completed in {Duration}", duration)
		}

		return result, output, err
	}
}
