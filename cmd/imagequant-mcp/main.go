package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pixelforge/imagequant/pkg/config"
	"github.com/pixelforge/imagequant/pkg/server"
	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
	"github.com/willibrandon/mtlog/sinks"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("imagequant-mcp version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nPlease create a config file at ~/.config/imagequant-mcp/config.json:\n")
		fmt.Fprintf(os.Stderr, "{\n")
		fmt.Fprintf(os.Stderr, "  \"max_colors\": 256,\n")
		fmt.Fprintf(os.Stderr, "  \"quality_target\": 80,\n")
		fmt.Fprintf(os.Stderr, "  \"speed\": 4,\n")
		fmt.Fprintf(os.Stderr, "  \"dithering_level\": 1.0,\n")
		fmt.Fprintf(os.Stderr, "  \"log_level\": \"info\"\n")
		fmt.Fprintf(os.Stderr, "}\n")
		os.Exit(1)
	}

	if *debugMode {
		cfg.LogLevel = "debug"
	}

	logger := createLogger(cfg.LogLevel)

	logger.Information("Starting imagequant MCP server version {Version} (built {BuildTime})", Version, BuildTime)
	logger.Debug("Configuration loaded: {@Config}", cfg)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server: {Error}", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Information("Received shutdown signal: {Signal}", sig)
		cancel()
		time.Sleep(100 * time.Millisecond)
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error: {Error}", err)
			os.Exit(1)
		}
	}

	logger.Information("Server stopped")
}

// createLogger creates a configured logger instance writing to the console.
func createLogger(logLevel string) core.Logger {
	sink := sinks.NewConsoleSink()

	var opts []mtlog.Option
	opts = append(opts, mtlog.WithSink(sink))

	switch logLevel {
	case "debug":
		opts = append(opts, mtlog.WithMinimumLevel(core.DebugLevel))
	case "info":
		opts = append(opts, mtlog.WithMinimumLevel(core.InformationLevel))
	case "warn":
		opts = append(opts, mtlog.WithMinimumLevel(core.WarningLevel))
	case "error":
		opts = append(opts, mtlog.WithMinimumLevel(core.ErrorLevel))
	default:
		opts = append(opts, mtlog.WithMinimumLevel(core.InformationLevel))
	}

	return mtlog.New(opts...)
}
