// Command basecamp-mcp runs the MCP stdio server directly, for clients that
// launch a single binary with no subcommand.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexjbarnes/basecamp-mcp/internal/auth"
	"github.com/alexjbarnes/basecamp-mcp/internal/basecamp"
	"github.com/alexjbarnes/basecamp-mcp/internal/config"
	"github.com/alexjbarnes/basecamp-mcp/internal/logging"
	"github.com/alexjbarnes/basecamp-mcp/internal/mcpserver"
	"github.com/alexjbarnes/basecamp-mcp/internal/registry"
)

var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)

	// Stdin carries the MCP protocol, so the manual code-paste fallback is
	// never available here.
	flow := auth.NewFlow(cfg, logger, auth.Options{Interactive: false})
	client := basecamp.NewClient(cfg, flow, logger, basecamp.ClientOptions{})

	server := mcpserver.New(client, registry.Default(), logger, Version)

	return server.Run(ctx)
}
