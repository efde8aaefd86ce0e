// Command basecamp is the CLI surface: authenticate, list projects, export
// tasks, invoke registry actions, or start the MCP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alexjbarnes/basecamp-mcp/internal/auth"
	"github.com/alexjbarnes/basecamp-mcp/internal/basecamp"
	"github.com/alexjbarnes/basecamp-mcp/internal/config"
	"github.com/alexjbarnes/basecamp-mcp/internal/logging"
	"github.com/alexjbarnes/basecamp-mcp/internal/mcpserver"
	"github.com/alexjbarnes/basecamp-mcp/internal/registry"
	"github.com/alexjbarnes/basecamp-mcp/internal/tasks"
)

var Version = "dev"

// app holds everything a command needs, built once before any RunE fires.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *basecamp.Client
	reg    *registry.Registry
}

func newApp(interactive bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	flow := auth.NewFlow(cfg, logger, auth.Options{Interactive: interactive})
	client := basecamp.NewClient(cfg, flow, logger, basecamp.ClientOptions{})

	return &app{
		cfg:    cfg,
		logger: logger,
		client: client,
		reg:    registry.Default(),
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "basecamp",
		Short:         "Fetch Basecamp todos and expose them to LLM tooling",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAuthCmd(),
		newProjectsCmd(),
		newFetchCmd(),
		newActionsCmd(),
		newActionCmd(),
		newMCPCmd(),
	)

	return root
}

func newAuthCmd() *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Basecamp (opens browser)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}

			if _, err := a.client.Flow().Authenticate(cmd.Context(), open); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Authentication successful.")

			return nil
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "open browser for OAuth authorization")

	return cmd
}

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List available Basecamp projects (active and archived)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			active, err := a.client.Projects().List(ctx, basecamp.ListProjectsParams{})
			if err != nil {
				return err
			}
			archived, err := a.client.Projects().List(ctx, basecamp.ListProjectsParams{Status: "archived"})
			if err != nil {
				return err
			}

			for _, p := range active {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d  %s\n", p.ID, p.Name)
			}
			for _, p := range archived {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d  %s (archived)\n", p.ID, p.Name)
			}

			return nil
		},
	}
}

func newFetchCmd() *cobra.Command {
	var opts tasks.FetchOptions

	cmd := &cobra.Command{
		Use:   "fetch <project-name>",
		Short: "Fetch todos from a Basecamp project into tasks.json and tasks.md",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}

			fetcher := tasks.NewFetcher(a.client, a.logger, "")
			result, err := fetcher.Fetch(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d task(s) to:\n- %s\n- %s\n",
				len(result.Steps), result.JSONPath, result.MarkdownPath)

			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.TableName, "table", "t", "", "specific kanban board name")
	cmd.Flags().StringVarP(&opts.ColumnName, "column", "c", "", "specific column name to filter by")
	cmd.Flags().StringVarP(&opts.OutputPath, "out", "o", "", "output file path (default: .basecamp/tasks.json)")
	cmd.Flags().BoolVar(&opts.OpenBrowser, "open", false, "open browser for OAuth authorization")

	return cmd
}

func newActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the available SDK actions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := registry.Default()
			for _, action := range reg.Actions() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", action.Name, action.Description)
			}

			return nil
		},
	}
}

func newActionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "action <name> [json-args]",
		Short: "Invoke one SDK action by name with JSON arguments",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(true)
			if err != nil {
				return err
			}

			var payload json.RawMessage
			if len(args) == 2 {
				payload = json.RawMessage(args[1])
			}

			result, err := a.reg.Invoke(cmd.Context(), a.client, args[0], payload)
			if err != nil {
				return err
			}

			if s, ok := result.(string); ok {
				fmt.Fprintln(cmd.OutOrStdout(), s)
				return nil
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			return nil
		},
	}
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}

			server := mcpserver.New(a.client, a.reg, a.logger, Version)

			return server.Run(cmd.Context())
		},
	}
}
