package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/pkg/adapters/flowfile"
	"github.com/aretw0/weave/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts Weave as an MCP Server, exposing sessions and flows as tools
for AI agents.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs must never touch Stdout: stdio transport speaks JSON-RPC there.
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		slog.SetDefault(logger)

		manager, err := getManager(cmd)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		compiler := flowfile.NewCompiler(
			flowfile.WithGenerator(getGenerator(cmd)),
			flowfile.WithLogger(logger),
		)
		flows, err := loadFlows(cmd, compiler)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		opts := make([]mcp.Option, 0, len(flows))
		for name, tmpl := range flows {
			opts = append(opts, mcp.WithFlow(name, tmpl))
		}

		srv := mcp.NewServer(manager, weave.Version, opts...)

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			slog.Info("Starting Weave MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP Server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("Starting Weave MCP Server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("MCP Server execution failed", "error", err)
					os.Exit(1)
				}
			}
			slog.Info("MCP Server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().StringArray("flow", nil, "Register a flow as name=path (repeatable)")
	mcpCmd.Flags().StringArray("reply", nil, "Scripted assistant replies for flow generation (repeatable, looping)")
}
