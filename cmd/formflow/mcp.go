package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/formflow"
	"github.com/aretw0/formflow/internal/cli"
	"github.com/aretw0/formflow/internal/logging"
	"github.com/aretw0/formflow/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts formflow as an MCP Server, so AI agents can fill forms as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		level, _ := logging.ParseLevel(cfg.Log.Level)
		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		logger := logging.NewWithWriter(os.Stderr, level, logging.Format(cfg.Log.Format))

		app, err := cli.Build(cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Engine, app.Loader, formflow.Version, mcp.WithLogger(logger))

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			logger.Info("Starting formflow MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting formflow MCP server (SSE)", "port", port)
			ctx := cli.NewSignalContext(context.Background())
			defer ctx.Cancel()
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
