// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs stdio-based MCP server for AI assistant integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/vitals/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant
integration. The server communicates via stdin/stdout.

CLAUDE DESKTOP CONFIGURATION:

  Add this to your Claude Desktop config (claude_desktop_config.json):

  {
    "mcpServers": {
      "vitals": {
        "command": "vitals",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  record_metrics   Record a batch of metric readings (deduplicated)
  record_workout   Record a workout session (upserted by id)
  get_day          Get one date's stored document
  list_days        List all dates with stored data
  run_cleanup      Run the retention sweep now

AVAILABLE RESOURCES:

  vitals://today   Today's metrics and workouts
  vitals://days    Every date with stored data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		server, err := mcp.NewServer(svc)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
