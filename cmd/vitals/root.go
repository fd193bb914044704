// ABOUTME: Root Cobra command for vitals CLI.
// ABOUTME: Loads config and wires the logger via PersistentPreRunE.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/harperreed/vitals/internal/config"
	"github.com/harperreed/vitals/internal/ingest"
	"github.com/harperreed/vitals/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	logger  *log.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vitals",
	Short: "File-based health metrics datastore",
	Long: `Vitals persists time-series health metrics and workouts into per-date
JSON files and renders the same data as human-readable notes.

HOW IT STORES:

  Cache    one JSON document per UTC date under <data_dir>/metrics and
           <data_dir>/workouts, written atomically under an advisory
           file lock so concurrent writers never tear a file
  Notes    one markdown file per record with YAML frontmatter, or a
           Charm Cloud KV mirror (note_store: "charm" in config)
  Dedup    re-ingesting the same data is detected by content
           fingerprints; revised readings replace the stored record

QUICK START:

  $ vitals add weight 82.5                    # Log your weight
  $ vitals add bp 120 80                      # Log blood pressure
  $ vitals workout add run --duration 30      # Log a workout
  $ vitals import export.json                 # Ingest an exporter batch
  $ vitals show 2024-12-14                    # View one day's document
  $ vitals dates                              # List stored days
  $ vitals cleanup --window 90                # Sweep files past 90 days

MCP INTEGRATION:

  Run 'vitals mcp' to start the Model Context Protocol server for use
  with Claude Desktop or other MCP-compatible AI assistants:

  {
    "mcpServers": {
      "vitals": { "command": "vitals", "args": ["mcp"] }
    }
  }

CONFIGURATION:

  ~/.config/vitals/config.json controls data/notes directories, the
  note backend, retention window, and lock/retry tuning.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger = log.New(os.Stderr)
		if verbose {
			logger.SetLevel(log.DebugLevel)
		} else {
			logger.SetLevel(log.WarnLevel)
		}
		return nil
	},
}

// openService builds the full ingest pipeline from the loaded config.
func openService() (*ingest.Service, error) {
	svc, err := cfg.OpenService(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open service: %w", err)
	}
	return svc, nil
}

// openStore builds only the daily file store, for read paths.
func openStore() (*storage.Store, error) {
	store, err := cfg.OpenStore(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
