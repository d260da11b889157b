package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/logging"
)

var (
	verbosity    int
	dataDir      string
	mcpPort      int
	syncInterval time.Duration
	noSync       bool
	forceReauth  bool
)

var rootCmd = &cobra.Command{
	Use:   "strava-run-coach-mcp",
	Short: "Strava Run Coach MCP Server - running analysis tools via Model Context Protocol",
	Long: `Strava Run Coach MCP Server caches your Strava activities in a local JSON
snapshot and exposes running-focused analysis tools via the Model Context
Protocol (MCP) for AI assistants.

The server provides:
- Full activity history sync with local caching
- Search, yearly stats, and training load analysis over the cache
- Goal and race planning stored alongside the cache
- Automatic authentication via OAuth (prompts on first run)

Credentials come from STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET (a .env file
in the working directory is read if present), or an interactive prompt.
Get these from https://www.strava.com/settings/api

Use --force-reauth to re-enter credentials and re-authenticate.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set up logging based on verbosity before any command runs
		logging.Setup(logging.Level(verbosity))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		rtCfg := &RuntimeConfig{
			DataDir:      dataDir,
			MCPPort:      mcpPort,
			SyncInterval: syncInterval,
			NoSync:       noSync,
			ForceReauth:  forceReauth,
		}

		return Run(rtCfg)
	},
}

func init() {
	// Logging verbosity
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v for debug output)")

	// Runtime settings as CLI flags
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", ".", "directory for the activity cache, tokens, goals, and races")
	rootCmd.PersistentFlags().IntVarP(&mcpPort, "port", "p", 0, "MCP server port (0 for stdio mode)")
	rootCmd.PersistentFlags().DurationVar(&syncInterval, "sync-interval", 0, "interval between background cache refreshes (0 disables)")

	// Offline mode
	rootCmd.PersistentFlags().BoolVar(&noSync, "no-sync", false, "serve cached data only, without Strava API access (offline mode)")

	// Force re-authentication
	rootCmd.PersistentFlags().BoolVar(&forceReauth, "force-reauth", false, "force OAuth re-authentication, clearing existing tokens")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
