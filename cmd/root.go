package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simonvc/ledgersync/internal/client"
	"github.com/simonvc/ledgersync/internal/config"
	"github.com/simonvc/ledgersync/internal/logging"
)

var (
	flagConfig string
	flagServer string
	flagDB     string
	flagMode   string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ledgersync",
	Short: "Double-entry ledger with period reports and exactly-once inventory sync",
	Long: "A double-entry ledger that merges server, cached and drafted rows, reports trial balance, " +
		"balance sheet and P&L over date windows, and propagates postings to inventory exactly once.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("server") {
			loaded.Server.URL = flagServer
		}
		if flags.Changed("db") {
			loaded.Database.Path = flagDB
		}
		if flags.Changed("mode") {
			loaded.Mode = flagMode
		}
		cfg = loaded
		logger = logging.Must(cfg.Mode)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ./ledgersync.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "http://localhost:8888", "Server address")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "ledger.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "release", "Log mode (debug or release)")
}

func apiClient() *client.Client {
	return client.New(cfg.Server.URL)
}

func Execute() error {
	return rootCmd.Execute()
}
