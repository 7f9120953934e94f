package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sales-leaderboard/internal/app"
	"sales-leaderboard/internal/config"
	"sales-leaderboard/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	dsn       string
	appHandle *app.App
)

var rootCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Live sales leaderboard with on-screen sale alerts",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version must work without a readable config
		if appHandle != nil || cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if dsn != "" {
			cfg.Database.DSN = dsn
		}

		logger := logging.NewLogger(cfg.Logging)
		appHandle = app.NewApp(cfg, logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (overrides database.dsn)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(simulateCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
