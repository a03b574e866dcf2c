package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leetboard/leetboard/leetboard"
	"github.com/leetboard/leetboard/leetboard/logger"
)

var (
	Version = "dev"
	Commit  = "unknown"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "leetboard",
	Short:         "Weekly leaderboard for a team of LeetCode members",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to config")
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	start := time.Now()
	cmd, err := rootCmd.ExecuteC()
	if cmd != nil && cmd != rootCmd {
		logger.LogCommand(cmd.CommandPath(), time.Since(start), err)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*leetboard.Config, error) {
	cfg, err := leetboard.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger.Setup("leetboard", cfg.Log.Format, cfg.Log.Level, cfg.Log.AddSource)
	return cfg, nil
}

// openApp loads the config and wires every component. The caller closes it.
func openApp(ctx context.Context) (*leetboard.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	app := leetboard.New(*cfg, Version, Commit)
	if err := app.Open(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
