// Package cmd wires configuration and dependencies into the two processes,
// the JSON API and the form front end.
package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"inkblog/config"
	"inkblog/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "inkblog",
	Short:         "Blog with form pages and a JSON API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file; environment variables override it")
	rootCmd.AddCommand(apiCmd, webCmd)
}

func load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	return cfg, log, nil
}
