package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reliefboard/config"
	"reliefboard/pkg/logger"
)

type rootOptions struct {
	configDir string
	verbose   bool
}

// newRootCmd builds the command tree. Kept as a constructor so tests get a
// fresh tree with their own output buffers.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "reliefctl",
		Short: "Operate the relief request board",
		Long: `reliefctl runs one-off operations against the relief board.

Available subcommands:
  classify - Ask the urgency classifier about a description
  migrate  - Apply the database schema`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configDir, "config", "c", "config", "Config directory (base.yaml, <CONFIG_ENV>.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newClassifyCmd(opts))
	rootCmd.AddCommand(newMigrateCmd(opts))
	return rootCmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Read(o.configDir)
	if err != nil {
		return nil, fmt.Errorf("load config from %s: %w", o.configDir, err)
	}
	return cfg, nil
}

func (o *rootOptions) logger(cfg *config.Config) *zap.Logger {
	if o.verbose {
		return logger.NewLogger("debug")
	}
	if cfg == nil {
		return zap.NewNop()
	}
	return logger.NewLogger(cfg.Log.Level)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
