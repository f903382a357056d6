package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reliefboard/internal/repository"
	"reliefboard/pkg/db"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			log := opts.logger(cfg)
			defer log.Sync()

			pool, err := db.NewConnection(cmd.Context(), cfg.DB, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repository.Migrate(cmd.Context(), pool); err != nil {
				return err
			}

			log.Info("Schema applied", zap.String("database", cfg.DB.Name))
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}
