package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long:  `Apply the schema for the configured database driver and exit. The server applies it on startup as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, closer, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			st, err := openStore(cfg.Database, log)
			if err != nil {
				return err
			}
			log.Info("schema is up to date", "driver", cfg.Database.Driver)
			return st.close()
		},
	}
}
