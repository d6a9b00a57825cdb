// Package dbmigrator applies the database schema migrations.
package dbmigrator

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/opendeploy/versioning/internal/config"
	"github.com/opendeploy/versioning/internal/db"
)

func Cmd() *cobra.Command {
	var (
		configPath string
		downgrade  bool
	)

	cmd := &cobra.Command{
		Use:   "dbmigrator",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return oops.In("dbmigrator").Wrapf(err, "loading config")
			}

			err = db.MigrateToLatest(cmd.Context(), cfg.Database, downgrade)
			if err != nil {
				return oops.In("dbmigrator").Wrapf(err, "running migrations")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "directory holding config.yaml")
	cmd.Flags().BoolVar(&downgrade, "down", false, "roll back the latest migration instead")

	return cmd
}
