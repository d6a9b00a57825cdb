package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/pressly/goose/v3"

	// Registers the pgx database/sql driver goose connects through.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/opendeploy/versioning/internal/config"
	"github.com/opendeploy/versioning/internal/errs"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	ErrOpeningMigrationCon = errors.New("error opening migration connection")
	ErrRunningMigration    = errors.New("error running migration")
)

// MigrateToLatest applies every pending schema migration. Downgrade rolls
// back one version instead.
func MigrateToLatest(ctx context.Context, conf config.Database, downgrade bool) error {
	sqlDB, err := sql.Open("pgx", conf.DSN())
	if err != nil {
		return errs.Wrap(ErrOpeningMigrationCon, err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(migrations)

	err = goose.SetDialect("postgres")
	if err != nil {
		return errs.Wrap(ErrRunningMigration, err)
	}

	if downgrade {
		err = goose.DownContext(ctx, sqlDB, "migrations")
	} else {
		err = goose.UpContext(ctx, sqlDB, "migrations")
	}

	if err != nil {
		return errs.Wrap(ErrRunningMigration, err)
	}

	return nil
}
