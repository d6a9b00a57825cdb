// Package db opens database connections and runs schema migrations.
package db

import (
	"context"
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/opendeploy/versioning/internal/config"
	"github.com/opendeploy/versioning/internal/errs"
)

var ErrStartingDBCon = errors.New("error starting db connection")

// StartDBConnection opens the gorm connection described by the database
// config. Error translation is on so unique violations surface as
// gorm.ErrDuplicatedKey.
func StartDBConnection(ctx context.Context, conf config.Database) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(conf.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, errs.Wrap(ErrStartingDBCon, err)
	}

	return db.WithContext(ctx), nil
}
