// Package db contains things related to the ledger database
package db

import (
	"fmt"
	"os"

	"landrop/share-api/internal/model"
	"landrop/share-api/pkg/util"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New opens the ledger with the driver selected by db.driver. The rest of
// the app only ever sees *gorm.DB, so sqlite and postgres are
// interchangeable at startup.
func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver := viper.GetString("db.driver"); driver {
	case "sqlite":
		path := viper.GetString("db.path")

		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(path); err != nil {
				if err == os.ErrNotExist {
					return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", path)
				}
			}
		}

		dialector = sqlite.Open(path)
	case "postgres":
		dsn := viper.GetString("db.dsn")
		if dsn == "" {
			return nil, fmt.Errorf("db.dsn can't be empty with the postgres driver")
		}

		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("invalid db driver %q", driver)
	}

	db, err := gorm.Open(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(model.File{}, model.Device{}, model.APIKey{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
