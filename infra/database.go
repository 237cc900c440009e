package infra

import (
	"errors"
	"fmt"

	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the local database named by cnf.Url: postgres for
// postgres:// URLs, sqlite for everything else.
func NewDBConnection(cnf *config.DB, appEnv string) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	logMode := logger.Silent
	if appEnv == "development" {
		logMode = logger.Warn
	}

	var dialector gorm.Dialector
	switch cnf.Dialect() {
	case "postgres":
		dialector = postgres.Open(cnf.DSN())
	default:
		dialector = sqlite.Open(cnf.DSN())
	}

	connection, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cnf.Dialect(), err)
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cnf.MaxOpen)
	sqlDB.SetMaxIdleConns(cnf.MaxIdle)
	sqlDB.SetConnMaxLifetime(cnf.MaxLifetime)

	return connection, nil
}
