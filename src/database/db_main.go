package database

import (
	"fmt"
	"strings"
	"time"

	"shadowmonitor/src/database/migrations"
	"shadowmonitor/src/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MainDB is the read/write database connection used by the application.
var MainDB *gorm.DB

// InitMainDB opens the database from the environment config, runs migrations
// and assigns MainDB. Call once at startup.
func InitMainDB() error {
	db, err := Open(GetConfig())
	if err != nil {
		return err
	}

	// Assign to the global variable only after a successful connection.
	MainDB = db

	logrus.Info("[database] MainDB connection established")

	if err := Migrate(MainDB); err != nil {
		return err
	}

	logrus.Info("[database] MainDB migrations completed")

	return nil
}

// Open connects to postgres or sqlite depending on the DSN scheme.
func Open(config Config) (*gorm.DB, error) {
	postgresDSN := isPostgres(config.DatabaseURL)

	var dialector gorm.Dialector
	if postgresDSN {
		dialector = postgres.Open(config.DatabaseURL)
	} else {
		dialector = sqlite.Open(config.DatabaseURL)
	}

	db, err := gorm.Open(dialector,
		&gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB from GORM: %w", err)
	}

	if postgresDSN {
		maxOpen := config.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 20
		}
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen / 2)
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
	} else {
		// sqlite allows a single writer; one connection serializes the loops' appends.
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates the schema and applies data migrations.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.MonitorConfig{},
		&model.Signal{},
		&model.Order{},
		&model.Exception{},
		&migrations.DataMigration{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("failed to run data migrations: %w", err)
	}

	return nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
