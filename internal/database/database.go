package database

import (
	"fmt"
	"log"
	"os"
	"strings"

	"jem-backend/internal/config"
	"jem-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect only opens the connection; schema changes live in Migrate.
func Connect(cfg config.Database) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.Path))
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// One writer at a time; sqlite would otherwise return SQLITE_BUSY under load.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Printf("Database connection successful (%s)", cfg.Driver)
	return db, nil
}

// OpenMemory returns a migrated, private in-memory sqlite database.
func OpenMemory() (*gorm.DB, error) {
	db, err := Connect(config.Database{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	log.Println("Running schema migrations (gorm AutoMigrate)...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	log.Println("Schema migrations completed.")
	return nil
}

// Seed executes a raw SQL file, typically the initial catalog and admin user.
func Seed(db *gorm.DB, path string) error {
	seederSQL, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file %s: %w", path, err)
	}

	log.Printf("Running data seeding from %s...", path)
	result := db.Exec(string(seederSQL))
	if result.Error != nil {
		return fmt.Errorf("data seeding failed: %w", result.Error)
	}
	log.Printf("Seeding completed. Rows affected: %d", result.RowsAffected)
	return nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

func logLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}
