package database

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MigrateFunc creates or updates the tables owned by one package.
type MigrateFunc func(db *gorm.DB) error

// Open connects to Postgres using a URL or key/value DSN.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate runs each package migration in order. Order matters: tables
// referenced by foreign keys must come first.
func Migrate(db *gorm.DB, steps ...MigrateFunc) error {
	for i, step := range steps {
		if err := step(db); err != nil {
			return fmt.Errorf("migration step %d: %w", i, err)
		}
	}
	log.Printf("[database] applied %d migration steps", len(steps))
	return nil
}
