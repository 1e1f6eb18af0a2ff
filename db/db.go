package db

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewStorage opens the database named by DB_URL. A postgres:// URL uses
// the Postgres driver; sqlite://<path> uses the embedded sqlite driver.
// With no DB_URL set it falls back to a local sqlite file.
func NewStorage() (*gorm.DB, error) {
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		dbURL = "sqlite://inkwell.db"
		log.Println("DB_URL not set, defaulting to sqlite://inkwell.db")
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dbURL, "postgres://"):
		dialector = postgres.Open(dbURL)
	case strings.HasPrefix(dbURL, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(dbURL, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported DB_URL %q: expected postgres:// or sqlite://", dbURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)

	return db, nil
}
