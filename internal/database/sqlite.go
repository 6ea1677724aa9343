package database

import (
	"fmt"

	"github.com/Egham-7/headshot-studio/internal/models"

	"gorm.io/driver/sqlite"
)

func newSQLite(config models.DatabaseConfig, logLevel string) (*DB, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("file_path is required for SQLite")
	}

	// SQLite allows a single writer; serialising connections avoids
	// "database is locked" under concurrent credit updates.
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 1
	}

	db := &DB{
		config:     config,
		driverName: "sqlite3",
	}
	if err := db.open(sqlite.Open(config.FilePath), logLevel, "SQLite"); err != nil {
		return nil, err
	}

	return db, nil
}
