// Package database opens the relational store backing credit balances and
// the processed-event ledger.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/headshot-studio/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
	config     models.DatabaseConfig
	driverName string
}

func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	if db.DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) DriverName() string {
	return db.driverName
}

func (db *DB) setConnectionPool() {
	if db.DB == nil {
		return
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}

	if db.config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(db.config.MaxOpenConns)
	}
	if db.config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(db.config.MaxIdleConns)
	}
	if db.config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(db.config.ConnMaxLifetime) * time.Second)
	}
}

// gormConfig silences gorm's own SQL logging outside debug level
func gormConfig(logLevel string) *gorm.Config {
	level := logger.Warn
	switch logLevel {
	case "trace", "debug":
		level = logger.Info
	case "error", "fatal", "panic":
		level = logger.Error
	}
	return &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}
}

func (db *DB) open(dialector gorm.Dialector, logLevel, name string) error {
	gormDB, err := gorm.Open(dialector, gormConfig(logLevel))
	if err != nil {
		return fmt.Errorf("failed to open %s credit database: %w", name, err)
	}
	db.DB = gormDB

	db.setConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("%s credit database is unreachable: %w", name, err)
	}
	return nil
}

// New connects to the configured database. logLevel follows server.log_level.
func New(config models.DatabaseConfig, logLevel string) (*DB, error) {
	switch config.Type {
	case models.PostgreSQL:
		return newPostgreSQL(config, logLevel)
	case models.MySQL:
		return newMySQL(config, logLevel)
	case models.SQLite:
		return newSQLite(config, logLevel)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}
