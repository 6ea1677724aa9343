package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Egham-7/headshot-studio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headshots.db")

	db, err := New(models.DatabaseConfig{Type: models.SQLite, FilePath: path}, "info")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Equal(t, "sqlite3", db.DriverName())
	assert.NoError(t, db.Ping(context.Background()))

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(models.DatabaseConfig{Type: models.SQLite}, "info")
	assert.Error(t, err)

	_, err = New(models.DatabaseConfig{Type: "clickhouse"}, "info")
	assert.Error(t, err)
}

func TestCloseWithoutConnection(t *testing.T) {
	db := &DB{}
	assert.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}

func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN(models.DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Username: "headshots",
		Password: "secret",
		Database: "credits",
	})
	assert.Equal(t, "host=db.internal port=5432 user=headshots password=secret dbname=credits sslmode=disable application_name=headshot-studio TimeZone=UTC", dsn)

	dsn = postgresDSN(models.DatabaseConfig{Host: "db.internal", Port: 5432, SSLMode: "require"})
	assert.Contains(t, dsn, "sslmode=require")

	assert.Equal(t, "postgres://u:p@h/db", postgresDSN(models.DatabaseConfig{DSN: "postgres://u:p@h/db", Host: "ignored"}))
}

func TestMySQLDSN(t *testing.T) {
	dsn := mysqlDSN(models.DatabaseConfig{
		Host:     "db.internal",
		Port:     3306,
		Username: "headshots",
		Password: "secret",
		Database: "credits",
	})
	assert.Equal(t, "headshots:secret@tcp(db.internal:3306)/credits?charset=utf8mb4&parseTime=true&loc=UTC", dsn)

	assert.Equal(t, "u:p@tcp(h:3306)/db", mysqlDSN(models.DatabaseConfig{DSN: "u:p@tcp(h:3306)/db"}))
}
