package database

import (
	"fmt"
	"strings"

	"github.com/Egham-7/headshot-studio/internal/models"

	"gorm.io/driver/postgres"
)

const applicationName = "headshot-studio"

func newPostgreSQL(config models.DatabaseConfig, logLevel string) (*DB, error) {
	db := &DB{config: config, driverName: "postgres"}
	if err := db.open(postgres.Open(postgresDSN(config)), logLevel, "PostgreSQL"); err != nil {
		return nil, err
	}
	return db, nil
}

// postgresDSN builds a keyword/value DSN with sessions tagged by service name
func postgresDSN(config models.DatabaseConfig) string {
	if config.DSN != "" {
		return config.DSN
	}

	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	parts := []string{
		"host=" + config.Host,
		fmt.Sprintf("port=%d", config.Port),
		"user=" + config.Username,
		"password=" + config.Password,
		"dbname=" + config.Database,
		"sslmode=" + sslMode,
		"application_name=" + applicationName,
		"TimeZone=UTC",
	}
	return strings.Join(parts, " ")
}
