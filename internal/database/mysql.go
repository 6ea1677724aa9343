package database

import (
	"fmt"

	"github.com/Egham-7/headshot-studio/internal/models"

	"gorm.io/driver/mysql"
)

func newMySQL(config models.DatabaseConfig, logLevel string) (*DB, error) {
	db := &DB{config: config, driverName: "mysql"}
	if err := db.open(mysql.Open(mysqlDSN(config)), logLevel, "MySQL"); err != nil {
		return nil, err
	}
	return db, nil
}

// mysqlDSN builds a DSN that reads and writes timestamps in UTC
func mysqlDSN(config models.DatabaseConfig) string {
	if config.DSN != "" {
		return config.DSN
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		config.Username, config.Password, config.Host, config.Port, config.Database)
}
