package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/atlasworks/projectfeed/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dialAddr resolves the go-sql-driver address segment of the DSN from the
// configured host. A Cloud SQL instance connection name takes precedence and
// always dials the proxy socket under /cloudsql.
func dialAddr(cfg *config.Config) string {
	if cfg.InstanceConnectionName != "" {
		return fmt.Sprintf("unix(/cloudsql/%s)", cfg.InstanceConnectionName)
	}
	host := cfg.DBHost
	switch {
	case strings.HasPrefix(host, "tcp(") || strings.HasPrefix(host, "unix("):
		// DB_HOST already carries the driver network wrapper.
		return host
	case strings.HasPrefix(host, "/"):
		// Bare socket path.
		return fmt.Sprintf("unix(%s)", host)
	default:
		return fmt.Sprintf("tcp(%s:%s)", host, cfg.DBPort)
	}
}

func BuildDSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@%s/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, dialAddr(cfg), cfg.DBName)
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(BuildDSN(cfg)), &gorm.Config{
		PrepareStmt: true,
		Logger:      logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)

	return db, nil
}
