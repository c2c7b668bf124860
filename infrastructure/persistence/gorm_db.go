package persistence

import (
	"database/sql"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGormDB opens gorm over an existing connection pool. Vendors gorm has
// no driver for here (SQL Server, the in-memory store) fall back to the
// sqlite file at sqlitePath.
func NewGormDB(vendor string, db *sql.DB, sqlitePath string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch Dialect(vendor) {
	case Postgres:
		if db != nil {
			return gorm.Open(postgres.New(postgres.Config{Conn: db}), cfg)
		}
	case MySQL:
		if db != nil {
			return gorm.Open(mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true}), cfg)
		}
	}
	if sqlitePath == "" {
		sqlitePath = "file::memory:?cache=shared"
	}
	return gorm.Open(sqlite.Open(sqlitePath), cfg)
}
