// Package repo persists the state this service owns locally: the favorite
// set, the newly-unlocked set and idempotency records for chat sends. The
// remote API stays the source of truth for characters and relationships.
//
// Functions take the *gorm.DB explicitly so callers can pass a transaction.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-tasuki-companion/internal/domain"
)

const (
	maxOpenConns    = 10
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

// pragmas are applied on every open. busy_timeout keeps concurrent favorite
// toggles from failing with SQLITE_BUSY under WAL.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// OpenSQLite opens (or creates) the database at path and installs the
// OpenTelemetry plugin so queries show up as child spans of the request
// that issued them. In-memory DSNs skip the directory check.
func OpenSQLite(path string) (*gorm.DB, error) {
	if !isMemoryDSN(path) {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, fmt.Errorf("db dir: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxOpenConns)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	return db, nil
}

func isMemoryDSN(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// AutoMigrate creates or updates the tables for locally owned state.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Favorite{},
		&domain.NewUnlock{},
		&domain.Idempotency{},
	)
}
