package infra

import (
	"fmt"
	"strings"

	"github.com/Ranjel272/POSBF/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the process-wide GORM pool and migrates the schema.
// Repositories borrow connections from this pool per call.
//
// postgres:// DSNs use pgx. A "sqlite:" prefix (sqlite:posbf.db,
// sqlite:file::memory:?cache=shared) opens an embedded database for local
// runs and tests; SQLite allows a single writer so the pool is capped at one.
func NewDatabase(dsn string) (*gorm.DB, error) {
	dialector, maxOpen := postgres.Open(dsn), 25
	if path, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		dialector, maxOpen = sqlite.Open(path), 1
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(min(5, maxOpen))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates/updates the tables and applies the index patches GORM tags
// cannot express. Safe to run on every boot.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Account{}, &model.AccountEvent{}); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches creates the partial unique indexes that make full name
// and username unique among active accounts only. The statements are valid in
// both PostgreSQL and SQLite.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"unique active full_name", `
CREATE UNIQUE INDEX IF NOT EXISTS uq_accounts_active_full_name
    ON accounts (full_name)
    WHERE is_disabled = false`},
		{"unique active username", `
CREATE UNIQUE INDEX IF NOT EXISTS uq_accounts_active_username
    ON accounts (username)
    WHERE is_disabled = false AND username IS NOT NULL`},
		{"active accounts by role", `
CREATE INDEX IF NOT EXISTS idx_accounts_active_role
    ON accounts (role)
    WHERE is_disabled = false`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
