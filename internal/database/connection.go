package database

import (
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/briefstack/maildigest/internal/config"
)

// NewConnection opens the local SQLite store, creating the parent directory
// if needed. The store has no concurrent-writer protocol: the pipeline is a
// single periodic batch job, so one connection is all we allow.
func NewConnection(cfg *config.StoreConfig) (*gorm.DB, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, errors.New("store path is empty")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create store directory %s", dir)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open store %s", cfg.Path)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
