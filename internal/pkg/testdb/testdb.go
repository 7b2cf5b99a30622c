// Package testdb opens throwaway sqlite stores for package tests.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"remobot/internal/platform/database"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "remobot.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
