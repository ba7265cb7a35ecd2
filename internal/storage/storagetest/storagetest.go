// Package storagetest opens throwaway in-memory databases for tests.
package storagetest

import (
	"fmt"
	"testing"

	"socialchat/backend/internal/storage"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), storage.GormConfig())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewStore returns a storage.Service backed by NewDB.
func NewStore(t testing.TB) *storage.Service {
	t.Helper()
	return storage.NewStorageService(NewDB(t))
}
