// Package testutil provides shared test databases.
package testutil

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/voter-segmentation/internal/repository"
)

// NewSQLiteDB opens an in-memory sqlite database with the full schema.
// PostGIS-specific queries will not run against it; tests needing those
// use sqlmock instead.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// One connection keeps the in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&repository.Election{},
		&repository.HierarchyLevel{},
		&repository.HierarchyNode{},
		&repository.Booth{},
		&repository.Voter{},
		&repository.Family{},
		&repository.SegmentationJob{},
		&repository.Segment{},
		&repository.SegmentMember{},
		&repository.Exception{},
		&repository.AuditBatch{},
		&repository.AuditMovement{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	return db
}

// NewSQLiteStore builds a repository store over a fresh in-memory
// database.
func NewSQLiteStore(t *testing.T) *repository.Store {
	t.Helper()
	return repository.NewStore(NewSQLiteDB(t))
}
