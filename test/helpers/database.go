package helpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/andrescamacho/colonyforge/internal/infrastructure/database"
)

// NewTestDB creates an in-memory SQLite database with all engine models
// migrated, failing the test on error
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewTestConnection()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
