package repository

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/8Tech-Consults/skills-chat/internal/model"
)

// openTestDB opens an isolated sqlite database per test with the same
// schema and error translation the server uses against postgres.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "chat.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.Conversation{},
		&model.Message{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
