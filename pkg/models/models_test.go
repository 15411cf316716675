package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTest returns a migrated in-memory SQLite database. The pool is
// pinned to one connection because each SQLite :memory: connection is its
// own database.
func setupTest(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(ModelsToAutoMigrate()...))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) User {
	t.Helper()

	user := User{
		EmailAddress: email,
		DisplayName:  "Test User",
	}
	require.NoError(t, user.Create(db))
	return user
}

func createTestDocument(t *testing.T, db *gorm.DB, owner User, title string) Document {
	t.Helper()

	doc := Document{
		OwnerID: owner.ID,
		Title:   title,
	}
	_, err := doc.Create(db, fmt.Sprintf("content of %s", title))
	require.NoError(t, err)
	return doc
}
