package testutil

import (
	"fmt"
	"testing"

	"github.com/kendall-kelly/atelier-api/config"
	"github.com/kendall-kelly/atelier-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory sqlite database that lives as long as t.
// The pool is pinned to one connection so every query sees the same database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CreateUser inserts a user with the given role. The auth0 id is derived
// from name so it can be used with mock auth middleware.
func CreateUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()

	user := &models.User{
		Auth0ID: Auth0ID(name),
		Name:    name,
		Email:   fmt.Sprintf("%s@atelier.test", name),
		Role:    role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Auth0ID is the subject CreateUser gives the user called name.
func Auth0ID(name string) string {
	return "auth0|" + name
}

// CreateMeasurement inserts a measurement profile for userID.
func CreateMeasurement(t *testing.T, db *gorm.DB, userID *uint) *models.CustomerMeasurement {
	t.Helper()

	chest, waist := 98.5, 84.0
	m := &models.CustomerMeasurement{UserID: userID, Label: "Suit", Chest: &chest, Waist: &waist}
	require.NoError(t, db.Create(m).Error)
	return m
}
