package users

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/manuscripts/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	dbPath := filepath.Join(t.TempDir(), "users.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func TestRepository_CreateAdmin(t *testing.T) {
	repo := setupTestDB(t)

	user, err := repo.CreateAdmin("editor", "editor@example.com")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "editor", user.Username)
	assert.Equal(t, "editor@example.com", user.Email)
	assert.True(t, user.IsAdmin)
}

func TestRepository_CreateAdmin_DefaultEmail(t *testing.T) {
	repo := setupTestDB(t)

	user, err := repo.CreateAdmin("solo", "")

	require.NoError(t, err)
	assert.Equal(t, "solo@localhost", user.Email)
}

func TestRepository_CreateAdmin_Duplicate(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.CreateAdmin("editor", "editor@example.com")
	require.NoError(t, err)

	_, err = repo.CreateAdmin("editor", "other@example.com")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRepository_CreateAdmin_RequiresUsername(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.CreateAdmin("  ", "x@example.com")
	assert.Error(t, err)
}

func TestRepository_GetUser(t *testing.T) {
	repo := setupTestDB(t)

	created, err := repo.CreateAdmin("editor", "editor@example.com")
	require.NoError(t, err)

	byID, err := repo.GetUserByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "editor", byID.Username)

	byName, err := repo.GetUserByUsername("editor")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = repo.GetUserByUsername("nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ListAdmins(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.CreateAdmin("first", "")
	require.NoError(t, err)
	_, err = repo.CreateAdmin("second", "")
	require.NoError(t, err)

	admins, err := repo.ListAdmins()
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, "first", admins[0].Username)
}
