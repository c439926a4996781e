package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/manuscripts/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	return db
}

func uintPtr(v uint) *uint { return &v }

func TestRepository_LogEvent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventImport,
		Action:      "markdown_import",
		Description: "Imported 3 chapters into the-art-of-programming",
		Status:      entities.AuditStatusSuccess,
	}

	err := repo.LogEvent(event)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	for i := 0; i < 12; i++ {
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{
			EventType:     entities.AuditEventImport,
			Action:        "markdown_import",
			PublicationID: uintPtr(uint(1 + i%2)),
			Created:       i,
			Status:        entities.AuditStatusSuccess,
			CreatedAt:     time.Now().Add(time.Duration(-i) * time.Hour),
		}))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{
			EventType: entities.AuditEventSync,
			Action:    "inbox_sync",
			Status:    entities.AuditStatusFailed,
		}))
	}

	t.Run("all events", func(t *testing.T) {
		events, total, err := repo.GetEvents(EventFilter{}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		assert.Len(t, events, 15)
	})

	t.Run("by type", func(t *testing.T) {
		events, total, err := repo.GetEvents(EventFilter{EventType: entities.AuditEventSync}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		for _, e := range events {
			assert.Equal(t, entities.AuditEventSync, e.EventType)
		}
	})

	t.Run("by publication", func(t *testing.T) {
		_, total, err := repo.GetEvents(EventFilter{PublicationID: 2}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
	})

	t.Run("by status", func(t *testing.T) {
		_, total, err := repo.GetEvents(EventFilter{Status: entities.AuditStatusFailed}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})

	t.Run("pagination", func(t *testing.T) {
		filter := EventFilter{EventType: entities.AuditEventImport}
		page1, total, err := repo.GetEvents(filter, 5, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(12), total)
		assert.Len(t, page1, 5)

		page2, _, err := repo.GetEvents(filter, 5, 5)
		require.NoError(t, err)
		assert.Len(t, page2, 5)
		assert.NotEqual(t, page1[0].ID, page2[0].ID)
	})

	t.Run("order by created_at desc", func(t *testing.T) {
		events, _, err := repo.GetEvents(EventFilter{EventType: entities.AuditEventImport}, 12, 0)
		require.NoError(t, err)
		for i := 1; i < len(events); i++ {
			assert.False(t, events[i-1].CreatedAt.Before(events[i].CreatedAt))
		}
	})
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	now := time.Now()

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{
		EventType: entities.AuditEventImport,
		Action:    "old_import",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{
		EventType: entities.AuditEventImport,
		Action:    "new_import",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: now.Add(-1 * time.Hour),
	}))

	deleted, err := repo.DeleteOldEvents(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := repo.GetEvents(EventFilter{}, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "new_import", events[0].Action)
}

func TestRepository_GetEventByID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	event := &entities.AuditEvent{EventType: entities.AuditEventImport, Action: "text_import", Status: entities.AuditStatusSuccess}
	require.NoError(t, repo.LogEvent(event))

	found, err := repo.GetEventByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "text_import", found.Action)

	_, err = repo.GetEventByID(999)
	assert.Error(t, err)
}
