package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, "free", cfg.Import.DefaultAccessLevel)
	assert.False(t, cfg.Import.DefaultPublish)
	assert.False(t, cfg.Import.DefaultReplace)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Import.MaxUploadBytes)
	assert.False(t, cfg.Inbox.Enabled)
	assert.Equal(t, "*/5 * * * *", cfg.Inbox.Schedule)
	assert.Equal(t, 10*time.Minute, cfg.Tasks.TaskTimeout)
	assert.Equal(t, "0 3 * * *", cfg.Tasks.HousekeepingSchedule)
	assert.Empty(t, cfg.Locks.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.Locks.Wait)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("IMPORT_DEFAULT_ACCESS_LEVEL", "member")
	t.Setenv("IMPORT_DEFAULT_PUBLISH", "true")
	t.Setenv("INBOX_ENABLED", "true")
	t.Setenv("INBOX_DIR", "/srv/inbox")
	t.Setenv("LOCKS_REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("TASK_WORKERS", "4")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "member", cfg.Import.DefaultAccessLevel)
	assert.True(t, cfg.Import.DefaultPublish)
	assert.True(t, cfg.Inbox.Enabled)
	assert.Equal(t, "/srv/inbox", cfg.Inbox.Dir)
	assert.Equal(t, "redis://localhost:6379/2", cfg.Locks.RedisURL)
	assert.Equal(t, 4, cfg.Tasks.Workers)
}
