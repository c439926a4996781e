package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Audit
		Import
		Inbox
		Tasks
		Locks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Audit struct {
		Dir           string // JSON snapshots of import results; empty disables them
		RetentionDays int
	}
	Import struct {
		MaxUploadBytes     int64
		UploadDir          string
		DefaultAccessLevel string
		DefaultPublish     bool
		DefaultReplace     bool
	}
	Inbox struct {
		Enabled  bool
		Dir      string
		Schedule string // Cron format: "*/5 * * * *" = every 5 minutes
		Replace  bool
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration

		// HousekeepingSchedule is when audit and upload cleanup tasks are queued.
		HousekeepingSchedule string
	}
	Locks struct {
		RedisURL string // empty means in-process locks
		TTL      time.Duration
		Wait     time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 90)

	v.SetDefault("import_max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("import_upload_dir", DefaultUploadDir)
	v.SetDefault("import_default_access_level", "free")
	v.SetDefault("import_default_publish", false)
	v.SetDefault("import_default_replace", false)

	v.SetDefault("inbox_enabled", false)
	v.SetDefault("inbox_dir", "./inbox")
	v.SetDefault("inbox_schedule", "*/5 * * * *")
	v.SetDefault("inbox_replace", false)

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "30s")
	v.SetDefault("task_timeout", "10m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")
	v.SetDefault("task_housekeeping_schedule", "0 3 * * *")

	v.SetDefault("locks_redis_url", "")
	v.SetDefault("locks_ttl", "5m")
	v.SetDefault("locks_wait", "30s")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Import: Import{
			MaxUploadBytes:     v.GetInt64("IMPORT_MAX_UPLOAD_BYTES"),
			UploadDir:          v.GetString("IMPORT_UPLOAD_DIR"),
			DefaultAccessLevel: v.GetString("IMPORT_DEFAULT_ACCESS_LEVEL"),
			DefaultPublish:     v.GetBool("IMPORT_DEFAULT_PUBLISH"),
			DefaultReplace:     v.GetBool("IMPORT_DEFAULT_REPLACE"),
		},
		Inbox: Inbox{
			Enabled:  v.GetBool("INBOX_ENABLED"),
			Dir:      v.GetString("INBOX_DIR"),
			Schedule: v.GetString("INBOX_SCHEDULE"),
			Replace:  v.GetBool("INBOX_REPLACE"),
		},
		Tasks: Tasks{
			Enabled:              v.GetBool("TASKS_ENABLED"),
			Workers:              v.GetInt("TASK_WORKERS"),
			MaxRetries:           v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:           v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:          v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:         v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:      v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration:    v.GetDuration("TASK_RETENTION_DURATION"),
			HousekeepingSchedule: v.GetString("TASK_HOUSEKEEPING_SCHEDULE"),
		},
		Locks: Locks{
			RedisURL: v.GetString("LOCKS_REDIS_URL"),
			TTL:      v.GetDuration("LOCKS_TTL"),
			Wait:     v.GetDuration("LOCKS_WAIT"),
		},
	}
}
