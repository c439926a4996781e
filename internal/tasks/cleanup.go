package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mikestefanello/backlite"
)

const (
	defaultAuditRetentionDays = 90
	defaultUploadMaxAge       = 48 * time.Hour
)

// maintenanceConfig is shared by the cleanup queues: short timeouts, and
// task payloads kept only when a run failed.
func maintenanceConfig(name string, attempts int) backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        name,
		MaxAttempts: attempts,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// AuditEventCleaner deletes audit events older than a retention window.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// CleanupAuditEventsTask prunes the import history.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return maintenanceConfig("cleanup_audit_events", 3)
}

func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return fmt.Errorf("audit event cleaner not configured")
		}

		days := task.RetentionDays
		if days <= 0 {
			days = defaultAuditRetentionDays
		}

		deleted, err := cleaner.DeleteOldEvents(time.Duration(days) * 24 * time.Hour)
		if err != nil {
			return fmt.Errorf("cleanup audit events: %w", err)
		}

		log.Printf("[TASK] Removed %d import audit events older than %d days", deleted, days)
		return nil
	}
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}

// CleanupUploadsTask removes stored uploads that no import task claimed,
// e.g. after the queue database was reset.
type CleanupUploadsTask struct {
	Dir         string `json:"dir"`
	MaxAgeHours int    `json:"max_age_hours"`
}

func (t CleanupUploadsTask) Config() backlite.QueueConfig {
	return maintenanceConfig("cleanup_uploads", 1)
}

func CleanupUploadsProcessor() backlite.QueueProcessor[CleanupUploadsTask] {
	return func(ctx context.Context, task CleanupUploadsTask) error {
		if task.Dir == "" {
			return fmt.Errorf("upload dir not set")
		}
		maxAge := time.Duration(task.MaxAgeHours) * time.Hour
		if maxAge <= 0 {
			maxAge = defaultUploadMaxAge
		}

		removed, err := removeOlderThan(task.Dir, time.Now().Add(-maxAge))
		if err != nil {
			return fmt.Errorf("cleanup uploads: %w", err)
		}
		log.Printf("[TASK] Removed %d stale uploads from %s", removed, task.Dir)
		return nil
	}
}

func NewCleanupUploadsQueue() backlite.Queue {
	return backlite.NewQueue(CleanupUploadsProcessor())
}

// removeOlderThan deletes regular files in dir modified before cutoff.
// A missing dir is not an error.
func removeOlderThan(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
