// Package sync records the progress of background runs such as inbox scans.
//
// # Usage
//
//	repo := sync.NewRepository(db, entities.SyncTypeInbox)
//	err := repo.StartRun("/srv/inbox", len(files))
//	err = repo.RecordItem(sync.ItemImported, "chapter-1.md")
//	err = repo.FinishRun(nil)
package sync

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/manuscripts/internal/entities"
)

// StaleAfter is how long a running record may go without updates before it
// is treated as an interrupted run.
const StaleAfter = 10 * time.Minute

type ItemOutcome string

const (
	ItemImported  ItemOutcome = "imported"
	ItemFailed    ItemOutcome = "failed"
	ItemUnchanged ItemOutcome = "unchanged"
)

// Repository handles progress records for one sync type.
type Repository struct {
	db       *gorm.DB
	syncType entities.SyncType
}

// NewRepository creates a progress repository for the given sync type.
func NewRepository(db *gorm.DB, syncType entities.SyncType) *Repository {
	return &Repository{db: db, syncType: syncType}
}

// GetProgress retrieves the latest run record.
func (r *Repository) GetProgress() (*entities.SyncProgress, error) {
	var progress entities.SyncProgress
	err := r.db.Where("sync_type = ?", r.syncType).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// StartRun creates or resets the run record for a scan of dir.
func (r *Repository) StartRun(dir string, totalFiles int) error {
	now := time.Now()
	progress := entities.SyncProgress{
		SyncType:   r.syncType,
		Dir:        dir,
		Status:     entities.SyncStatusRunning,
		TotalFiles: totalFiles,
		StartedAt:  now,
		UpdatedAt:  now,
	}

	var existing entities.SyncProgress
	err := r.db.Where("sync_type = ?", r.syncType).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&progress).Error
	}
	if err != nil {
		return err
	}

	progress.ID = existing.ID
	return r.db.Select("*").Save(&progress).Error
}

// RecordItem counts one processed file with the given outcome.
func (r *Repository) RecordItem(outcome ItemOutcome, file string) error {
	var column string
	switch outcome {
	case ItemImported, ItemFailed, ItemUnchanged:
		column = string(outcome)
	default:
		return fmt.Errorf("unknown item outcome %q", outcome)
	}

	return r.db.Model(&entities.SyncProgress{}).
		Where("sync_type = ?", r.syncType).
		Updates(map[string]any{
			"processed":    gorm.Expr("processed + 1"),
			column:         gorm.Expr(column + " + 1"),
			"current_file": file,
			"updated_at":   time.Now(),
		}).Error
}

// FinishRun marks the run completed, or failed when runErr is non-nil.
func (r *Repository) FinishRun(runErr error) error {
	now := time.Now()
	updates := map[string]any{
		"status":       entities.SyncStatusCompleted,
		"current_file": "",
		"updated_at":   now,
		"completed_at": now,
	}
	if runErr != nil {
		updates["status"] = entities.SyncStatusFailed
		updates["error"] = runErr.Error()
	}
	return r.db.Model(&entities.SyncProgress{}).
		Where("sync_type = ?", r.syncType).
		Updates(updates).Error
}

// IsRunning reports whether a run is in progress. A running record that has
// not been updated for StaleAfter is marked failed and reported as not running.
func (r *Repository) IsRunning() (bool, error) {
	var progress entities.SyncProgress
	err := r.db.Where("sync_type = ? AND status = ?", r.syncType, entities.SyncStatusRunning).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if progress.UpdatedAt.Before(time.Now().Add(-StaleAfter)) {
		_ = r.FinishRun(errors.New("run was interrupted"))
		return false, nil
	}
	return true, nil
}
