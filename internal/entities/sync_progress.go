package entities

import (
	"time"
)

type SyncType string

const (
	SyncTypeInbox SyncType = "inbox"
)

type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

// SyncProgress is the latest scan of a watched directory. There is one row
// per SyncType; each run overwrites it.
type SyncProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SyncType    SyncType   `gorm:"size:50;uniqueIndex" json:"sync_type"`
	Dir         string     `gorm:"size:1024" json:"dir"`
	Status      SyncStatus `gorm:"size:20" json:"status"`
	TotalFiles  int        `json:"total_files"`
	Processed   int        `json:"processed"`
	Imported    int        `json:"imported"`
	Failed      int        `json:"failed"`
	Unchanged   int        `json:"unchanged"`
	CurrentFile string     `gorm:"size:512" json:"current_file,omitempty"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (SyncProgress) TableName() string {
	return "sync_progress"
}
