package entities

import "time"

type AuditEventType string

const (
	AuditEventImport AuditEventType = "import"
	AuditEventSync   AuditEventType = "sync"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is one row of import history. Import events carry the chapter
// counts of the run; sync events only describe an inbox scan.
type AuditEvent struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"index" json:"user_id"`
	EventType       AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action          string         `gorm:"size:100" json:"action"` // markdown_import, inbox_scan, ...
	Description     string         `gorm:"size:500" json:"description"`
	Source          string         `gorm:"size:255" json:"source,omitempty"` // "http:novel.md"
	PublicationID   *uint          `gorm:"index" json:"publication_id,omitempty"`
	PublicationSlug string         `gorm:"size:255" json:"publication_slug,omitempty"`
	Created         int            `json:"chapters_created"`
	Updated         int            `json:"chapters_updated"`
	Skipped         int            `json:"chapters_skipped"`
	Warnings        int            `json:"warnings"`
	DryRun          bool           `json:"dry_run"`
	Status          AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg        string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
