package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:512" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Inbox watcher status
	SettingKeyInboxLastAt      = "inbox_last_at"
	SettingKeyInboxLastStatus  = "inbox_last_status"
	SettingKeyInboxLastMessage = "inbox_last_message"

	// Per-file fingerprint ("size:mtime") of the last imported version,
	// stored under this prefix followed by the file path.
	SettingKeyInboxFilePrefix = "inbox_file:"
)
