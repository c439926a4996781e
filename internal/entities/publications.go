package entities

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type AccessLevel string

const (
	AccessLevelFree      AccessLevel = "free"
	AccessLevelMember    AccessLevel = "member"
	AccessLevelSupporter AccessLevel = "supporter"
	AccessLevelPatron    AccessLevel = "patron"
)

// AccessLevels lists the tiers from least to most restricted.
var AccessLevels = []AccessLevel{
	AccessLevelFree,
	AccessLevelMember,
	AccessLevelSupporter,
	AccessLevelPatron,
}

// Valid reports whether the level is one of the known tiers.
func (l AccessLevel) Valid() bool {
	for _, known := range AccessLevels {
		if l == known {
			return true
		}
	}
	return false
}

// ParseAccessLevel converts user input into an AccessLevel.
// An empty string yields AccessLevelFree.
func ParseAccessLevel(s string) (AccessLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AccessLevelFree, nil
	}
	level := AccessLevel(s)
	if !level.Valid() {
		return "", fmt.Errorf("unknown access level %q (expected one of free, member, supporter, patron)", s)
	}
	return level, nil
}

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:255" json:"email"`
	IsAdmin   bool           `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Publication is the container (book, journal) that owns an ordered set of chapters.
type Publication struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerID      uint      `gorm:"index" json:"owner_id"`
	Slug         string    `gorm:"uniqueIndex;size:255" json:"slug"`
	Title        string    `gorm:"size:512" json:"title"`
	Author       string    `gorm:"size:256" json:"author,omitempty"`
	Description  string    `gorm:"type:text" json:"description,omitempty"`
	Kind         string    `gorm:"size:50" json:"kind,omitempty"`
	SourceFormat string    `gorm:"size:20" json:"source_format,omitempty"`
	Owner        User      `gorm:"foreignKey:OwnerID" json:"-"`
	Chapters     []Chapter `gorm:"foreignKey:PublicationID" json:"chapters,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Publication) TableName() string {
	return "publications"
}

type Chapter struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	PublicationID uint        `gorm:"uniqueIndex:idx_publication_number" json:"publication_id"`
	Number        int         `gorm:"uniqueIndex:idx_publication_number" json:"number"`
	Title         string      `gorm:"size:512" json:"title"`
	Body          string      `gorm:"type:text" json:"body,omitempty"`
	WordCount     int         `json:"word_count"`
	AccessLevel   AccessLevel `gorm:"size:20;default:'free'" json:"access_level"`
	Published     bool        `gorm:"default:false" json:"published"`
	PublishedAt   *time.Time  `json:"published_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (Chapter) TableName() string {
	return "chapters"
}
