package importers

import (
	"context"

	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/parsers"
)

// PublicationRef identifies a publication by id or slug. ID wins when both are set.
type PublicationRef struct {
	ID   uint
	Slug string
}

// NewPublication carries what the store needs to allocate a publication.
type NewPublication struct {
	OwnerID      uint
	Slug         string
	Title        string
	Author       string
	Description  string
	Kind         string
	SourceFormat string
}

// ChapterCreate is a chapter to insert.
type ChapterCreate struct {
	Number      int
	Title       string
	Body        string
	WordCount   int
	AccessLevel entities.AccessLevel
	Published   bool
}

// ChapterUpdate overwrites the text of an existing chapter. Access level and
// published state are not part of an update.
type ChapterUpdate struct {
	ID        uint
	Number    int
	Title     string
	Body      string
	WordCount int
}

// Store is the storage collaborator used by the Importer.
type Store interface {
	// FindPublication returns ErrPublicationNotFound when nothing matches.
	FindPublication(ctx context.Context, ref PublicationRef) (*entities.Publication, error)
	ListChapters(ctx context.Context, publicationID uint) ([]entities.Chapter, error)
	// ApplyChapterChanges commits all creates and updates or none of them.
	ApplyChapterChanges(ctx context.Context, publicationID uint, creates []ChapterCreate, updates []ChapterUpdate) error
	CreatePublication(ctx context.Context, pub NewPublication) (*entities.Publication, error)
	// FindOwner returns ErrNoOwner when no admin user exists.
	FindOwner(ctx context.Context) (*entities.User, error)
}

// ImportRequest describes where and how a parsed book is imported.
type ImportRequest struct {
	Book *parsers.ParsedBook

	// TargetSlug is derived from the book title when empty.
	TargetSlug            string
	ExistingPublicationID uint

	Publish         bool
	AccessLevel     entities.AccessLevel
	ReplaceExisting bool

	// DryRun reconciles and reports without writing anything.
	DryRun bool
}

type RunStatus string

const (
	StatusPending     RunStatus = "pending"
	StatusReconciling RunStatus = "reconciling"
	StatusCompleted   RunStatus = "completed"
	StatusFailed      RunStatus = "failed"
)

type Outcome string

const (
	OutcomeCreate Outcome = "create"
	OutcomeUpdate Outcome = "update"
	OutcomeSkip   Outcome = "skip"
)

// ChapterAction records what happened to one parsed chapter.
type ChapterAction struct {
	Number    int     `json:"number"`
	Title     string  `json:"title"`
	WordCount int     `json:"word_count"`
	Outcome   Outcome `json:"outcome"`
}

// ImportResult is the outcome of one import run.
// Errors holds both fatal causes and non-fatal warnings; check Success and
// HasChanges to tell them apart.
type ImportResult struct {
	Success         bool            `json:"success"`
	Status          RunStatus       `json:"status"`
	PublicationRef  string          `json:"publication_ref"`
	PublicationID   uint            `json:"publication_id,omitempty"`
	PublicationSlug string          `json:"publication_slug,omitempty"`
	Title           string          `json:"title,omitempty"`
	FreshImport     bool            `json:"fresh_import"`
	DryRun          bool            `json:"dry_run,omitempty"`
	ChaptersCreated []string        `json:"chapters_created"`
	ChaptersUpdated []string        `json:"chapters_updated"`
	ChaptersSkipped []string        `json:"chapters_skipped"`
	Errors          []string        `json:"errors"`
	Actions         []ChapterAction `json:"actions"`

	// OwnerID is the user new publications are attributed to.
	OwnerID uint `json:"-"`

	// Cause is the error that failed the run, if any.
	Cause error `json:"-"`
}

func newResult(dryRun bool) ImportResult {
	return ImportResult{
		Status:          StatusPending,
		DryRun:          dryRun,
		ChaptersCreated: []string{},
		ChaptersUpdated: []string{},
		ChaptersSkipped: []string{},
		Errors:          []string{},
		Actions:         []ChapterAction{},
	}
}

// HasChanges reports whether the run created or updated anything.
func (r ImportResult) HasChanges() bool {
	return len(r.ChaptersCreated) > 0 || len(r.ChaptersUpdated) > 0
}
