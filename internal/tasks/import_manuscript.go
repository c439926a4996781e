package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/importers"
	"github.com/mrlokans/manuscripts/internal/locks"
	"github.com/mrlokans/manuscripts/internal/parsers"
	"github.com/mrlokans/manuscripts/internal/services"
)

const ImportManuscriptQueue = "import_manuscript"

// ManuscriptImporter imports a manuscript stored on disk.
type ManuscriptImporter interface {
	ImportFile(ctx context.Context, path string, cmd services.ImportCommand) (importers.ImportResult, error)
}

// ImportManuscriptTask imports an uploaded manuscript in the background.
type ImportManuscriptTask struct {
	// Path is where the upload was stored; Filename is its original name.
	Path          string `json:"path"`
	Filename      string `json:"filename"`
	Format        string `json:"format,omitempty"`
	Slug          string `json:"slug,omitempty"`
	PublicationID uint   `json:"publication_id,omitempty"`
	Publish       bool   `json:"publish"`
	AccessLevel   string `json:"access_level,omitempty"`
	Replace       bool   `json:"replace"`
	DryRun        bool   `json:"dry_run,omitempty"`

	// RemoveAfter deletes Path once the import has a final outcome.
	RemoveAfter bool `json:"remove_after,omitempty"`
}

func (t ImportManuscriptTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        ImportManuscriptQueue,
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Command converts the task payload back into an import command.
func (t ImportManuscriptTask) Command() (services.ImportCommand, error) {
	cmd := services.ImportCommand{
		Filename:      t.Filename,
		Slug:          t.Slug,
		PublicationID: t.PublicationID,
		Publish:       t.Publish,
		AccessLevel:   entities.AccessLevel(t.AccessLevel),
		Replace:       t.Replace,
		DryRun:        t.DryRun,
		Source:        "task",
	}
	if t.Format != "" {
		format, err := parsers.ParseFormat(t.Format)
		if err != nil {
			return cmd, err
		}
		cmd.Format = format
	}
	return cmd, nil
}

// ImportManuscriptProcessor runs queued imports.
//
// Only lock contention is retried. Parse errors and failed import results
// are final: running the same manuscript again gives the same outcome, and
// both are already recorded in the audit log.
func ImportManuscriptProcessor(importer ManuscriptImporter) backlite.QueueProcessor[ImportManuscriptTask] {
	return func(ctx context.Context, task ImportManuscriptTask) error {
		if importer == nil {
			return fmt.Errorf("manuscript importer not configured")
		}

		cmd, err := task.Command()
		if err != nil {
			log.Printf("[TASK] Dropping import of %s: %v", task.Filename, err)
			task.cleanup()
			return nil
		}

		result, err := importer.ImportFile(ctx, task.Path, cmd)
		if err != nil {
			if errors.Is(err, locks.ErrLockTimeout) {
				return fmt.Errorf("import %s: %w", task.Filename, err)
			}
			log.Printf("[TASK] Could not parse %s: %v", task.Filename, err)
			task.cleanup()
			return nil
		}

		if result.Success {
			log.Printf("[TASK] Imported %s into %s: %d created, %d updated, %d skipped",
				task.Filename, result.PublicationSlug, len(result.ChaptersCreated),
				len(result.ChaptersUpdated), len(result.ChaptersSkipped))
		} else {
			log.Printf("[TASK] Import of %s failed: %v", task.Filename, result.Cause)
		}

		task.cleanup()
		return nil
	}
}

func (t ImportManuscriptTask) cleanup() {
	if !t.RemoveAfter || t.Path == "" {
		return
	}
	if err := os.Remove(t.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("[TASK] Failed to remove upload %s: %v", t.Path, err)
	}
}

func NewImportManuscriptQueue(importer ManuscriptImporter) backlite.Queue {
	return backlite.NewQueue(ImportManuscriptProcessor(importer))
}
