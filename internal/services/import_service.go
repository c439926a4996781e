package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/importers"
	"github.com/mrlokans/manuscripts/internal/locks"
	"github.com/mrlokans/manuscripts/internal/parsers"
	"github.com/mrlokans/manuscripts/internal/utils"
)

const DefaultLockTimeout = 30 * time.Second

// ImportCommand is one request to turn a manuscript into a publication.
type ImportCommand struct {
	// Filename is used for format detection and as the fallback title.
	Filename string
	// Format overrides detection from the file extension when set.
	Format parsers.Format

	Slug          string
	PublicationID uint
	Publish       bool
	AccessLevel   entities.AccessLevel
	Replace       bool
	DryRun        bool

	// Source names the channel the manuscript arrived through: cli, http, inbox, task.
	Source string
}

// ImportService parses manuscripts and hands them to the importer, one
// import per publication at a time.
type ImportService struct {
	store       importers.Store
	parser      *parsers.Parser
	importer    *importers.Importer
	locker      locks.Locker
	auditor     ImportAuditor
	archiver    ResultArchiver
	LockTimeout time.Duration
}

// NewImportService creates a new ImportService. A nil locker falls back to
// an in-process lock.
func NewImportService(store importers.Store, locker locks.Locker) *ImportService {
	if locker == nil {
		locker = locks.NewMemoryLocker()
	}
	return &ImportService{
		store:       store,
		parser:      parsers.NewParser(),
		importer:    importers.NewImporter(store),
		locker:      locker,
		LockTimeout: DefaultLockTimeout,
	}
}

// SetAuditor sets where audit events are written.
func (s *ImportService) SetAuditor(auditor ImportAuditor) {
	s.auditor = auditor
}

// SetArchiver sets where result snapshots are written.
func (s *ImportService) SetArchiver(archiver ResultArchiver) {
	s.archiver = archiver
}

// Parse reads a manuscript without touching storage.
func (s *ImportService) Parse(data []byte, filename string, format parsers.Format) (*parsers.ParsedBook, error) {
	return s.parser.Parse(data, filename, format)
}

// ImportFile reads the file at path and imports it. cmd.Filename defaults
// to the base name of path.
func (s *ImportService) ImportFile(ctx context.Context, path string, cmd ImportCommand) (importers.ImportResult, error) {
	if cmd.Filename == "" {
		cmd.Filename = filepath.Base(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return s.parseFailed(cmd, fmt.Errorf("failed to open %s: %w", path, errors.Join(parsers.ErrUnreadable, err)))
	}
	defer f.Close()

	return s.ImportReader(ctx, f, cmd)
}

// ImportReader reads everything from r and imports it.
func (s *ImportService) ImportReader(ctx context.Context, r io.Reader, cmd ImportCommand) (importers.ImportResult, error) {
	book, err := s.parser.ParseReader(r, cmd.Filename, cmd.Format)
	if err != nil {
		return s.parseFailed(cmd, err)
	}
	return s.importBook(ctx, book, cmd)
}

// ImportBytes imports an in-memory manuscript.
//
// The returned error is non-nil only when the manuscript could not be parsed
// or the publication lock could not be taken. Import failures are reported on
// the result with Success=false.
func (s *ImportService) ImportBytes(ctx context.Context, data []byte, cmd ImportCommand) (importers.ImportResult, error) {
	book, err := s.parser.Parse(data, cmd.Filename, cmd.Format)
	if err != nil {
		return s.parseFailed(cmd, err)
	}
	return s.importBook(ctx, book, cmd)
}

func (s *ImportService) importBook(ctx context.Context, book *parsers.ParsedBook, cmd ImportCommand) (importers.ImportResult, error) {
	key := s.lockKey(ctx, book, cmd)

	lockCtx, cancel := context.WithTimeout(ctx, s.LockTimeout)
	release, err := s.locker.Acquire(lockCtx, key)
	cancel()
	if err != nil {
		return importers.ImportResult{}, fmt.Errorf("another import of %s is in progress: %w", key, err)
	}
	defer release()

	result := s.importer.Import(ctx, importers.ImportRequest{
		Book:                  book,
		TargetSlug:            cmd.Slug,
		ExistingPublicationID: cmd.PublicationID,
		Publish:               cmd.Publish,
		AccessLevel:           cmd.AccessLevel,
		ReplaceExisting:       cmd.Replace,
		DryRun:                cmd.DryRun,
	})

	s.record(book, cmd, result)
	return result, nil
}

func (s *ImportService) record(book *parsers.ParsedBook, cmd ImportCommand, result importers.ImportResult) {
	source := describeSource(cmd)

	if result.Success {
		log.Printf("[IMPORT] %s -> %s: %d created, %d updated, %d skipped, %d warnings",
			source, result.PublicationSlug, len(result.ChaptersCreated), len(result.ChaptersUpdated),
			len(result.ChaptersSkipped), len(result.Errors))
	} else {
		log.Printf("[IMPORT] %s failed: %v", source, result.Cause)
	}

	if s.auditor != nil {
		s.auditor.LogImport(result.OwnerID, source, book.Format.String(), result)
	}
	if s.archiver != nil && !result.DryRun {
		if _, err := s.archiver.SaveImportResult(source, result); err != nil {
			log.Printf("[IMPORT] Failed to save result snapshot for %s: %v", source, err)
		}
	}
}

func (s *ImportService) parseFailed(cmd ImportCommand, err error) (importers.ImportResult, error) {
	source := describeSource(cmd)
	log.Printf("[IMPORT] Failed to parse %s: %v", source, err)
	if s.auditor != nil {
		s.auditor.LogParseFailure(0, source, err)
	}
	return importers.ImportResult{}, err
}

// lockKey picks the key that serializes imports into the same publication.
// An import by id locks on the slug of the publication it names, so it
// contends with imports that address the same publication by slug. Derived
// slugs lock on the unsuffixed base so two books with the same title cannot
// both claim it.
func (s *ImportService) lockKey(ctx context.Context, book *parsers.ParsedBook, cmd ImportCommand) string {
	if cmd.PublicationID != 0 {
		pub, err := s.store.FindPublication(ctx, importers.PublicationRef{ID: cmd.PublicationID})
		if err != nil || pub == nil {
			// The importer reports the missing publication; nothing to contend with.
			return "publication:id:" + strconv.FormatUint(uint64(cmd.PublicationID), 10)
		}
		return "publication:slug:" + pub.Slug
	}
	slug := utils.Slugify(cmd.Slug)
	if slug == "" {
		slug = utils.Slugify(book.Title)
	}
	return "publication:slug:" + slug
}

func describeSource(cmd ImportCommand) string {
	switch {
	case cmd.Source == "":
		return cmd.Filename
	case cmd.Filename == "":
		return cmd.Source
	default:
		return cmd.Source + ":" + cmd.Filename
	}
}
