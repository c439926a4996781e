package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
	gosync "sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/manuscripts/internal/audit"
	"github.com/mrlokans/manuscripts/internal/database/settings"
	"github.com/mrlokans/manuscripts/internal/database/sync"
	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/importers"
	"github.com/mrlokans/manuscripts/internal/locks"
	"github.com/mrlokans/manuscripts/internal/services"
	"github.com/mrlokans/manuscripts/internal/utils"
)

var ErrScanInProgress = errors.New("inbox scan already in progress")

// InboxConfig controls the inbox watcher.
type InboxConfig struct {
	Enabled  bool
	Dir      string
	Schedule string

	Replace     bool
	Publish     bool
	AccessLevel entities.AccessLevel
}

// InboxImporter imports one manuscript file.
type InboxImporter interface {
	ImportFile(ctx context.Context, path string, cmd services.ImportCommand) (importers.ImportResult, error)
}

// ScanReport summarizes one pass over the inbox.
type ScanReport struct {
	Found    int
	Imported []string
	Failed   []string
	Skipped  []string
}

func (r ScanReport) String() string {
	return fmt.Sprintf("%d found, %d imported, %d failed, %d unchanged",
		r.Found, len(r.Imported), len(r.Failed), len(r.Skipped))
}

// InboxScheduler imports manuscripts dropped into a directory. A file is
// imported again only when its size or modification time changes.
type InboxScheduler struct {
	config       InboxConfig
	importer     InboxImporter
	settings     *settings.Repository
	progress     *sync.Repository
	auditService *audit.Service

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         gosync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
	scanMu     gosync.Mutex
}

func NewInboxScheduler(cfg InboxConfig, importer InboxImporter, settingsRepo *settings.Repository, progress *sync.Repository, auditService *audit.Service) *InboxScheduler {
	return &InboxScheduler{
		config:       cfg,
		importer:     importer,
		settings:     settingsRepo,
		progress:     progress,
		auditService: auditService,
		cron:         cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start schedules inbox scans. It does nothing when the inbox is disabled.
func (s *InboxScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		log.Printf("[INBOX] Scheduler disabled")
		return nil
	}
	if s.config.Dir == "" {
		log.Printf("[INBOX] No inbox directory configured, skipping")
		return nil
	}
	if err := ValidateCronSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	var runCtx context.Context
	runCtx, s.cancelFunc = context.WithCancel(ctx)

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.Scan(runCtx); err != nil && !errors.Is(err, ErrScanInProgress) {
			log.Printf("[INBOX] Scan failed: %v", err)
		}
	})
	if err != nil {
		s.cancelFunc()
		return fmt.Errorf("failed to schedule inbox scan: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRunTime(s.config.Schedule, time.Now())
	log.Printf("[INBOX] Watching %s with schedule '%s' (%s). Next run: %v",
		s.config.Dir, s.config.Schedule, DescribeSchedule(s.config.Schedule), next)

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running scan to finish.
func (s *InboxScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Printf("[INBOX] Scheduler stopped")
}

// RunNow starts a scan in the background.
func (s *InboxScheduler) RunNow(ctx context.Context) {
	go func() {
		if _, err := s.Scan(ctx); err != nil {
			log.Printf("[INBOX] Scan failed: %v", err)
		}
	}()
}

func (s *InboxScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *InboxScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// Scan imports every new or changed manuscript in the inbox directory.
func (s *InboxScheduler) Scan(ctx context.Context) (ScanReport, error) {
	if !s.scanMu.TryLock() {
		return ScanReport{}, ErrScanInProgress
	}
	defer s.scanMu.Unlock()

	if running, err := s.progress.IsRunning(); err != nil {
		return ScanReport{}, fmt.Errorf("failed to check inbox progress: %w", err)
	} else if running {
		return ScanReport{}, ErrScanInProgress
	}

	files, err := listManuscripts(s.config.Dir)
	if err != nil {
		s.finish(ScanReport{}, err)
		return ScanReport{}, err
	}

	known, err := s.settings.ListByPrefix(entities.SettingKeyInboxFilePrefix)
	if err != nil {
		return ScanReport{}, fmt.Errorf("failed to load inbox fingerprints: %w", err)
	}

	report := ScanReport{Found: len(files)}
	if err := s.progress.StartRun(s.config.Dir, len(files)); err != nil {
		return report, fmt.Errorf("failed to start inbox run: %w", err)
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			s.finish(report, err)
			return report, err
		}
		seen[f.rel] = true

		if known[f.rel] == f.fingerprint {
			report.Skipped = append(report.Skipped, f.rel)
			s.record(sync.ItemUnchanged, f.rel)
			continue
		}

		if s.importOne(ctx, f) {
			report.Imported = append(report.Imported, f.rel)
			s.record(sync.ItemImported, f.rel)
		} else {
			report.Failed = append(report.Failed, f.rel)
			s.record(sync.ItemFailed, f.rel)
		}
	}

	for rel := range known {
		if !seen[rel] {
			_ = s.settings.DeleteSetting(entities.SettingKeyInboxFilePrefix + rel)
		}
	}

	s.finish(report, nil)
	return report, nil
}

// importOne imports a single file and reports whether it succeeded. The
// fingerprint is stored when retrying the same bytes cannot help: after a
// successful import or a parse error.
func (s *InboxScheduler) importOne(ctx context.Context, f inboxFile) bool {
	result, err := s.importer.ImportFile(ctx, f.path, services.ImportCommand{
		Filename:    filepath.Base(f.path),
		Publish:     s.config.Publish,
		AccessLevel: s.config.AccessLevel,
		Replace:     s.config.Replace,
		Source:      "inbox",
	})

	switch {
	case err != nil && errors.Is(err, locks.ErrLockTimeout):
		log.Printf("[INBOX] %s is busy, will retry on next scan", f.rel)
		return false
	case err != nil:
		log.Printf("[INBOX] Could not parse %s: %v", f.rel, err)
		s.remember(f)
		return false
	case !result.Success:
		log.Printf("[INBOX] Import of %s failed: %v", f.rel, result.Cause)
		return false
	}

	log.Printf("[INBOX] Imported %s into %s (%d created, %d updated)",
		f.rel, result.PublicationSlug, len(result.ChaptersCreated), len(result.ChaptersUpdated))
	s.remember(f)
	return true
}

func (s *InboxScheduler) remember(f inboxFile) {
	if err := s.settings.SetSetting(entities.SettingKeyInboxFilePrefix+f.rel, f.fingerprint); err != nil {
		log.Printf("[INBOX] Failed to store fingerprint of %s: %v", f.rel, err)
	}
}

func (s *InboxScheduler) record(outcome sync.ItemOutcome, item string) {
	if err := s.progress.RecordItem(outcome, item); err != nil {
		log.Printf("[INBOX] Failed to record progress for %s: %v", item, err)
	}
}

func (s *InboxScheduler) finish(report ScanReport, runErr error) {
	_ = s.progress.FinishRun(runErr)

	status, message := "success", report.String()
	if runErr != nil {
		status, message = "failed", runErr.Error()
	}
	_ = s.settings.SetSetting(entities.SettingKeyInboxLastAt, time.Now().UTC().Format(time.RFC3339))
	_ = s.settings.SetSetting(entities.SettingKeyInboxLastStatus, status)
	_ = s.settings.SetSetting(entities.SettingKeyInboxLastMessage, message)

	log.Printf("[INBOX] Scan %s: %s", status, message)

	if s.auditService != nil && (runErr != nil || len(report.Imported) > 0 || len(report.Failed) > 0) {
		s.auditService.LogSync(0, "inbox_scan", message, runErr)
	}
}

type inboxFile struct {
	path        string
	rel         string
	fingerprint string
}

// listManuscripts walks dir for supported files, skipping hidden entries.
func listManuscripts(dir string) ([]inboxFile, error) {
	var files []inboxFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !utils.IsManuscriptFile(name) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, inboxFile{
			path:        path,
			rel:         filepath.ToSlash(rel),
			fingerprint: fmt.Sprintf("%d:%d", info.Size(), info.ModTime().UnixNano()),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox %s: %w", dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return utils.NaturalLess(files[i].rel, files[j].rel) })
	return files, nil
}
