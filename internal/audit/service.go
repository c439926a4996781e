package audit

import (
	"fmt"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/manuscripts/internal/database/audit"
	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/importers"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("[AUDIT] Failed to log audit event: %v", err)
		}
	}()
}

// Flush waits for events logged with LogAsync to be written.
func (s *Service) Flush() {
	s.pending.Wait()
}

// LogImport records the outcome of an import run. source names the file or
// channel the manuscript came from (e.g. "cli", "http", "inbox").
func (s *Service) LogImport(userID uint, source, format string, result importers.ImportResult) {
	action := "manuscript_import"
	if format != "" {
		action = format + "_import"
	}

	event := &entities.AuditEvent{
		UserID:          userID,
		EventType:       entities.AuditEventImport,
		Action:          action,
		Description:     truncate(describeImport(source, result), 500),
		Source:          truncate(source, 255),
		PublicationSlug: result.PublicationSlug,
		Created:         len(result.ChaptersCreated),
		Updated:         len(result.ChaptersUpdated),
		Skipped:         len(result.ChaptersSkipped),
		Warnings:        len(result.Errors),
		DryRun:          result.DryRun,
		Status:          entities.AuditStatusSuccess,
	}
	if result.PublicationID != 0 {
		id := result.PublicationID
		event.PublicationID = &id
	}

	if !result.Success {
		event.Status = entities.AuditStatusFailed
		if result.Cause != nil {
			event.ErrorMsg = truncate(result.Cause.Error(), 500)
		}
	}

	s.LogAsync(event)
}

// LogParseFailure records an import that never reached the importer.
func (s *Service) LogParseFailure(userID uint, source string, err error) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventImport,
		Action:      "manuscript_parse",
		Description: truncate("Could not parse "+source, 500),
		Source:      truncate(source, 255),
		Status:      entities.AuditStatusFailed,
		ErrorMsg:    truncate(err.Error(), 500),
	})
}

// LogSync records an inbox scan.
func (s *Service) LogSync(userID uint, action, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventSync,
		Action:      action,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(filter audit.EventFilter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func describeImport(source string, result importers.ImportResult) string {
	target := result.PublicationSlug
	if target == "" {
		target = result.PublicationRef
	}
	if !result.Success {
		return fmt.Sprintf("Import of %s failed", source)
	}
	return fmt.Sprintf("Imported %s into %s: %d created, %d updated, %d skipped",
		source, target, len(result.ChaptersCreated), len(result.ChaptersUpdated), len(result.ChaptersSkipped))
}

// truncate shortens a string to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
