package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/manuscripts/internal/importers"
)

// Auditor writes JSON snapshots of import results to a directory.
// An empty AuditDir disables snapshots.
type Auditor struct {
	AuditDir string
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// ImportSnapshot is the on-disk record of one import run.
type ImportSnapshot struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	CreatedAt time.Time              `json:"created_at"`
	Result    importers.ImportResult `json:"result"`
}

// SaveImportResult snapshots an import result. It returns the file name, or
// an empty string when snapshots are disabled.
func (a *Auditor) SaveImportResult(source string, result importers.ImportResult) (string, error) {
	if a == nil || a.AuditDir == "" {
		return "", nil
	}
	return a.saveJSON(uuid.New(), func(id uuid.UUID) any {
		return ImportSnapshot{
			ID:        id.String(),
			Source:    source,
			CreatedAt: time.Now().UTC(),
			Result:    result,
		}
	})
}

// SaveJSON saves the provided data as JSON to a file with a UUID4 filename.
func (a *Auditor) SaveJSON(data any) (string, error) {
	return a.saveJSON(uuid.New(), func(uuid.UUID) any { return data })
}

func (a *Auditor) saveJSON(id uuid.UUID, build func(uuid.UUID) any) (string, error) {
	if err := os.MkdirAll(a.AuditDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}

	filename := id.String() + ".json"
	path := filepath.Join(a.AuditDir, filename)

	jsonData, err := json.MarshalIndent(build(id), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	log.Printf("[AUDIT] Saved snapshot %s", path)
	return filename, nil
}
