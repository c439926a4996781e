package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/manuscripts/internal/entities"
)

// InboxTrigger starts inbox scans on demand.
type InboxTrigger interface {
	RunNow(ctx context.Context)
	IsRunning() bool
	GetNextRunTime() *time.Time
}

// ProgressReader returns the record of the latest inbox scan.
type ProgressReader interface {
	GetProgress() (*entities.SyncProgress, error)
}

// SettingsReader reads stored key/value settings.
type SettingsReader interface {
	GetValue(key string) (string, bool, error)
}

type InboxController struct {
	inbox    InboxTrigger
	settings SettingsReader
	progress ProgressReader
}

func NewInboxController(inbox InboxTrigger, settings SettingsReader, progress ProgressReader) *InboxController {
	return &InboxController{inbox: inbox, settings: settings, progress: progress}
}

// Status handles GET /api/inbox
func (ic *InboxController) Status(c *gin.Context) {
	resp := gin.H{
		"scheduled": ic.inbox.IsRunning(),
		"next_run":  ic.inbox.GetNextRunTime(),
	}
	if ic.settings != nil {
		for field, key := range map[string]string{
			"last_run":     entities.SettingKeyInboxLastAt,
			"last_status":  entities.SettingKeyInboxLastStatus,
			"last_message": entities.SettingKeyInboxLastMessage,
		} {
			if v, ok, err := ic.settings.GetValue(key); err == nil && ok {
				resp[field] = v
			}
		}
	}
	if ic.progress != nil {
		if p, err := ic.progress.GetProgress(); err == nil {
			resp["last_scan"] = p
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Scan handles POST /api/inbox/scan. The scan runs in the background.
func (ic *InboxController) Scan(c *gin.Context) {
	ic.inbox.RunNow(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusAccepted, gin.H{"message": "inbox scan started"})
}
