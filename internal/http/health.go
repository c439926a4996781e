package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/manuscripts/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db      *database.Database
	version string

	// Optional background components, reported but never fatal.
	Inbox InboxTrigger
	Tasks TaskQueue
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
			if pubs, chapters, err := h.db.Stats(); err == nil {
				checks["publications"] = strconv.FormatInt(pubs, 10)
				checks["chapters"] = strconv.FormatInt(chapters, 10)
			}
		}
	} else {
		checks["database"] = "not configured"
	}

	if h.Tasks != nil {
		checks["tasks"] = "ok"
	} else {
		checks["tasks"] = "disabled"
	}
	if h.Inbox != nil {
		if next := h.Inbox.GetNextRunTime(); next != nil {
			checks["inbox"] = "next scan " + next.Format(time.RFC3339)
		} else {
			checks["inbox"] = "idle"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
