package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/manuscripts/internal/database/audit"
	"github.com/mrlokans/manuscripts/internal/entities"
)

// ImportHistory reads past import runs from the audit log.
type ImportHistory interface {
	GetEvents(filter audit.EventFilter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

type ImportHistoryController struct {
	history ImportHistory
}

func NewImportHistoryController(history ImportHistory) *ImportHistoryController {
	return &ImportHistoryController{history: history}
}

// List handles GET /api/imports?status=failed&publication_id=3&limit=20&offset=0
func (hc *ImportHistoryController) List(c *gin.Context) {
	limit, offset := parsePagination(c, 20, 100)

	filter := audit.EventFilter{EventType: entities.AuditEventImport}
	switch status := entities.AuditStatus(c.Query("status")); status {
	case "":
	case entities.AuditStatusSuccess, entities.AuditStatusFailed:
		filter.Status = status
	default:
		respondBadRequest(c, "invalid status")
		return
	}
	if raw := c.Query("publication_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			respondBadRequest(c, "invalid publication_id")
			return
		}
		filter.PublicationID = uint(id)
	}

	events, total, err := hc.history.GetEvents(filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list imports")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
