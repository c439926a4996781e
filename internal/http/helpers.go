package http

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error body for every API endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // e.g. the parse error kind and file
}

// PaginatedResponse wraps a page of results.
type PaginatedResponse struct {
	Data    any   `json:"data"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: "bad_request"})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondInternalError logs err and hides it from the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("[HTTP] Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal"})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

// parseBoolForm reads a boolean form field, falling back to def when absent.
func parseBoolForm(c *gin.Context, name string, def bool) (bool, bool) {
	raw, ok := c.GetPostForm(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return false, false
	}
	return v, true
}

// parsePagination reads limit and offset query parameters.
func parsePagination(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err = strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
