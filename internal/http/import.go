package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/importers"
	"github.com/mrlokans/manuscripts/internal/locks"
	"github.com/mrlokans/manuscripts/internal/parsers"
	"github.com/mrlokans/manuscripts/internal/services"
	"github.com/mrlokans/manuscripts/internal/tasks"
)

const manuscriptField = "manuscript"

// ManuscriptImporter parses and imports uploaded manuscripts.
type ManuscriptImporter interface {
	ImportBytes(ctx context.Context, data []byte, cmd services.ImportCommand) (importers.ImportResult, error)
	Parse(data []byte, filename string, format parsers.Format) (*parsers.ParsedBook, error)
}

// TaskQueue enqueues background imports and reports on them.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// ImportController handles manuscript uploads.
type ImportController struct {
	importer ManuscriptImporter
	queue    TaskQueue
	defaults ImportDefaults

	// UploadDir stores uploads for async imports; async is refused when empty.
	UploadDir      string
	MaxUploadBytes int64
}

func NewImportController(importer ManuscriptImporter, queue TaskQueue, defaults ImportDefaults) *ImportController {
	if defaults.AccessLevel == "" {
		defaults.AccessLevel = entities.AccessLevelFree
	}
	return &ImportController{importer: importer, queue: queue, defaults: defaults}
}

// AsyncImportResponse is returned with 202 Accepted for async=true uploads.
type AsyncImportResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	Filename string `json:"filename"`
}

// Import handles POST /api/import.
//
// Form fields: manuscript (file), format, slug, publication_id, publish,
// access_level, replace_existing, dry_run, async.
func (ic *ImportController) Import(c *gin.Context) {
	header, ok := ic.uploadedFile(c)
	if !ok {
		return
	}
	cmd, ok := ic.commandFromForm(c, header.Filename)
	if !ok {
		return
	}

	async, ok := parseBoolForm(c, "async", false)
	if !ok {
		return
	}
	if async {
		ic.enqueue(c, cmd)
		return
	}

	data, err := readUpload(c)
	if err != nil {
		respondInternalError(c, err, "read upload")
		return
	}

	result, err := ic.importer.ImportBytes(c.Request.Context(), data, cmd)
	if err != nil {
		respondImportError(c, err)
		return
	}

	c.JSON(importStatusCode(result), result)
}

// ParsePreview is the response of POST /api/parse.
type ParsePreview struct {
	Title       string           `json:"title"`
	Author      string           `json:"author,omitempty"`
	Description string           `json:"description,omitempty"`
	Format      string           `json:"format"`
	TotalWords  int              `json:"total_words"`
	Chapters    []PreviewChapter `json:"chapters"`
	Warnings    []string         `json:"warnings"`
}

type PreviewChapter struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	WordCount int    `json:"word_count"`
}

// Preview handles POST /api/parse: it parses the upload and reports the
// chapters it found without importing anything.
func (ic *ImportController) Preview(c *gin.Context) {
	header, ok := ic.uploadedFile(c)
	if !ok {
		return
	}
	format, err := parsers.ParseFormat(c.PostForm("format"))
	if err != nil {
		respondImportError(c, err)
		return
	}

	data, err := readUpload(c)
	if err != nil {
		respondInternalError(c, err, "read upload")
		return
	}

	book, err := ic.importer.Parse(data, header.Filename, format)
	if err != nil {
		respondImportError(c, err)
		return
	}

	preview := ParsePreview{
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Format:      book.Format.String(),
		TotalWords:  book.TotalWords(),
		Chapters:    make([]PreviewChapter, 0, len(book.Chapters)),
		Warnings:    append([]string{}, book.Warnings...),
	}
	for _, ch := range book.Chapters {
		preview.Chapters = append(preview.Chapters, PreviewChapter{Number: ch.Number, Title: ch.Title, WordCount: ch.WordCount})
	}
	c.JSON(http.StatusOK, preview)
}

func (ic *ImportController) uploadedFile(c *gin.Context) (*uploadHeader, bool) {
	fh, err := c.FormFile(manuscriptField)
	if err != nil {
		respondBadRequest(c, "manuscript file is required")
		return nil, false
	}
	if ic.MaxUploadBytes > 0 && fh.Size > ic.MaxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "too_large",
			fmt.Sprintf("manuscript is larger than %d bytes", ic.MaxUploadBytes))
		return nil, false
	}
	return &uploadHeader{Filename: filepath.Base(fh.Filename), Size: fh.Size}, true
}

type uploadHeader struct {
	Filename string
	Size     int64
}

func (ic *ImportController) commandFromForm(c *gin.Context, filename string) (services.ImportCommand, bool) {
	cmd := services.ImportCommand{
		Filename: filename,
		Slug:     strings.TrimSpace(c.PostForm("slug")),
		Source:   "http",
	}

	format, err := parsers.ParseFormat(c.PostForm("format"))
	if err != nil {
		respondImportError(c, err)
		return cmd, false
	}
	cmd.Format = format

	if raw := strings.TrimSpace(c.PostForm("publication_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			respondBadRequest(c, "invalid publication_id")
			return cmd, false
		}
		cmd.PublicationID = uint(id)
	}

	cmd.AccessLevel = ic.defaults.AccessLevel
	if raw := c.PostForm("access_level"); strings.TrimSpace(raw) != "" {
		level, err := entities.ParseAccessLevel(raw)
		if err != nil {
			respondBadRequest(c, err.Error())
			return cmd, false
		}
		cmd.AccessLevel = level
	}

	var ok bool
	if cmd.Publish, ok = parseBoolForm(c, "publish", ic.defaults.Publish); !ok {
		return cmd, false
	}
	if cmd.Replace, ok = parseBoolForm(c, "replace_existing", ic.defaults.Replace); !ok {
		return cmd, false
	}
	if cmd.DryRun, ok = parseBoolForm(c, "dry_run", false); !ok {
		return cmd, false
	}
	return cmd, true
}

func (ic *ImportController) enqueue(c *gin.Context, cmd services.ImportCommand) {
	if ic.queue == nil || ic.UploadDir == "" {
		respondError(c, http.StatusServiceUnavailable, "async_unavailable", "background imports are not enabled")
		return
	}

	fh, err := c.FormFile(manuscriptField)
	if err != nil {
		respondBadRequest(c, "manuscript file is required")
		return
	}
	if err := os.MkdirAll(ic.UploadDir, 0o755); err != nil {
		respondInternalError(c, err, "create upload dir")
		return
	}
	stored := filepath.Join(ic.UploadDir, uuid.New().String()+strings.ToLower(filepath.Ext(cmd.Filename)))
	if err := c.SaveUploadedFile(fh, stored); err != nil {
		respondInternalError(c, err, "store upload")
		return
	}

	taskID, err := ic.queue.Enqueue(c.Request.Context(), tasks.ImportManuscriptTask{
		Path:          stored,
		Filename:      cmd.Filename,
		Format:        string(cmd.Format),
		Slug:          cmd.Slug,
		PublicationID: cmd.PublicationID,
		Publish:       cmd.Publish,
		AccessLevel:   string(cmd.AccessLevel),
		Replace:       cmd.Replace,
		DryRun:        cmd.DryRun,
		RemoveAfter:   true,
	})
	if err != nil {
		_ = os.Remove(stored)
		respondInternalError(c, err, "enqueue import")
		return
	}

	log.Printf("[HTTP] Queued import of %s as task %s", cmd.Filename, taskID)
	c.JSON(http.StatusAccepted, AsyncImportResponse{TaskID: taskID, Status: "pending", Filename: cmd.Filename})
}

func readUpload(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile(manuscriptField)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// respondImportError maps errors raised before the importer ran.
func respondImportError(c *gin.Context, err error) {
	var perr *parsers.ParseError
	switch {
	case errors.As(err, &perr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: err.Error(),
			Code:  "parse_error",
			Details: gin.H{
				"kind":   perr.Kind.Error(),
				"source": perr.Source,
				"detail": perr.Detail,
			},
		})
	case errors.Is(err, parsers.ErrUnsupportedFormat):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   err.Error(),
			Code:    "parse_error",
			Details: gin.H{"kind": parsers.ErrUnsupportedFormat.Error()},
		})
	case errors.Is(err, locks.ErrLockTimeout):
		respondError(c, http.StatusConflict, "import_in_progress", err.Error())
	default:
		respondInternalError(c, err, "import")
	}
}

// importStatusCode picks the HTTP status for a finished import run.
func importStatusCode(result importers.ImportResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch {
	case errors.Is(result.Cause, importers.ErrSlugConflict), errors.Is(result.Cause, importers.ErrNoOwner):
		return http.StatusConflict
	case errors.Is(result.Cause, importers.ErrPublicationNotFound):
		return http.StatusNotFound
	case errors.Is(result.Cause, importers.ErrInvalidAccessLevel):
		return http.StatusBadRequest
	case errors.Is(result.Cause, importers.ErrEmptyBook):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
