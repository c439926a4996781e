package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/manuscripts/internal/audit"
	auditRepo "github.com/mrlokans/manuscripts/internal/database/audit"
	"github.com/mrlokans/manuscripts/internal/database/publications"
	"github.com/mrlokans/manuscripts/internal/database/users"
	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/importers"
	"github.com/mrlokans/manuscripts/internal/locks"
	"github.com/mrlokans/manuscripts/internal/parsers"
	"github.com/mrlokans/manuscripts/internal/services"
	"github.com/mrlokans/manuscripts/internal/tasks"
)

const threeChapterBook = `# The Lighthouse

# Chapter 1: Arrival

The keeper arrived on a grey morning.

# Chapter 2: Storm

By nightfall the sea had turned.

# Chapter 3: Morning

The lamp was still burning when the boats came.
`

type stubQueue struct {
	enqueued []backlite.Task
	status   backlite.TaskStatus
	err      error
}

func (s *stubQueue) Enqueue(ctx context.Context, task backlite.Task) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.enqueued = append(s.enqueued, task)
	return "task-1", nil
}

func (s *stubQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return s.status, s.err
}

type stubImporter struct {
	result importers.ImportResult
	err    error
	cmd    services.ImportCommand
}

func (s *stubImporter) ImportBytes(ctx context.Context, data []byte, cmd services.ImportCommand) (importers.ImportResult, error) {
	s.cmd = cmd
	return s.result, s.err
}

func (s *stubImporter) Parse(data []byte, filename string, format parsers.Format) (*parsers.ParsedBook, error) {
	return nil, s.err
}

type httpFixture struct {
	router   *gin.Engine
	repo     *publications.Repository
	queue    *stubQueue
	auditSvc *audit.Service
}

func setupImportRouter(t *testing.T) *httpFixture {
	t.Helper()
	db := setupTestDatabase(t)

	_, err := users.NewRepository(db.DB).CreateAdmin("admin", "")
	require.NoError(t, err)

	repo := publications.NewRepository(db.DB)
	auditSvc := audit.NewService(auditRepo.NewRepository(db.DB))
	service := services.NewImportService(repo, locks.NewMemoryLocker())
	service.SetAuditor(auditSvc)

	queue := &stubQueue{status: backlite.TaskStatusPending}
	router := NewRouter(RouterConfig{
		Importer:       service,
		Publications:   repo,
		Database:       db,
		History:        auditSvc,
		Tasks:          queue,
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 1 << 20,
		Version:        "test",
	})

	return &httpFixture{router: router, repo: repo, queue: queue, auditSvc: auditSvc}
}

func uploadRequest(t *testing.T, path, filename, body string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("manuscript", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(body))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImportController_Import(t *testing.T) {
	fx := setupImportRouter(t)

	w := serve(fx.router, uploadRequest(t, "/api/import", "lighthouse.md", threeChapterBook, map[string]string{
		"publish":      "true",
		"access_level": "member",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result importers.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Len(t, result.ChaptersCreated, 3)
	assert.Equal(t, "the-lighthouse", result.PublicationSlug)

	pub, err := fx.repo.GetPublicationBySlug(context.Background(), "the-lighthouse")
	require.NoError(t, err)
	chapters, err := fx.repo.ListChapters(context.Background(), pub.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	assert.True(t, chapters[0].Published)
	assert.Equal(t, entities.AccessLevelMember, chapters[0].AccessLevel)

	t.Run("re-import reports skipped chapters", func(t *testing.T) {
		w := serve(fx.router, uploadRequest(t, "/api/import", "lighthouse.md", threeChapterBook, nil))
		require.Equal(t, http.StatusOK, w.Code)

		var again importers.ImportResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
		assert.Empty(t, again.ChaptersCreated)
		assert.Len(t, again.ChaptersSkipped, 3)
	})

	t.Run("history lists the import", func(t *testing.T) {
		fx.auditSvc.Flush()
		req, _ := http.NewRequest(http.MethodGet, "/api/imports", nil)
		w := serve(fx.router, req)
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Data  []entities.AuditEvent `json:"data"`
			Total int64                 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.EqualValues(t, 2, page.Total)

		var created, skipped int
		for _, e := range page.Data {
			created += e.Created
			skipped += e.Skipped
			assert.Equal(t, "the-lighthouse", e.PublicationSlug)
		}
		assert.Equal(t, 3, created)
		assert.Equal(t, 3, skipped)

		req, _ = http.NewRequest(http.MethodGet, "/api/imports?publication_id=abc", nil)
		assert.Equal(t, http.StatusBadRequest, serve(fx.router, req).Code)
	})
}

func TestImportController_Errors(t *testing.T) {
	fx := setupImportRouter(t)

	tests := []struct {
		name     string
		filename string
		body     string
		fields   map[string]string
		status   int
		code     string
	}{
		{name: "missing file", status: http.StatusBadRequest, code: "bad_request"},
		{name: "empty manuscript", filename: "empty.md", body: "  \n", status: http.StatusUnprocessableEntity, code: "parse_error"},
		{name: "unknown extension", filename: "book.docx", body: "text", status: http.StatusUnprocessableEntity, code: "parse_error"},
		{name: "unknown format hint", filename: "book.md", body: threeChapterBook, fields: map[string]string{"format": "rtf"}, status: http.StatusUnprocessableEntity, code: "parse_error"},
		{name: "bad access level", filename: "book.md", body: threeChapterBook, fields: map[string]string{"access_level": "vip"}, status: http.StatusBadRequest, code: "bad_request"},
		{name: "bad boolean", filename: "book.md", body: threeChapterBook, fields: map[string]string{"publish": "perhaps"}, status: http.StatusBadRequest, code: "bad_request"},
		{name: "unknown publication", filename: "book.md", body: threeChapterBook, fields: map[string]string{"publication_id": "99"}, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(fx.router, uploadRequest(t, "/api/import", tt.filename, tt.body, tt.fields))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.code, resp.Code)
			}
		})
	}
}

func TestImportController_LockTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	importer := &stubImporter{err: locks.ErrLockTimeout}
	controller := NewImportController(importer, nil, ImportDefaults{})

	router := gin.New()
	router.POST("/api/import", controller.Import)

	w := serve(router, uploadRequest(t, "/api/import", "book.md", threeChapterBook, nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestImportController_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	importer := &stubImporter{result: importers.ImportResult{Success: true}}
	controller := NewImportController(importer, nil, ImportDefaults{AccessLevel: entities.AccessLevelPatron, Publish: true, Replace: true})

	router := gin.New()
	router.POST("/api/import", controller.Import)

	w := serve(router, uploadRequest(t, "/api/import", "book.md", threeChapterBook, map[string]string{"dry_run": "1"}))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, entities.AccessLevelPatron, importer.cmd.AccessLevel)
	assert.True(t, importer.cmd.Publish)
	assert.True(t, importer.cmd.Replace)
	assert.True(t, importer.cmd.DryRun)
	assert.Equal(t, "http", importer.cmd.Source)
	assert.Equal(t, "book.md", importer.cmd.Filename)
}

func TestImportController_Async(t *testing.T) {
	fx := setupImportRouter(t)

	w := serve(fx.router, uploadRequest(t, "/api/import", "lighthouse.md", threeChapterBook, map[string]string{
		"async": "true",
		"slug":  "lighthouse",
	}))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp AsyncImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "task-1", resp.TaskID)

	require.Len(t, fx.queue.enqueued, 1)
	task, ok := fx.queue.enqueued[0].(tasks.ImportManuscriptTask)
	require.True(t, ok)
	assert.Equal(t, "lighthouse.md", task.Filename)
	assert.Equal(t, "lighthouse", task.Slug)
	assert.True(t, task.RemoveAfter)

	stored, err := os.ReadFile(task.Path)
	require.NoError(t, err)
	assert.Equal(t, threeChapterBook, string(stored))

	t.Run("task status", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/tasks/task-1", nil)
		w := serve(fx.router, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"pending"`)

		fx.queue.status = backlite.TaskStatusSuccess
		w = serve(fx.router, req)
		var status TaskStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.Equal(t, "success", status.Status)
		assert.True(t, status.Done)
		assert.Contains(t, status.Message, "/api/imports")

		fx.queue.status = backlite.TaskStatusNotFound
		w = serve(fx.router, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
		fx.queue.status = backlite.TaskStatusPending
	})

	t.Run("async unavailable without queue", func(t *testing.T) {
		controller := NewImportController(&stubImporter{}, nil, ImportDefaults{})
		router := gin.New()
		router.POST("/api/import", controller.Import)

		w := serve(router, uploadRequest(t, "/api/import", "book.md", threeChapterBook, map[string]string{"async": "true"}))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestImportController_Preview(t *testing.T) {
	fx := setupImportRouter(t)

	w := serve(fx.router, uploadRequest(t, "/api/parse", "lighthouse.md", threeChapterBook, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var preview ParsePreview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &preview))
	assert.Equal(t, "The Lighthouse", preview.Title)
	require.Len(t, preview.Chapters, 3)
	assert.Equal(t, "Storm", preview.Chapters[1].Title)

	list, err := fx.repo.ListPublications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "preview never writes")
}

func TestImportController_TooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	controller := NewImportController(&stubImporter{}, nil, ImportDefaults{})
	controller.MaxUploadBytes = 10

	router := gin.New()
	router.POST("/api/import", controller.Import)

	w := serve(router, uploadRequest(t, "/api/import", "book.md", threeChapterBook, nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestImportStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, importStatusCode(importers.ImportResult{Success: true}))
	assert.Equal(t, http.StatusConflict, importStatusCode(importers.ImportResult{Cause: importers.ErrSlugConflict}))
	assert.Equal(t, http.StatusConflict, importStatusCode(importers.ImportResult{Cause: importers.ErrNoOwner}))
	assert.Equal(t, http.StatusNotFound, importStatusCode(importers.ImportResult{Cause: importers.ErrPublicationNotFound}))
	assert.Equal(t, http.StatusInternalServerError, importStatusCode(importers.ImportResult{Cause: assert.AnError}))
}
