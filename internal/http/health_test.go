package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/manuscripts/internal/database"
)

func setupTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabaseWithLogLevel(filepath.Join(t.TempDir(), "http.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func getHealth(t *testing.T, controller *HealthController) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("healthy with counts", func(t *testing.T) {
		db := setupTestDatabase(t)

		w, response := getHealth(t, NewHealthController(db, "1.0.0"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Equal(t, "0", response.Checks["publications"])
		assert.Equal(t, "0", response.Checks["chapters"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("background components", func(t *testing.T) {
		db := setupTestDatabase(t)
		next := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		controller := NewHealthController(db, "1.0.0")
		_, response := getHealth(t, controller)
		assert.Equal(t, "disabled", response.Checks["tasks"])
		assert.NotContains(t, response.Checks, "inbox")

		controller.Tasks = &stubQueue{}
		controller.Inbox = &stubInbox{next: &next}
		_, response = getHealth(t, controller)
		assert.Equal(t, "ok", response.Checks["tasks"])
		assert.Equal(t, "next scan 2024-05-01T12:00:00Z", response.Checks["inbox"])

		controller.Inbox = &stubInbox{}
		_, response = getHealth(t, controller)
		assert.Equal(t, "idle", response.Checks["inbox"])
	})

	t.Run("no database configured", func(t *testing.T) {
		gin.SetMode(gin.TestMode)

		w, response := getHealth(t, NewHealthController(nil, ""))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "not configured", response.Checks["database"])
	})

	t.Run("closed database is unhealthy", func(t *testing.T) {
		db := setupTestDatabase(t)
		require.NoError(t, db.Close())

		w, response := getHealth(t, NewHealthController(db, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})
}
