package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter wires every admin endpoint.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	health.Tasks = cfg.Tasks
	health.Inbox = cfg.Inbox
	router.GET("/health", health.Status)

	api := router.Group("/api")

	if cfg.Importer != nil {
		importController := NewImportController(cfg.Importer, cfg.Tasks, cfg.Defaults)
		importController.UploadDir = cfg.UploadDir
		importController.MaxUploadBytes = cfg.MaxUploadBytes
		api.POST("/import", importController.Import)
		api.POST("/parse", importController.Preview)
	}

	if cfg.Publications != nil {
		publications := NewPublicationsController(cfg.Publications)
		api.GET("/publications", publications.List)
		api.GET("/publications/:slug", publications.Get)
		api.GET("/publications/:slug/chapters", publications.Chapters)
	}

	if cfg.History != nil {
		history := NewImportHistoryController(cfg.History)
		api.GET("/imports", history.List)
	}

	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	if cfg.Inbox != nil {
		inbox := NewInboxController(cfg.Inbox, cfg.Settings, cfg.InboxProgress)
		api.GET("/inbox", inbox.Status)
		api.POST("/inbox/scan", inbox.Scan)
	}

	return router
}
