package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/manuscripts/internal/audit"
	"github.com/mrlokans/manuscripts/internal/config"
	"github.com/mrlokans/manuscripts/internal/database"
	auditRepo "github.com/mrlokans/manuscripts/internal/database/audit"
	"github.com/mrlokans/manuscripts/internal/database/publications"
	"github.com/mrlokans/manuscripts/internal/database/settings"
	"github.com/mrlokans/manuscripts/internal/database/sync"
	"github.com/mrlokans/manuscripts/internal/entities"
	http_controllers "github.com/mrlokans/manuscripts/internal/http"
	"github.com/mrlokans/manuscripts/internal/locks"
	"github.com/mrlokans/manuscripts/internal/scheduler"
	"github.com/mrlokans/manuscripts/internal/services"
	"github.com/mrlokans/manuscripts/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the server so queued imports can finish.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// newLocker picks Redis-backed locks when a URL is configured.
func newLocker(cfg config.Locks) (locks.Locker, func()) {
	if cfg.RedisURL == "" {
		log.Printf("Import locks: in-process")
		return locks.NewMemoryLocker(), func() {}
	}

	client, err := locks.NewRedisClient(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis for import locks: %v", err)
	}
	log.Printf("Import locks: redis")
	return locks.NewRedisLocker(client, cfg.TTL), func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing redis client: %v", err)
		}
	}
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Manuscripts v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	defaultLevel, err := entities.ParseAccessLevel(cfg.Import.DefaultAccessLevel)
	if err != nil {
		log.Fatalf("Invalid IMPORT_DEFAULT_ACCESS_LEVEL: %v", err)
	}

	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	defer auditService.Flush()

	locker, closeLocker := newLocker(cfg.Locks)
	defer closeLocker()

	pubRepo := publications.NewRepository(db.DB)
	importService := services.NewImportService(pubRepo, locker)
	importService.SetAuditor(auditService)
	importService.SetArchiver(audit.NewAuditor(cfg.Audit.Dir))
	if cfg.Locks.Wait > 0 {
		importService.LockTimeout = cfg.Locks.Wait
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var housekeeping *scheduler.Housekeeping
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewImportManuscriptQueue(importService),
			tasks.NewCleanupAuditEventsQueue(auditService),
			tasks.NewCleanupUploadsQueue(),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		taskClient.Start(taskCtx)

		housekeeping = scheduler.NewHousekeeping(cfg.Tasks.HousekeepingSchedule, taskClient,
			tasks.CleanupAuditEventsTask{RetentionDays: cfg.Audit.RetentionDays},
			tasks.CleanupUploadsTask{Dir: cfg.Import.UploadDir},
		)
		if err := housekeeping.Start(taskCtx); err != nil {
			log.Printf("WARNING: Housekeeping not scheduled: %v", err)
		}
	}

	settingsRepo := settings.NewRepository(db.DB)
	inboxProgress := sync.NewRepository(db.DB, entities.SyncTypeInbox)
	inbox := scheduler.NewInboxScheduler(scheduler.InboxConfig{
		Enabled:     cfg.Inbox.Enabled,
		Dir:         cfg.Inbox.Dir,
		Schedule:    cfg.Inbox.Schedule,
		Replace:     cfg.Inbox.Replace,
		Publish:     cfg.Import.DefaultPublish,
		AccessLevel: defaultLevel,
	}, importService, settingsRepo, inboxProgress, auditService)

	inboxCtx, inboxCancel := context.WithCancel(context.Background())
	if err := inbox.Start(inboxCtx); err != nil {
		log.Printf("WARNING: Inbox watcher not started: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Importer:     importService,
		Publications: pubRepo,
		Database:     db,
		History:      auditService,
		Settings:     settingsRepo,
		Defaults: http_controllers.ImportDefaults{
			AccessLevel: defaultLevel,
			Publish:     cfg.Import.DefaultPublish,
			Replace:     cfg.Import.DefaultReplace,
		},
		UploadDir:      cfg.Import.UploadDir,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
		Version:        version,
	}
	if taskClient != nil {
		routerCfg.Tasks = taskClient
	}
	if cfg.Inbox.Enabled {
		routerCfg.Inbox = inbox
		routerCfg.InboxProgress = inboxProgress
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		inboxCancel()
		inbox.Stop()
		if housekeeping != nil {
			housekeeping.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
