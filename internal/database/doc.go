// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── publications/    # Publications and chapters (importers.Store)
//	├── users/           # Admin accounts that own imported content
//	├── audit/           # Audit event log
//	├── settings/        # Key/value settings (inbox status and fingerprints)
//	└── sync/            # Progress of background runs
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./manuscripts.db")
//
//	store := publications.NewRepository(db.DB)
//	importer := importers.NewImporter(store)
//
// # Interface Implementations
//
//   - publications.Repository: implements importers.Store and http.PublicationStore
//   - audit.Repository: used by audit.Service and the audit cleanup task
//   - settings.Repository, sync.Repository: used by scheduler.InboxScheduler
package database
