// Package importers reconciles a parsed manuscript with the chapters already
// stored for its publication.
//
// # Flow
//
//	ParsedBook + ImportRequest → Importer → Store (lookup, create, apply) → ImportResult
//
// The Importer never talks to a database directly. Everything it needs from
// storage goes through the Store interface:
//
//   - FindPublication: resolve an existing publication by id or slug
//   - ListChapters: snapshot of the chapters already stored
//   - CreatePublication: allocate a new publication for a fresh import
//   - ApplyChapterChanges: commit creates and updates in one call
//   - FindOwner: the admin account that owns imported content
//
// # Reconciliation
//
// Parsed chapters are matched to stored chapters by number. A missing number
// is created; an existing number is updated when ReplaceExisting is set and
// skipped otherwise. Stored chapters that are absent from the manuscript are
// never deleted. Access level and publish flag apply to created chapters only.
//
// # Failures
//
// Import never returns a Go error. Precondition and storage failures produce
// a result with Success=false, Status=failed and the cause in Errors. Parser
// warnings and reconciliation notes are also reported in Errors on successful
// runs, so callers must display them.
//
// # Example Usage
//
//	importer := importers.NewImporter(store)
//	result := importer.Import(ctx, importers.ImportRequest{
//		Book:        book,
//		Publish:     true,
//		AccessLevel: entities.AccessLevelFree,
//	})
package importers
