package services

import "github.com/mrlokans/manuscripts/internal/importers"

// ImportAuditor records import outcomes as audit events.
// Use this interface when you only need to report what happened.
type ImportAuditor interface {
	LogImport(userID uint, source, format string, result importers.ImportResult)
	LogParseFailure(userID uint, source string, err error)
}

// ResultArchiver keeps a copy of each import result outside the database.
type ResultArchiver interface {
	SaveImportResult(source string, result importers.ImportResult) (string, error)
}
