package http

import (
	"github.com/mrlokans/manuscripts/internal/database"
	"github.com/mrlokans/manuscripts/internal/entities"
)

// ImportDefaults are applied when an upload leaves a field unset.
type ImportDefaults struct {
	AccessLevel entities.AccessLevel
	Publish     bool
	Replace     bool
}

// RouterConfig carries the router's dependencies. Optional ones may be nil;
// their routes are then not registered.
type RouterConfig struct {
	Importer     ManuscriptImporter
	Publications PublicationReader
	Database     *database.Database

	History       ImportHistory
	Tasks         TaskQueue
	Inbox         InboxTrigger
	InboxProgress ProgressReader
	Settings      SettingsReader

	Defaults       ImportDefaults
	UploadDir      string
	MaxUploadBytes int64

	Version string
}
