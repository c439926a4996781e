package importers

import "errors"

var (
	ErrNoOwner             = errors.New("no admin user available to own imported content")
	ErrSlugConflict        = errors.New("slug belongs to a different publication")
	ErrPublicationNotFound = errors.New("publication not found")
	ErrEmptyBook           = errors.New("parsed book has no chapters")
	ErrInvalidAccessLevel  = errors.New("invalid access level")
)
