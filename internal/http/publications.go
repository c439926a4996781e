package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/manuscripts/internal/database/publications"
	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/importers"
)

// PublicationReader provides read-only access to imported publications.
type PublicationReader interface {
	ListPublications(ctx context.Context) ([]publications.PublicationSummary, error)
	GetPublicationBySlug(ctx context.Context, slug string) (*entities.Publication, error)
	ListChapters(ctx context.Context, publicationID uint) ([]entities.Chapter, error)
}

type PublicationsController struct {
	reader PublicationReader
}

func NewPublicationsController(reader PublicationReader) *PublicationsController {
	return &PublicationsController{reader: reader}
}

// List handles GET /api/publications
func (pc *PublicationsController) List(c *gin.Context) {
	list, err := pc.reader.ListPublications(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list publications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"publications": list, "total": len(list)})
}

// Get handles GET /api/publications/:slug
func (pc *PublicationsController) Get(c *gin.Context) {
	pub, ok := pc.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, pub)
}

// Chapters handles GET /api/publications/:slug/chapters. Bodies are left
// out unless body=true is passed.
func (pc *PublicationsController) Chapters(c *gin.Context) {
	pub, ok := pc.lookup(c)
	if !ok {
		return
	}

	chapters, err := pc.reader.ListChapters(c.Request.Context(), pub.ID)
	if err != nil {
		respondInternalError(c, err, "list chapters")
		return
	}
	if c.Query("body") != "true" {
		for i := range chapters {
			chapters[i].Body = ""
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"publication": pub.Slug,
		"chapters":    chapters,
		"total":       len(chapters),
	})
}

func (pc *PublicationsController) lookup(c *gin.Context) (*entities.Publication, bool) {
	pub, err := pc.reader.GetPublicationBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, importers.ErrPublicationNotFound) {
		respondNotFound(c, "publication")
		return nil, false
	}
	if err != nil {
		respondInternalError(c, err, "get publication")
		return nil, false
	}
	return pub, true
}
