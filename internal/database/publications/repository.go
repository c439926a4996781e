// Package publications provides database operations for publications and
// their chapters.
//
// # Interface Implementation
//
//	var _ importers.Store = (*Repository)(nil)
//
// # Usage
//
//	repo := publications.NewRepository(db)
//	pub, err := repo.GetPublicationBySlug(ctx, "my-book")
package publications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/importers"
)

var _ importers.Store = (*Repository)(nil)

// Repository handles publication and chapter database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new publications repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// PublicationSummary is a publication with its chapter totals.
type PublicationSummary struct {
	entities.Publication
	ChapterCount int64 `json:"chapter_count"`
	WordCount    int64 `json:"word_count"`
}

// FindPublication looks a publication up by id, or by slug when ref.ID is zero.
func (r *Repository) FindPublication(ctx context.Context, ref importers.PublicationRef) (*entities.Publication, error) {
	var pub entities.Publication
	query := r.db.WithContext(ctx)

	var err error
	switch {
	case ref.ID != 0:
		err = query.First(&pub, ref.ID).Error
	case ref.Slug != "":
		err = query.Where("slug = ?", ref.Slug).First(&pub).Error
	default:
		return nil, importers.ErrPublicationNotFound
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, importers.ErrPublicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pub, nil
}

// GetPublicationBySlug retrieves a publication by slug.
func (r *Repository) GetPublicationBySlug(ctx context.Context, slug string) (*entities.Publication, error) {
	return r.FindPublication(ctx, importers.PublicationRef{Slug: slug})
}

// ListChapters returns the chapters of a publication ordered by number.
func (r *Repository) ListChapters(ctx context.Context, publicationID uint) ([]entities.Chapter, error) {
	var chapters []entities.Chapter
	err := r.db.WithContext(ctx).
		Where("publication_id = ?", publicationID).
		Order("number ASC").
		Find(&chapters).Error
	return chapters, err
}

// ApplyChapterChanges inserts and updates chapters in a single transaction.
// Updates touch only title, body and word count.
func (r *Repository) ApplyChapterChanges(ctx context.Context, publicationID uint, creates []importers.ChapterCreate, updates []importers.ChapterUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		for _, c := range creates {
			chapter := entities.Chapter{
				PublicationID: publicationID,
				Number:        c.Number,
				Title:         c.Title,
				Body:          c.Body,
				WordCount:     c.WordCount,
				AccessLevel:   c.AccessLevel,
				Published:     c.Published,
			}
			if c.Published {
				chapter.PublishedAt = &now
			}
			if err := tx.Create(&chapter).Error; err != nil {
				return fmt.Errorf("failed to create chapter %d: %w", c.Number, err)
			}
		}

		for _, u := range updates {
			result := tx.Model(&entities.Chapter{}).
				Where("id = ? AND publication_id = ?", u.ID, publicationID).
				Updates(map[string]any{
					"title":      u.Title,
					"body":       u.Body,
					"word_count": u.WordCount,
					"updated_at": now,
				})
			if result.Error != nil {
				return fmt.Errorf("failed to update chapter %d: %w", u.Number, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("failed to update chapter %d: chapter %d not found", u.Number, u.ID)
			}
		}

		if len(creates) > 0 || len(updates) > 0 {
			if err := tx.Model(&entities.Publication{}).Where("id = ?", publicationID).Update("updated_at", now).Error; err != nil {
				return fmt.Errorf("failed to touch publication: %w", err)
			}
		}
		return nil
	})
}

// CreatePublication allocates a new publication.
func (r *Repository) CreatePublication(ctx context.Context, p importers.NewPublication) (*entities.Publication, error) {
	pub := &entities.Publication{
		OwnerID:      p.OwnerID,
		Slug:         p.Slug,
		Title:        p.Title,
		Author:       p.Author,
		Description:  p.Description,
		Kind:         p.Kind,
		SourceFormat: p.SourceFormat,
	}
	if err := r.db.WithContext(ctx).Create(pub).Error; err != nil {
		return nil, err
	}
	return pub, nil
}

// FindOwner returns the oldest admin user.
func (r *Repository) FindOwner(ctx context.Context) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("is_admin = ?", true).Order("id ASC").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, importers.ErrNoOwner
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListPublications returns all publications with chapter totals, newest first.
func (r *Repository) ListPublications(ctx context.Context) ([]PublicationSummary, error) {
	var pubs []entities.Publication
	if err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&pubs).Error; err != nil {
		return nil, err
	}

	type totals struct {
		PublicationID uint
		Chapters      int64
		Words         int64
	}
	var rows []totals
	err := r.db.WithContext(ctx).Model(&entities.Chapter{}).
		Select("publication_id, COUNT(*) AS chapters, COALESCE(SUM(word_count), 0) AS words").
		Group("publication_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]totals, len(rows))
	for _, row := range rows {
		byID[row.PublicationID] = row
	}

	summaries := make([]PublicationSummary, 0, len(pubs))
	for _, p := range pubs {
		t := byID[p.ID]
		summaries = append(summaries, PublicationSummary{Publication: p, ChapterCount: t.Chapters, WordCount: t.Words})
	}
	return summaries, nil
}
