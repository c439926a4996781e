package importers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mrlokans/manuscripts/internal/entities"
	"github.com/mrlokans/manuscripts/internal/parsers"
	"github.com/mrlokans/manuscripts/internal/utils"
)

// maxSlugAttempts bounds the "-2", "-3", ... suffix search.
const maxSlugAttempts = 100

// Importer reconciles parsed books against stored publications.
// It keeps no state between calls.
type Importer struct {
	store Store
}

func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// target is the publication an import run writes into.
type target struct {
	pub   *entities.Publication
	slug  string
	fresh bool
}

// Import runs one import. It never returns an error: failures are reported
// on the result with Success=false.
func (i *Importer) Import(ctx context.Context, req ImportRequest) ImportResult {
	result := newResult(req.DryRun)

	if req.Book == nil || len(req.Book.Chapters) == 0 {
		return result.fail(ErrEmptyBook)
	}
	result.Title = req.Book.Title
	result.Errors = append(result.Errors, req.Book.Warnings...)

	level := req.AccessLevel
	if level == "" {
		level = entities.AccessLevelFree
	}
	if !level.Valid() {
		return result.fail(fmt.Errorf("%w: %q", ErrInvalidAccessLevel, level))
	}

	result.Status = StatusReconciling

	owner, err := i.store.FindOwner(ctx)
	if err != nil {
		if errors.Is(err, ErrNoOwner) {
			return result.fail(ErrNoOwner)
		}
		return result.fail(fmt.Errorf("failed to resolve publication owner: %w", err))
	}
	result.OwnerID = owner.ID

	tgt, err := i.resolveTarget(ctx, req, &result)
	if err != nil {
		return result.fail(err)
	}
	result.FreshImport = tgt.fresh
	result.PublicationSlug = tgt.slug

	var existing []entities.Chapter
	if !tgt.fresh {
		existing, err = i.store.ListChapters(ctx, tgt.pub.ID)
		if err != nil {
			return result.fail(fmt.Errorf("failed to list chapters of %q: %w", tgt.slug, err))
		}
	}

	creates, updates := reconcile(req, level, existing, &result)

	if req.DryRun {
		if tgt.fresh {
			result.PublicationRef = "pending-" + uuid.New().String()
		} else {
			result.setPublication(tgt.pub)
		}
		return result.complete()
	}

	if tgt.fresh {
		pub, err := i.store.CreatePublication(ctx, NewPublication{
			OwnerID:      owner.ID,
			Slug:         tgt.slug,
			Title:        publicationTitle(req.Book, tgt.slug),
			Author:       req.Book.Author,
			Description:  req.Book.Description,
			Kind:         req.Book.Kind,
			SourceFormat: req.Book.Format.String(),
		})
		if err != nil {
			return result.fail(fmt.Errorf("failed to create publication %q: %w", tgt.slug, err))
		}
		tgt.pub = pub
	}
	result.setPublication(tgt.pub)

	if len(creates) > 0 || len(updates) > 0 {
		if err := i.store.ApplyChapterChanges(ctx, tgt.pub.ID, creates, updates); err != nil {
			result.ChaptersCreated = []string{}
			result.ChaptersUpdated = []string{}
			if tgt.fresh {
				result.warnf("publication %q (id %d) was created but has no chapters; re-run the import to fill it", tgt.slug, tgt.pub.ID)
			}
			return result.fail(fmt.Errorf("failed to save chapters of %q: %w", tgt.slug, err))
		}
	}

	return result.complete()
}

// resolveTarget decides between re-import and fresh import.
//
// An explicit publication id must exist. An explicit slug targets whatever
// publication already holds it. A slug derived from the title targets an
// existing publication only when its title matches the book; otherwise the
// first free "-N" suffix is used.
func (i *Importer) resolveTarget(ctx context.Context, req ImportRequest, result *ImportResult) (target, error) {
	requested := strings.TrimSpace(req.TargetSlug)
	slug := utils.Slugify(requested)
	if requested != "" && slug != requested {
		result.warnf("slug %q normalized to %q", requested, slug)
	}
	if requested != "" && slug == "" {
		return target{}, fmt.Errorf("%w: %q does not contain any letters or digits", ErrSlugConflict, requested)
	}

	if req.ExistingPublicationID != 0 {
		pub, err := i.find(ctx, PublicationRef{ID: req.ExistingPublicationID})
		if err != nil {
			return target{}, err
		}
		if pub == nil {
			return target{}, fmt.Errorf("%w: id %d", ErrPublicationNotFound, req.ExistingPublicationID)
		}
		if slug != "" && slug != pub.Slug {
			other, err := i.find(ctx, PublicationRef{Slug: slug})
			if err != nil {
				return target{}, err
			}
			if other != nil && other.ID != pub.ID {
				return target{}, fmt.Errorf("%w: %q is used by publication %d, not %d", ErrSlugConflict, slug, other.ID, pub.ID)
			}
			result.warnf("publication %d keeps its slug %q; requested %q ignored", pub.ID, pub.Slug, slug)
		}
		return target{pub: pub, slug: pub.Slug}, nil
	}

	if slug != "" {
		pub, err := i.find(ctx, PublicationRef{Slug: slug})
		if err != nil {
			return target{}, err
		}
		if pub != nil {
			return target{pub: pub, slug: slug}, nil
		}
		return target{slug: slug, fresh: true}, nil
	}

	base := utils.Slugify(req.Book.Title)
	if base == "" {
		base = utils.Slugify(utils.TitleFromFilename(req.Book.SourceName))
	}
	if base == "" {
		base = "untitled"
	}

	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := utils.SuffixSlug(base, n)
		pub, err := i.find(ctx, PublicationRef{Slug: candidate})
		if err != nil {
			return target{}, err
		}
		if pub == nil {
			if n > 1 {
				result.warnf("slug %q is used by a different publication; using %q", base, candidate)
			}
			return target{slug: candidate, fresh: true}, nil
		}
		if sameTitle(pub.Title, req.Book.Title) {
			return target{pub: pub, slug: candidate}, nil
		}
	}
	return target{}, fmt.Errorf("%w: no free slug for %q after %d attempts", ErrSlugConflict, base, maxSlugAttempts)
}

// find wraps Store.FindPublication, mapping "not found" to a nil publication.
func (i *Importer) find(ctx context.Context, ref PublicationRef) (*entities.Publication, error) {
	pub, err := i.store.FindPublication(ctx, ref)
	if errors.Is(err, ErrPublicationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up publication: %w", err)
	}
	return pub, nil
}

// reconcile matches parsed chapters to stored ones by number and records
// the outcome of each on the result.
func reconcile(req ImportRequest, level entities.AccessLevel, existing []entities.Chapter, result *ImportResult) ([]ChapterCreate, []ChapterUpdate) {
	byNumber := make(map[int]entities.Chapter, len(existing))
	for _, ch := range existing {
		byNumber[ch.Number] = ch
	}

	var creates []ChapterCreate
	var updates []ChapterUpdate
	for _, ch := range req.Book.Chapters {
		action := ChapterAction{Number: ch.Number, Title: ch.Title, WordCount: ch.WordCount}

		stored, found := byNumber[ch.Number]
		switch {
		case !found:
			action.Outcome = OutcomeCreate
			creates = append(creates, ChapterCreate{
				Number:      ch.Number,
				Title:       ch.Title,
				Body:        ch.Body,
				WordCount:   ch.WordCount,
				AccessLevel: level,
				Published:   req.Publish,
			})
			result.ChaptersCreated = append(result.ChaptersCreated, ch.Title)
		case req.ReplaceExisting:
			action.Outcome = OutcomeUpdate
			updates = append(updates, ChapterUpdate{
				ID:        stored.ID,
				Number:    ch.Number,
				Title:     ch.Title,
				Body:      ch.Body,
				WordCount: ch.WordCount,
			})
			result.ChaptersUpdated = append(result.ChaptersUpdated, ch.Title)
		default:
			action.Outcome = OutcomeSkip
			result.ChaptersSkipped = append(result.ChaptersSkipped, ch.Title)
		}
		result.Actions = append(result.Actions, action)
	}

	if len(creates) == 0 && len(updates) == 0 {
		result.warnf("nothing to import: all %d chapters already exist and replace is off", len(result.ChaptersSkipped))
	}
	return creates, updates
}

func publicationTitle(book *parsers.ParsedBook, slug string) string {
	if t := strings.TrimSpace(book.Title); t != "" {
		return t
	}
	return slug
}

func sameTitle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (r *ImportResult) setPublication(pub *entities.Publication) {
	r.PublicationID = pub.ID
	r.PublicationRef = strconv.FormatUint(uint64(pub.ID), 10)
	r.PublicationSlug = pub.Slug
}

func (r *ImportResult) warnf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r ImportResult) fail(err error) ImportResult {
	r.Success = false
	r.Status = StatusFailed
	r.Cause = err
	r.Errors = append(r.Errors, err.Error())
	return r
}

func (r ImportResult) complete() ImportResult {
	r.Success = true
	r.Status = StatusCompleted
	return r
}
