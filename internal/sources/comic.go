package sources

import (
	"context"
	"fmt"
	"log/slog"

	"pixiu/internal/logging"
	"pixiu/internal/models"
)

// ChapterStore records which chapters have been seen per comic.
// Implemented by services.ComicService.
type ChapterStore interface {
	Seen(ctx context.Context, comicID string) (bool, error)
	RecordChapters(ctx context.Context, chapters []models.Chapter) ([]models.Chapter, error)
}

// WatchedComic is one watch-list entry.
type WatchedComic struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ComicSync walks the watch list, lists each comic's chapters through the
// scraping collaborator, and records the ones not seen before. It is the
// same fetch → dedup → persist loop as the other sources, except the
// natural key is the chapter name rather than a numeric cursor.
type ComicSync struct {
	lister ChapterLister
	store  ChapterStore
	watch  func() []WatchedComic
	logger *slog.Logger
}

// NewComicSync creates a comic sync. watch is called on each cycle so a
// hot-reloaded watch list takes effect without restart.
func NewComicSync(lister ChapterLister, store ChapterStore, watch func() []WatchedComic) *ComicSync {
	return &ComicSync{
		lister: lister,
		store:  store,
		watch:  watch,
		logger: logging.WithSource("comics"),
	}
}

// Cycle fetches every watched comic's listing and returns the chapters
// that are new since the last cycle. A comic never seen before is
// bootstrapped: its listing is recorded but nothing is reported as new.
// One comic failing does not abort the others.
func (s *ComicSync) Cycle(ctx context.Context) ([]models.Chapter, error) {
	var fresh []models.Chapter
	var firstErr error

	for _, comic := range s.watch() {
		newChapters, err := s.syncComic(ctx, comic)
		if err != nil {
			s.logger.Error("comic sync failed", "comic", comic.Name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fresh = append(fresh, newChapters...)
	}

	return fresh, firstErr
}

func (s *ComicSync) syncComic(ctx context.Context, comic WatchedComic) ([]models.Chapter, error) {
	refs, err := s.lister.Chapters(ctx, comic.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters for %s: %w", comic.ID, err)
	}
	if len(refs) == 0 {
		return nil, nil
	}

	seen, err := s.store.Seen(ctx, comic.ID)
	if err != nil {
		return nil, err
	}

	chapters := make([]models.Chapter, 0, len(refs))
	for _, ref := range refs {
		chapters = append(chapters, models.Chapter{
			ComicID: comic.ID,
			Name:    comic.Name,
			Chapter: ref.Chapter,
			Link:    ref.Link,
		})
	}

	fresh, err := s.store.RecordChapters(ctx, chapters)
	if err != nil {
		return nil, err
	}

	if !seen {
		// First observation of this comic: state recorded, nothing to report.
		return nil, nil
	}
	return fresh, nil
}
