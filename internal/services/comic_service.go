package services

import (
	"context"
	"fmt"
	"strings"

	"pixiu/internal/database"
	"pixiu/internal/models"
)

// ComicService records which chapters of each tracked comic have already
// been seen. The recorded set replaces the text-file chapter bookmark of
// earlier deployments, so the state lives in the same storage as
// everything else.
type ComicService struct {
	db *database.DB
}

// NewComicService creates a new comic service
func NewComicService(db *database.DB) *ComicService {
	return &ComicService{db: db}
}

// Seen reports whether any chapter has been recorded for a comic.
// A comic with no recorded chapters is in bootstrap: its whole listing is
// recorded silently rather than announced as new.
func (s *ComicService) Seen(ctx context.Context, comicID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comic_chapters WHERE comic_id = ?", comicID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check comic state for %s: %w", comicID, err)
	}
	return count > 0, nil
}

// RecordChapters inserts the given chapters, skipping ones already
// recorded, and returns only the chapters that were actually new.
func (s *ComicService) RecordChapters(ctx context.Context, chapters []models.Chapter) ([]models.Chapter, error) {
	if len(chapters) == 0 {
		return nil, nil
	}

	existing, err := s.recordedChapters(ctx, chapters[0].ComicID)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, 0, len(chapters))
	args := make([]any, 0, len(chapters)*4)
	var fresh []models.Chapter
	for _, ch := range chapters {
		placeholders = append(placeholders, "(?, ?, ?, ?)")
		args = append(args, ch.ComicID, ch.Name, ch.Chapter, ch.Link)
		if _, ok := existing[ch.Chapter]; !ok {
			fresh = append(fresh, ch)
		}
	}

	query := s.db.InsertIgnore() + " comic_chapters (comic_id, name, chapter, link) VALUES " +
		strings.Join(placeholders, ", ")
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to record chapters: %w", err)
	}

	return fresh, nil
}

func (s *ComicService) recordedChapters(ctx context.Context, comicID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT chapter FROM comic_chapters WHERE comic_id = ?", comicID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recorded chapters for %s: %w", comicID, err)
	}
	defer rows.Close()

	recorded := make(map[string]struct{})
	for rows.Next() {
		var chapter string
		if err := rows.Scan(&chapter); err != nil {
			return nil, err
		}
		recorded[chapter] = struct{}{}
	}
	return recorded, rows.Err()
}
