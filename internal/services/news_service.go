package services

import (
	"context"
	"fmt"
	"strings"

	"pixiu/internal/database"
	"pixiu/internal/models"
)

// NewsService persists fetched news items. Items are immutable facts
// keyed by their source-native id; re-inserting an existing id is a
// silent skip, never an overwrite or an error.
type NewsService struct {
	db *database.DB
}

// NewNewsService creates a new news service
func NewNewsService(db *database.DB) *NewsService {
	return &NewsService{db: db}
}

// UpsertBatch writes a batch of items in a single insert-or-ignore
// statement and reports how many rows were actually inserted.
// Overlapping batches from a retried sync are expected and harmless.
func (s *NewsService) UpsertBatch(ctx context.Context, items []models.NewsItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*4)
	for _, item := range items {
		placeholders = append(placeholders, "(?, ?, ?, ?)")
		args = append(args, item.ID, item.Content, item.Timestamp, item.Target)
	}

	query := s.db.InsertIgnore() + " news (id, content, timestamp, target) VALUES " +
		strings.Join(placeholders, ", ")

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert news batch: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		// Rows are persisted; an unreadable count must not pass as zero
		// inserts, it would silently under-count the sync metrics.
		return 0, fmt.Errorf("failed to read inserted count: %w", err)
	}
	return inserted, nil
}

// Recent returns items with timestamp strictly after since, oldest first.
// The digest uses this with a 24h window.
func (s *NewsService) Recent(ctx context.Context, since int64) ([]models.NewsItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, timestamp, target FROM news WHERE timestamp > ? ORDER BY timestamp", since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent news: %w", err)
	}
	defer rows.Close()

	var items []models.NewsItem
	for rows.Next() {
		var item models.NewsItem
		if err := rows.Scan(&item.ID, &item.Content, &item.Timestamp, &item.Target); err != nil {
			return nil, fmt.Errorf("failed to scan news row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the number of persisted news items.
func (s *NewsService) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news").Scan(&count)
	return count, err
}
