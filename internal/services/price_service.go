package services

import (
	"context"
	"fmt"
	"strings"

	"pixiu/internal/database"
	"pixiu/internal/models"
)

// PriceService persists numeric time-series observations keyed by
// (source, timestamp).
type PriceService struct {
	db *database.DB
}

// NewPriceService creates a new price service
func NewPriceService(db *database.DB) *PriceService {
	return &PriceService{db: db}
}

// UpsertBatch writes a batch of points in a single insert-or-ignore
// statement. Points already present (same source and timestamp) are
// silently skipped.
func (s *PriceService) UpsertBatch(ctx context.Context, points []models.PricePoint) (int64, error) {
	if len(points) == 0 {
		return 0, nil
	}

	placeholders := make([]string, 0, len(points))
	args := make([]any, 0, len(points)*3)
	for _, p := range points {
		placeholders = append(placeholders, "(?, ?, ?)")
		args = append(args, p.Source, p.Timestamp, p.Price)
	}

	query := s.db.InsertIgnore() + " price_points (source, timestamp, price) VALUES " +
		strings.Join(placeholders, ", ")

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert price batch: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted count: %w", err)
	}
	return inserted, nil
}

// Series returns the latest limit points for a source in ascending
// timestamp order, ready for chart rendering.
func (s *PriceService) Series(ctx context.Context, source string, limit int) ([]models.PricePoint, error) {
	query := `SELECT source, timestamp, price FROM (
			SELECT source, timestamp, price FROM price_points
			WHERE source = ? ORDER BY timestamp DESC LIMIT ?
		) t ORDER BY timestamp`

	rows, err := s.db.QueryContext(ctx, query, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s series: %w", source, err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Source, &p.Timestamp, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
