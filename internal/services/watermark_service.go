package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"pixiu/internal/database"
)

// Bootstrap cursors used on first run, before a source has ever synced.
// The news value is the feed id the original deployment started from;
// price sources start from the epoch and backfill their native window.
const (
	NewsBootstrapCursor = 3812705
)

// WatermarkService persists, per source, the last successfully ingested
// cursor. It is backed by the same transactional storage as the data it
// guards, so the watermark cannot fall out of sync with the rows.
type WatermarkService struct {
	db *database.DB

	mu       sync.RWMutex
	defaults map[string]uint64
}

// NewWatermarkService creates a new watermark service
func NewWatermarkService(db *database.DB) *WatermarkService {
	return &WatermarkService{
		db: db,
		defaults: map[string]uint64{
			"news": NewsBootstrapCursor,
		},
	}
}

// SetDefault registers the bootstrap cursor returned for a source with no
// stored watermark. Unregistered sources bootstrap from zero.
func (s *WatermarkService) SetDefault(source string, cursor uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[source] = cursor
}

// Get returns the current watermark for a source, or its bootstrap
// default when none has been stored yet.
func (s *WatermarkService) Get(ctx context.Context, source string) (uint64, error) {
	var cursor uint64
	err := s.db.QueryRowContext(ctx,
		"SELECT cursor FROM watermarks WHERE source = ?", source).Scan(&cursor)
	if err == sql.ErrNoRows {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.defaults[source], nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read watermark for %s: %w", source, err)
	}
	return cursor, nil
}

// Advance moves the watermark forward. The update is a single atomic
// upsert that keeps the greater of the stored and proposed cursors, so
// the watermark is monotonically non-decreasing even under concurrent or
// out-of-order calls. Callers must only invoke this after the matching
// batch of records is durably persisted.
func (s *WatermarkService) Advance(ctx context.Context, source string, cursor uint64) error {
	var query string
	if s.db.Dialect == database.DialectMySQL {
		query = `INSERT INTO watermarks (source, cursor) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE cursor = GREATEST(cursor, VALUES(cursor))`
	} else {
		query = `INSERT INTO watermarks (source, cursor) VALUES (?, ?)
			ON CONFLICT(source) DO UPDATE SET cursor = MAX(cursor, excluded.cursor)`
	}

	if _, err := s.db.ExecContext(ctx, query, source, cursor); err != nil {
		return fmt.Errorf("failed to advance watermark for %s: %w", source, err)
	}
	return nil
}
