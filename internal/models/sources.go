package models

// NewsItem is one feed item from the live news source. The ID is
// source-native, unique, and monotonically increasing; items are
// immutable facts once persisted.
type NewsItem struct {
	ID        uint64 `json:"id"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Target    string `json:"target"`
}

// PricePoint is one observation of a numeric time series, keyed by
// (source, timestamp).
type PricePoint struct {
	Source    string  `json:"source"`
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// Cursor returns the sync cursor for a price point. Timestamps for the
// price sources are epoch milliseconds, so they fit a uint64 cursor.
func (p PricePoint) Cursor() uint64 {
	return uint64(p.Timestamp)
}

// Chapter is one manga chapter observed on a tracked comic's listing page.
type Chapter struct {
	ComicID string `json:"comic_id"`
	Name    string `json:"name"`
	Chapter string `json:"chapter"`
	Link    string `json:"link"`
}
