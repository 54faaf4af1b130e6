package services

import (
	"context"
	"testing"

	"pixiu/internal/models"
)

func newsItem(id uint64, ts int64) models.NewsItem {
	return models.NewsItem{ID: id, Content: "item", Timestamp: ts, Target: "https://example.com"}
}

func TestNewsUpsert_InsertAndCount(t *testing.T) {
	svc := NewNewsService(testDB(t))
	ctx := context.Background()

	inserted, err := svc.UpsertBatch(ctx, []models.NewsItem{
		newsItem(1, 100), newsItem(2, 200), newsItem(3, 300),
	})
	if err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}
	if inserted != 3 {
		t.Errorf("Expected 3 inserted, got %d", inserted)
	}

	count, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}
}

func TestNewsUpsert_DuplicatesSkipped(t *testing.T) {
	svc := NewNewsService(testDB(t))
	ctx := context.Background()

	batch := []models.NewsItem{newsItem(1, 100), newsItem(2, 200)}
	if _, err := svc.UpsertBatch(ctx, batch); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}

	// Replaying the identical batch must be a clean no-op, not an error
	inserted, err := svc.UpsertBatch(ctx, batch)
	if err != nil {
		t.Fatalf("Replay upsert failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected 0 inserted on replay, got %d", inserted)
	}

	count, _ := svc.Count(ctx)
	if count != 2 {
		t.Errorf("Expected count 2 after replay, got %d", count)
	}
}

func TestNewsUpsert_OverlappingBatches(t *testing.T) {
	svc := NewNewsService(testDB(t))
	ctx := context.Background()

	// Simulates a retry after partial failure: the second batch repeats
	// part of the first. Persisted rows must equal the distinct ids.
	if _, err := svc.UpsertBatch(ctx, []models.NewsItem{
		newsItem(1, 100), newsItem(2, 200), newsItem(3, 300),
	}); err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}

	inserted, err := svc.UpsertBatch(ctx, []models.NewsItem{
		newsItem(2, 200), newsItem(3, 300), newsItem(4, 400), newsItem(5, 500),
	})
	if err != nil {
		t.Fatalf("Overlapping upsert failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 new rows from overlapping batch, got %d", inserted)
	}

	count, _ := svc.Count(ctx)
	if count != 5 {
		t.Errorf("Expected 5 distinct rows, got %d", count)
	}
}

func TestNewsUpsert_ExistingRowsNotOverwritten(t *testing.T) {
	svc := NewNewsService(testDB(t))
	ctx := context.Background()

	original := models.NewsItem{ID: 7, Content: "original", Timestamp: 100, Target: "t"}
	if _, err := svc.UpsertBatch(ctx, []models.NewsItem{original}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	mutated := models.NewsItem{ID: 7, Content: "mutated", Timestamp: 100, Target: "t"}
	if _, err := svc.UpsertBatch(ctx, []models.NewsItem{mutated}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	items, err := svc.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(items) != 1 || items[0].Content != "original" {
		t.Errorf("Expected persisted item to remain immutable, got %+v", items)
	}
}

func TestNewsUpsert_EmptyBatch(t *testing.T) {
	svc := NewNewsService(testDB(t))

	inserted, err := svc.UpsertBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Empty upsert failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected 0 inserted for empty batch, got %d", inserted)
	}
}

func TestNewsRecent_Window(t *testing.T) {
	svc := NewNewsService(testDB(t))
	ctx := context.Background()

	if _, err := svc.UpsertBatch(ctx, []models.NewsItem{
		newsItem(1, 100), newsItem(2, 200), newsItem(3, 300),
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Window is strictly after since, ordered oldest first
	items, err := svc.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items after ts 100, got %d", len(items))
	}
	if items[0].ID != 2 || items[1].ID != 3 {
		t.Errorf("Expected ids [2 3] oldest first, got [%d %d]", items[0].ID, items[1].ID)
	}
}
