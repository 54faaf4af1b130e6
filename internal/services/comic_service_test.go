package services

import (
	"context"
	"testing"

	"pixiu/internal/models"
)

func chapter(comicID, ch string) models.Chapter {
	return models.Chapter{ComicID: comicID, Name: "comic " + comicID, Chapter: ch, Link: "/c/" + comicID + "/" + ch}
}

func TestComicSeen(t *testing.T) {
	svc := NewComicService(testDB(t))
	ctx := context.Background()

	seen, err := svc.Seen(ctx, "123")
	if err != nil {
		t.Fatalf("Seen failed: %v", err)
	}
	if seen {
		t.Error("Expected unknown comic to be unseen")
	}

	if _, err := svc.RecordChapters(ctx, []models.Chapter{chapter("123", "1")}); err != nil {
		t.Fatalf("RecordChapters failed: %v", err)
	}

	seen, err = svc.Seen(ctx, "123")
	if err != nil {
		t.Fatalf("Seen failed: %v", err)
	}
	if !seen {
		t.Error("Expected recorded comic to be seen")
	}
}

func TestRecordChapters_ReturnsOnlyFresh(t *testing.T) {
	svc := NewComicService(testDB(t))
	ctx := context.Background()

	fresh, err := svc.RecordChapters(ctx, []models.Chapter{chapter("123", "1"), chapter("123", "2")})
	if err != nil {
		t.Fatalf("RecordChapters failed: %v", err)
	}
	if len(fresh) != 2 {
		t.Fatalf("Expected 2 fresh chapters, got %d", len(fresh))
	}

	// Replaying with one overlap yields only the new chapter
	fresh, err = svc.RecordChapters(ctx, []models.Chapter{chapter("123", "2"), chapter("123", "3")})
	if err != nil {
		t.Fatalf("RecordChapters failed: %v", err)
	}
	if len(fresh) != 1 || fresh[0].Chapter != "3" {
		t.Errorf("Expected only chapter 3 fresh, got %+v", fresh)
	}

	// Full replay is a no-op
	fresh, err = svc.RecordChapters(ctx, []models.Chapter{chapter("123", "1"), chapter("123", "2"), chapter("123", "3")})
	if err != nil {
		t.Fatalf("RecordChapters failed: %v", err)
	}
	if len(fresh) != 0 {
		t.Errorf("Expected no fresh chapters on replay, got %+v", fresh)
	}
}

func TestRecordChapters_PerComicIsolation(t *testing.T) {
	svc := NewComicService(testDB(t))
	ctx := context.Background()

	if _, err := svc.RecordChapters(ctx, []models.Chapter{chapter("a", "1")}); err != nil {
		t.Fatalf("RecordChapters failed: %v", err)
	}

	// The same chapter number on another comic is still fresh
	fresh, err := svc.RecordChapters(ctx, []models.Chapter{chapter("b", "1")})
	if err != nil {
		t.Fatalf("RecordChapters failed: %v", err)
	}
	if len(fresh) != 1 {
		t.Errorf("Expected chapter fresh for second comic, got %+v", fresh)
	}
}
