package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMarkProcessed_Dedup(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.MarkProcessed(ctx, "evt-1", "C1")
	if err != nil {
		t.Fatal(err)
	}
	if !first {
		t.Error("first occurrence should report true")
	}

	again, err := s.MarkProcessed(ctx, "evt-1", "C1")
	if err != nil {
		t.Fatal(err)
	}
	if again {
		t.Error("duplicate event id should report false")
	}

	other, err := s.MarkProcessed(ctx, "evt-2", "C1")
	if err != nil {
		t.Fatal(err)
	}
	if !other {
		t.Error("distinct event id should report true")
	}
}

func TestRecordDelivery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.RecordDelivery(ctx, "evt-1", "C1", "M1", true); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordDelivery(ctx, "evt-2", "C1", "M2", false); err != nil {
		t.Fatal(err)
	}
}

func TestPrune(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.MarkProcessed(ctx, "evt-old", "C1"); err != nil {
		t.Fatal(err)
	}

	// Nothing is older than an hour yet.
	removed, err := s.Prune(ctx, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("expected 0 removed, got %d", removed)
	}

	// Everything is older than a negative age.
	removed, err = s.Prune(ctx, -time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}
}
