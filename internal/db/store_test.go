package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwulff/steno/journal/internal/journal"
)

// createTestStore creates a store over an in-memory SQLite database.
func createTestStore(t *testing.T) *Store {
	t.Helper()

	rawDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// Each pooled connection would get its own in-memory database.
	rawDB.SetMaxOpenConns(1)
	t.Cleanup(func() { rawDB.Close() })

	store, err := newStore(rawDB, nil)
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	return store
}

func testEntry(snippet string, at time.Time) journal.Entry {
	return journal.NewEntry(snippet, at, journal.Layout{})
}

func TestLoadAllEmpty(t *testing.T) {
	store := createTestStore(t)

	entries := store.LoadAll(context.Background())
	if entries == nil {
		t.Fatal("LoadAll should return an empty slice, not nil")
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestAppendNewestFirst(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	now := time.Now()

	first := testEntry("first", now.Add(-time.Hour))
	second := testEntry("second", now)

	if err := store.Append(ctx, first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := store.Append(ctx, second); err != nil {
		t.Fatalf("append second: %v", err)
	}

	entries := store.LoadAll(ctx)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ID != second.ID {
		t.Errorf("entries[0] = %q, want newest %q", entries[0].Snippet, second.Snippet)
	}
	if entries[1].ID != first.ID {
		t.Errorf("entries[1] = %q, want %q", entries[1].Snippet, first.Snippet)
	}
}

func TestAppendRoundTrip(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, time.October, 15, 8, 30, 12, 345678901, time.UTC)
	e := testEntry("i feel okay today", at)
	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("append: %v", err)
	}

	got := store.LoadAll(ctx)[0]
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, e.CreatedAt)
	}
	got.CreatedAt = e.CreatedAt
	if got != e {
		t.Errorf("round trip = %+v, want %+v", got, e)
	}
}

func TestAppendKeepsUTCOffset(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, time.January, 1, 10, 0, 0, 0, time.FixedZone("X", 5*60*60))
	e := testEntry("morning pages", at)
	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("append: %v", err)
	}

	got := store.LoadAll(ctx)[0].CreatedAt
	if !got.Equal(at) {
		t.Errorf("createdAt = %v, want %v", got, at)
	}
	if _, offset := got.Zone(); offset != 5*60*60 {
		t.Errorf("offset = %d, want %d", offset, 5*60*60)
	}
	if got.Format(time.RFC3339Nano) != at.Format(time.RFC3339Nano) {
		t.Errorf("wall clock = %s, want %s", got.Format(time.RFC3339Nano), at.Format(time.RFC3339Nano))
	}
}

func TestAppendDuplicateIDFails(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	e := testEntry("once", time.Now())
	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, e); err == nil {
		t.Error("expected error appending duplicate id")
	}
	if n := len(store.LoadAll(ctx)); n != 1 {
		t.Errorf("got %d entries after failed append, want 1", n)
	}
}

func TestLoadAllAfterCloseIsEmpty(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	if err := store.Append(ctx, testEntry("x", time.Now())); err != nil {
		t.Fatalf("append: %v", err)
	}
	store.Close()

	entries := store.LoadAll(ctx)
	if entries == nil || len(entries) != 0 {
		t.Errorf("LoadAll on closed store = %v, want empty", entries)
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.sqlite")
	ctx := context.Background()

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	e := testEntry("durable", time.Now())
	if err := store.Append(ctx, e); err != nil {
		t.Fatalf("append: %v", err)
	}
	store.Close()

	store, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	entries := store.LoadAll(ctx)
	if len(entries) != 1 || entries[0].ID != e.ID {
		t.Errorf("after reopen got %+v, want %q", entries, e.ID)
	}
}
