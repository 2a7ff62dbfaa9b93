package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/tracker-feed/pkg/feed"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.json")
	return Open(path, zerolog.Nop())
}

func TestOpen_MissingFileStartsEmpty(t *testing.T) {
	store := newTestStore(t)

	if store.Len() != 0 {
		t.Errorf("Expected empty store, got %d records", store.Len())
	}
	if store.WindowDays() != DefaultWindowDays {
		t.Errorf("Expected default window %d, got %d", DefaultWindowDays, store.WindowDays())
	}
	if store.IsFresh(time.Hour) {
		t.Error("A never-updated store must not be fresh")
	}
}

func TestIngestFull_ReplacesCategory(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	store.IngestFull("PC-ISO", []feed.Torrent{
		{ID: "1", Category: "PC-ISO", Timestamp: now.Add(-1 * time.Hour)},
		{ID: "2", Category: "PC-ISO", Timestamp: now.Add(-2 * time.Hour)},
	}, 0)
	store.IngestFull("PC-Rip", []feed.Torrent{
		{ID: "10", Category: "PC-Rip", Timestamp: now.Add(-3 * time.Hour)},
	}, 0)

	// A later full ingest for PC-ISO replaces its records wholesale but
	// leaves PC-Rip untouched.
	total := store.IngestFull("PC-ISO", []feed.Torrent{
		{ID: "3", Category: "PC-ISO", Timestamp: now},
	}, 0)

	if total != 2 {
		t.Fatalf("Expected 2 records after replacement, got %d", total)
	}

	ids := make(map[string]bool)
	for _, rec := range store.Records() {
		ids[rec.ID] = true
	}
	if !ids["3"] || !ids["10"] {
		t.Errorf("Expected ids 3 and 10, got %v", ids)
	}
	if ids["1"] || ids["2"] {
		t.Errorf("Stale category records survived replacement: %v", ids)
	}
}

func TestIngestFull_DeduplicatesWithinBatch(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	// Trackers repeat entries across page boundaries; a single window fetch
	// can therefore contain the same id twice.
	total := store.IngestFull("PC-ISO", []feed.Torrent{
		{ID: "1", Name: "first", Category: "PC-ISO", Timestamp: now},
		{ID: "1", Name: "page-boundary dup", Category: "PC-ISO", Timestamp: now},
		{ID: "2", Category: "PC-ISO", Timestamp: now},
	}, 0)

	if total != 2 {
		t.Fatalf("Expected 2 unique records, got %d", total)
	}
	for _, rec := range store.Records() {
		if rec.ID == "1" && rec.Name != "first" {
			t.Errorf("Duplicate overwrote first occurrence: %+v", rec)
		}
	}
}

func TestIngestIncremental_MergeAndCount(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	store.IngestFull("PC-ISO", []feed.Torrent{
		{ID: "100", Category: "PC-ISO", Timestamp: now.AddDate(0, 0, -10)},
		{ID: "101", Category: "PC-ISO", Timestamp: now.AddDate(0, 0, -5)},
	}, 0)

	// One genuinely new record and one already-known id.
	added := store.IngestIncremental("PC-ISO", []feed.Torrent{
		{ID: "102", Category: "PC-ISO", Timestamp: now.AddDate(0, 0, -1)},
		{ID: "101", Category: "PC-ISO", Timestamp: now.AddDate(0, 0, -5)},
	})

	if added != 1 {
		t.Fatalf("Expected 1 added record, got %d", added)
	}
	if store.Len() != 3 {
		t.Fatalf("Expected 3 records total, got %d", store.Len())
	}

	newest, ok := store.NewestTimestamp("PC-ISO")
	if !ok {
		t.Fatal("Expected newest timestamp for PC-ISO")
	}
	want := now.AddDate(0, 0, -1)
	if !newest.Equal(want) {
		t.Errorf("Newest = %v, want %v", newest, want)
	}
}

func TestRecords_SortedNewestFirst(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	store.IngestIncremental("PC-ISO", []feed.Torrent{
		{ID: "a", Category: "PC-ISO", Timestamp: now.Add(-5 * time.Hour)},
		{ID: "b", Category: "PC-ISO", Timestamp: now.Add(-1 * time.Hour)},
		{ID: "c", Category: "PC-ISO", Timestamp: now.Add(-3 * time.Hour)},
	})

	records := store.Records()
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.After(records[i-1].Timestamp) {
			t.Errorf("Records not sorted newest-first at %d", i)
		}
	}
}

func TestCategoryState_DerivedFromRecords(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().Truncate(time.Second)

	store.IngestFull("PC-ISO", []feed.Torrent{
		{ID: "1", Category: "PC-ISO", Timestamp: now.Add(-1 * time.Hour)},
		{ID: "2", Category: "PC-ISO", Timestamp: now.Add(-9 * time.Hour)},
		{ID: "3", Category: "PC-ISO", Timestamp: now.Add(-4 * time.Hour)},
	}, 0)

	state := store.CategoryState()
	meta, ok := state["PC-ISO"]
	if !ok {
		t.Fatal("Expected PC-ISO metadata")
	}
	if meta.Count != 3 {
		t.Errorf("Count = %d, want 3", meta.Count)
	}
	if !meta.Newest.Equal(now.Add(-1 * time.Hour)) {
		t.Errorf("Newest = %v", meta.Newest)
	}
	if !meta.Oldest.Equal(now.Add(-9 * time.Hour)) {
		t.Errorf("Oldest = %v", meta.Oldest)
	}
}

func TestNewestTimestamp_UnknownCategory(t *testing.T) {
	store := newTestStore(t)

	if _, ok := store.NewestTimestamp("Nintendo"); ok {
		t.Error("Expected no watermark for an unknown category")
	}
}

func TestIsFresh(t *testing.T) {
	store := newTestStore(t)

	if store.IsFresh(time.Hour) {
		t.Error("Empty store must not be fresh")
	}

	store.IngestIncremental("PC-ISO", []feed.Torrent{
		{ID: "1", Category: "PC-ISO", Timestamp: time.Now()},
	})

	if !store.IsFresh(time.Hour) {
		t.Error("Store updated just now should be fresh within an hour")
	}
	if store.IsFresh(0) {
		t.Error("A zero freshness window can never be satisfied")
	}
}

func TestSnapshot(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	store.IngestFull("PC-ISO", []feed.Torrent{
		{ID: "1", Category: "PC-ISO", Timestamp: now},
		{ID: "2", Category: "PC-ISO", Timestamp: now},
	}, 0)
	store.IngestFull("PC-Rip", []feed.Torrent{
		{ID: "3", Category: "PC-Rip", Timestamp: now},
	}, 0)

	snap := store.Snapshot(3)

	if snap.Total != 3 {
		t.Errorf("Total = %d, want 3", snap.Total)
	}
	if snap.FetchedNew != 3 {
		t.Errorf("FetchedNew = %d, want 3", snap.FetchedNew)
	}
	if snap.Categories["PC-ISO"].Count != 2 || snap.Categories["PC-Rip"].Count != 1 {
		t.Errorf("Category counts wrong: %+v", snap.Categories)
	}
	if snap.CacheAge != "0 minutes ago" {
		t.Errorf("CacheAge = %q, want \"0 minutes ago\"", snap.CacheAge)
	}
}

func TestRenderAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{2 * time.Minute, "2 minutes ago"},
		{59 * time.Minute, "59 minutes ago"},
		{60 * time.Minute, "1 hours ago"},
		{5 * time.Hour, "5 hours ago"},
	}

	for _, tt := range tests {
		if got := renderAge(tt.age); got != tt.want {
			t.Errorf("renderAge(%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestIngestFull_SetsWindowDays(t *testing.T) {
	store := newTestStore(t)

	store.IngestFull("PC-ISO", nil, 7)
	if store.WindowDays() != 7 {
		t.Errorf("WindowDays = %d, want 7", store.WindowDays())
	}

	// Zero keeps the previous window.
	store.IngestFull("PC-ISO", nil, 0)
	if store.WindowDays() != 7 {
		t.Errorf("WindowDays = %d, want 7 after no-op update", store.WindowDays())
	}
}
