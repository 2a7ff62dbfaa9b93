package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/tracker-feed/pkg/feed"
	"github.com/rs/zerolog"
)

const (
	// DefaultWindowDays is the fetch window used when none is configured.
	DefaultWindowDays = 30

	// DefaultFreshFor is how long a cache update satisfies IsFresh.
	DefaultFreshFor = 15 * time.Minute
)

// CategoryMetadata is derived per-category state: it is always recomputed
// from the record set, never maintained independently of it.
type CategoryMetadata struct {
	Newest time.Time
	Oldest time.Time
	Count  int
}

// Store is the owned, persistent torrent collection. One Store instance
// exists per process; it is the single writer of the cache file.
type Store struct {
	mu     sync.Mutex
	path   string
	logger zerolog.Logger

	records    []feed.Torrent
	createdAt  time.Time
	updatedAt  time.Time
	windowDays int
	categories map[string]CategoryMetadata
}

// Open loads the store from path. A missing file yields an empty store; an
// unreadable one falls back to the backup copy, then to empty. Open never
// fails: worst case is starting from scratch with the reason logged.
func Open(path string, logger zerolog.Logger) *Store {
	s := &Store{
		path:       path,
		logger:     logger.With().Str("component", "cache-store").Logger(),
		windowDays: DefaultWindowDays,
		categories: map[string]CategoryMetadata{},
	}
	s.load()
	StoreSize.Set(float64(len(s.records)))
	return s
}

// Records returns a copy of the full record set, newest first.
func (s *Store) Records() []feed.Torrent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]feed.Torrent, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// WindowDays returns the configured default fetch window.
func (s *Store) WindowDays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windowDays
}

// NewestTimestamp returns the newest known upload time for a category. The
// second return is false when the category has no records: the caller then
// treats the next incremental fetch as a first-ever sync.
func (s *Store) NewestTimestamp(category string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.categories[category]
	if !ok || meta.Count == 0 {
		return time.Time{}, false
	}
	return meta.Newest, true
}

// CategoryState returns a copy of the derived per-category metadata.
func (s *Store) CategoryState() map[string]CategoryMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]CategoryMetadata, len(s.categories))
	for cat, meta := range s.categories {
		out[cat] = meta
	}
	return out
}

// IngestFull replaces category's contribution to the store wholesale with
// the deduplicated records, then re-sorts, rebuilds metadata and persists.
// windowDays, when positive, becomes the new configured default window.
// Returns the total record count after the merge.
func (s *Store) IngestFull(category string, records []feed.Torrent, windowDays int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deduped := MergeByID(nil, records)

	rest := make([]feed.Torrent, 0, len(s.records))
	for _, t := range s.records {
		if t.Category != category {
			rest = append(rest, t)
		}
	}

	s.records = MergeByID(rest, deduped)
	feed.SortByTimestampDesc(s.records)

	now := time.Now()
	if s.createdAt.IsZero() {
		s.createdAt = now
	}
	s.updatedAt = now
	if windowDays > 0 {
		s.windowDays = windowDays
	}
	s.categories = rebuildCategoryMetadata(s.records)

	RecordsIngested.WithLabelValues("full").Add(float64(len(deduped)))
	StoreSize.Set(float64(len(s.records)))

	s.logger.Info().
		Str("category", category).
		Int("fetched", len(deduped)).
		Int("total", len(s.records)).
		Msg("Full ingest complete")

	s.persistLocked()
	return len(s.records)
}

// IngestIncremental merges newRecords into the store, dropping every entry
// whose id is already known, then re-sorts the whole set and rebuilds
// metadata for all categories. Returns the number of records added.
func (s *Store) IngestIncremental(category string, newRecords []feed.Torrent) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.records)
	s.records = MergeByID(s.records, newRecords)
	added := len(s.records) - before

	feed.SortByTimestampDesc(s.records)

	now := time.Now()
	if s.createdAt.IsZero() {
		s.createdAt = now
	}
	s.updatedAt = now
	s.categories = rebuildCategoryMetadata(s.records)

	RecordsIngested.WithLabelValues("incremental").Add(float64(added))
	StoreSize.Set(float64(len(s.records)))

	s.logger.Info().
		Str("category", category).
		Int("added", added).
		Int("total", len(s.records)).
		Msg("Incremental ingest complete")

	s.persistLocked()
	return added
}

// IsFresh reports whether the store was updated less than maxAge ago.
// A store that has never been updated is never fresh.
func (s *Store) IsFresh(maxAge time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.updatedAt.IsZero() {
		return false
	}
	return time.Since(s.updatedAt) < maxAge
}

// CategorySummary is the per-category slice of a metadata snapshot.
type CategorySummary struct {
	Count int `json:"count"`
}

// Snapshot is the read-only metadata view returned to API consumers.
type Snapshot struct {
	CacheAge   string                     `json:"cache_age,omitempty"`
	Categories map[string]CategorySummary `json:"categories"`
	FetchedNew int                        `json:"fetched_new"`
	Total      int                        `json:"total_torrents"`
}

// Snapshot renders the current metadata, including a human-readable cache
// age ("12 minutes ago" / "3 hours ago"). fetchedNew is echoed back so the
// refresh surface can report what the last cycle added.
func (s *Store) Snapshot(fetchedNew int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Categories: make(map[string]CategorySummary, len(s.categories)),
		FetchedNew: fetchedNew,
		Total:      len(s.records),
	}
	for cat, meta := range s.categories {
		snap.Categories[cat] = CategorySummary{Count: meta.Count}
	}
	if !s.updatedAt.IsZero() {
		snap.CacheAge = renderAge(time.Since(s.updatedAt))
	}
	return snap
}

func renderAge(age time.Duration) string {
	minutes := int(age.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%d minutes ago", minutes)
	}
	return fmt.Sprintf("%d hours ago", minutes/60)
}

// rebuildCategoryMetadata derives per-category newest/oldest/count from the
// record set. It is the only way category metadata is ever produced.
func rebuildCategoryMetadata(records []feed.Torrent) map[string]CategoryMetadata {
	categories := make(map[string]CategoryMetadata)

	for _, t := range records {
		meta, ok := categories[t.Category]
		if !ok {
			categories[t.Category] = CategoryMetadata{
				Newest: t.Timestamp,
				Oldest: t.Timestamp,
				Count:  1,
			}
			continue
		}

		if t.Timestamp.After(meta.Newest) {
			meta.Newest = t.Timestamp
		}
		if t.Timestamp.Before(meta.Oldest) {
			meta.Oldest = t.Timestamp
		}
		meta.Count++
		categories[t.Category] = meta
	}

	return categories
}
