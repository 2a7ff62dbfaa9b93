// Package cache implements the persistent torrent listing store.
//
// The store holds every torrent the scraper has ever merged, sorted by
// upload timestamp (newest first), together with derived metadata: global
// created/updated instants, the configured default fetch window and
// per-category newest/oldest/count figures. Metadata is always recomputable
// from the record set; rebuildCategoryMetadata is the single source of truth
// for it.
//
// # Ingestion
//
//	store := cache.Open("cache.json", logger)
//
//	// full refresh: replace one category's contribution wholesale
//	store.IngestFull("PC-ISO", fetched, 30)
//
//	// incremental refresh: merge only entries not yet known
//	added := store.IngestIncremental("PC-ISO", fresh)
//
// Both paths deduplicate by torrent id with first-occurrence-wins semantics
// and re-sort the full record set before persisting, so callers never
// observe an unordered or duplicated state.
//
// # Persistence
//
// Every successful mutation is serialized to a temporary file and renamed
// over the canonical cache file, so a crash mid-write cannot corrupt the
// previously durable state. Loading falls back to the .bak copy when the
// canonical file is unreadable, and to an empty store when both are; a bad
// cache file never prevents startup. A legacy flat format (top-level
// timestamp, no metadata object) is detected on load and migrated in place
// without losing records.
//
// The store is safe for concurrent use: all mutation is serialized behind
// one mutex, matching the single-writer discipline of the refresh cycle.
package cache
