package cache

import "github.com/Sternrassler/tracker-feed/pkg/feed"

// MergeByID merges incoming into existing, keyed by torrent id. The first
// occurrence of an id wins; later duplicates are dropped, never overwritten.
// The same rule guards both full-window ingestion (trackers repeat entries
// across page boundaries) and incremental merges into the persistent store.
// Entries without an id are passed through untouched.
func MergeByID(existing, incoming []feed.Torrent) []feed.Torrent {
	merged := make([]feed.Torrent, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))

	for _, batch := range [2][]feed.Torrent{existing, incoming} {
		for _, t := range batch {
			if t.ID != "" {
				if _, dup := seen[t.ID]; dup {
					continue
				}
				seen[t.ID] = struct{}{}
			}
			merged = append(merged, t)
		}
	}

	return merged
}
