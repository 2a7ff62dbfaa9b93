package scraper

import (
	"context"
	"time"

	"github.com/Sternrassler/tracker-feed/pkg/feed"
)

// incrementalMaxPages caps the sequential walk even when no stale record is
// ever seen.
const incrementalMaxPages = 5

// FetchSince walks one category's pages sequentially from the newest one
// and returns every record strictly newer than watermark, in discovery
// order.
//
// Records are inspected in the order the tracker returns them. The first
// record that is not newer than the watermark ends the walk entirely: the
// feed is reverse-chronological, so nothing after it can be new. A record
// whose timestamp equals the watermark exactly counts as already known.
//
// A zero watermark means this category has never been synced; only page 0
// is fetched and all of its records are new.
func (f *Fetcher) FetchSince(ctx context.Context, category string, watermark time.Time) []feed.Torrent {
	if watermark.IsZero() {
		firstPage := f.FetchPage(ctx, category, 0)
		f.logger.Info().
			Str("category", category).
			Int("records", len(firstPage)).
			Msg("First sync, taking first page")
		return firstPage
	}

	var collected []feed.Torrent

	for page := 0; page < incrementalMaxPages; page++ {
		records := f.FetchPage(ctx, category, page*PageSize)
		if len(records) == 0 {
			// no more pages, or a failure already logged by FetchPage
			break
		}

		for _, t := range records {
			if !t.Timestamp.After(watermark) {
				f.logger.Debug().
					Str("category", category).
					Int("page", page).
					Time("watermark", watermark).
					Msg("Stale record reached, stopping walk")
				return collected
			}
			collected = append(collected, t)
		}
	}

	f.logger.Info().
		Str("category", category).
		Int("records", len(collected)).
		Msg("Incremental walk complete")

	return collected
}
