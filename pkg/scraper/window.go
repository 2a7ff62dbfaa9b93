package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/tracker-feed/pkg/feed"
)

const (
	// windowExtraPages is the page count scheduled beyond page 0 when the
	// window is not satisfied by page 0 alone. A 30-day window on an active
	// category rarely spans more.
	windowExtraPages = 10

	// windowWorkers bounds in-flight page requests per window fetch.
	windowWorkers = 3
)

// FetchWindow assembles all records of one category with a timestamp at or
// after cutoff, for full refreshes of a day window.
//
// Page 0 is fetched synchronously. When its oldest record is already older
// than the cutoff the whole window fits on one page and no further request
// is issued. Otherwise up to windowExtraPages additional pages are fanned
// out over a pool of windowWorkers; every dispatched fetch runs to
// completion and a failed or empty page simply contributes nothing.
//
// Completion order is arbitrary, so the returned records are unordered; the
// cache store re-sorts on ingestion.
func (f *Fetcher) FetchWindow(ctx context.Context, category string, cutoff time.Time) []feed.Torrent {
	firstPage := f.FetchPage(ctx, category, 0)
	if len(firstPage) == 0 {
		f.logger.Debug().Str("category", category).Msg("Window fetch: first page empty")
		return nil
	}

	collected := filterNotBefore(firstPage, cutoff)

	oldest := firstPage[0].Timestamp
	for _, t := range firstPage[1:] {
		if t.Timestamp.Before(oldest) {
			oldest = t.Timestamp
		}
	}
	if oldest.Before(cutoff) {
		// The feed is reverse-chronological: page 0 already reaches past
		// the cutoff, so deeper pages hold nothing newer.
		f.logger.Debug().
			Str("category", category).
			Int("records", len(collected)).
			Msg("Window satisfied by first page")
		return collected
	}

	start := time.Now()

	pageQueue := make(chan int, windowExtraPages)
	results := make(chan []feed.Torrent, windowExtraPages)

	for page := 1; page <= windowExtraPages; page++ {
		pageQueue <- page * PageSize
	}
	close(pageQueue)

	var wg sync.WaitGroup
	for i := 0; i < windowWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for offset := range pageQueue {
				results <- filterNotBefore(f.FetchPage(ctx, category, offset), cutoff)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for batch := range results {
		collected = append(collected, batch...)
	}

	f.logger.Info().
		Str("category", category).
		Int("records", len(collected)).
		Dur("duration", time.Since(start)).
		Msg("Window fetch complete")

	return collected
}

// filterNotBefore keeps records with timestamp >= cutoff.
func filterNotBefore(torrents []feed.Torrent, cutoff time.Time) []feed.Torrent {
	kept := make([]feed.Torrent, 0, len(torrents))
	for _, t := range torrents {
		if !t.Timestamp.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
