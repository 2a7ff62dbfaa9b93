// Package scraper fetches paginated torrent listings from the tracker.
//
// A Fetcher performs single-page requests and offers two walk strategies on
// top of them:
//
//   - FetchWindow assembles every record of one category newer than a cutoff
//     by fanning additional pages out over a small worker pool. Used for
//     full refreshes of a day window.
//   - FetchSince walks pages sequentially from the newest one and stops at
//     the first record that is not newer than the category's watermark.
//     Used for incremental refreshes.
//
// Page fetches never fail the walk: a transport error or an empty parse is
// logged and contributes zero records. Content interpretation is delegated
// entirely to the feed.Parser the Fetcher was built with.
//
// Request pacing is bounded twice: at most three listing pages are in
// flight per window fetch, and a token-bucket limiter spaces out individual
// requests so a refresh cycle never hammers the tracker.
package scraper
