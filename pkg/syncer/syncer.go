// Package syncer orchestrates refresh cycles: it decides per request mode
// whether to serve the cache as-is, walk for increments, or rebuild a full
// day window, and performs the single merge/write per cycle.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/tracker-feed/pkg/cache"
	"github.com/Sternrassler/tracker-feed/pkg/feed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	refreshCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackerfeed_refresh_cycles_total",
		Help: "Refresh cycles by mode and outcome",
	}, []string{"mode", "outcome"})

	refreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackerfeed_refresh_duration_seconds",
		Help:    "Refresh cycle duration in seconds by mode",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 120},
	}, []string{"mode"})
)

// Mode selects the refresh strategy.
type Mode string

const (
	// ModeCacheOnly serves the current store without network access.
	ModeCacheOnly Mode = "cache-only"

	// ModeIncremental fetches only records newer than each category's
	// watermark.
	ModeIncremental Mode = "incremental"

	// ModeFull rebuilds the configured day window per category, unless the
	// cache is still fresh and the request is not forced.
	ModeFull Mode = "full"
)

// ParseMode validates a mode string from the API surface.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCacheOnly, ModeIncremental, ModeFull:
		return Mode(s), nil
	case "":
		return ModeFull, nil
	default:
		return "", fmt.Errorf("unknown refresh mode %q", s)
	}
}

// Fetcher is the network side of a refresh cycle. *scraper.Fetcher
// implements it.
type Fetcher interface {
	FetchWindow(ctx context.Context, category string, cutoff time.Time) []feed.Torrent
	FetchSince(ctx context.Context, category string, watermark time.Time) []feed.Torrent
}

// Request describes one refresh invocation.
type Request struct {
	Mode Mode

	// Categories to refresh. Empty means feed.DefaultCategories.
	Categories []string

	// Days is the window size for full mode. Zero means the store's
	// configured default window.
	Days int

	// Force runs a full refresh even when the cache is still fresh.
	Force bool
}

// Syncer dispatches refresh requests against one fetcher and one store.
// The category loop is sequential; concurrency lives inside FetchWindow.
type Syncer struct {
	fetcher  Fetcher
	store    *cache.Store
	freshFor time.Duration
	logger   zerolog.Logger
}

// New creates a Syncer. freshFor <= 0 falls back to the store default of
// fifteen minutes.
func New(fetcher Fetcher, store *cache.Store, freshFor time.Duration, logger zerolog.Logger) *Syncer {
	if freshFor <= 0 {
		freshFor = cache.DefaultFreshFor
	}
	return &Syncer{
		fetcher:  fetcher,
		store:    store,
		freshFor: freshFor,
		logger:   logger.With().Str("component", "syncer").Logger(),
	}
}

// Refresh runs one cycle and returns the resulting record set plus a
// metadata summary. It never fails: when the network yields nothing the
// last-known-good cache contents are returned instead — staleness is
// preferred over emptiness.
func (s *Syncer) Refresh(ctx context.Context, req Request) ([]feed.Torrent, cache.Snapshot) {
	start := time.Now()
	defer func() {
		refreshDuration.WithLabelValues(string(req.Mode)).Observe(time.Since(start).Seconds())
	}()

	categories := req.Categories
	if len(categories) == 0 {
		categories = feed.DefaultCategories
	}

	switch req.Mode {
	case ModeCacheOnly:
		refreshCycles.WithLabelValues(string(ModeCacheOnly), "cache").Inc()
		s.logger.Debug().Msg("Serving cached data (cache-only mode)")
		return s.store.Records(), s.store.Snapshot(0)

	case ModeIncremental:
		return s.refreshIncremental(ctx, categories)

	default:
		return s.refreshFull(ctx, req, categories)
	}
}

func (s *Syncer) refreshIncremental(ctx context.Context, categories []string) ([]feed.Torrent, cache.Snapshot) {
	added := 0

	for _, category := range categories {
		watermark, _ := s.store.NewestTimestamp(category)
		fresh := s.fetcher.FetchSince(ctx, category, watermark)
		if len(fresh) == 0 {
			continue
		}
		added += s.store.IngestIncremental(category, fresh)
	}

	outcome := "updated"
	if added == 0 {
		outcome = "unchanged"
	}
	refreshCycles.WithLabelValues(string(ModeIncremental), outcome).Inc()

	s.logger.Info().Int("added", added).Msg("Incremental refresh complete")
	return s.store.Records(), s.store.Snapshot(added)
}

func (s *Syncer) refreshFull(ctx context.Context, req Request, categories []string) ([]feed.Torrent, cache.Snapshot) {
	if s.store.IsFresh(s.freshFor) && !req.Force {
		refreshCycles.WithLabelValues(string(ModeFull), "cache").Inc()
		s.logger.Debug().Msg("Cache still fresh, skipping full refresh")
		return s.store.Records(), s.store.Snapshot(0)
	}

	days := req.Days
	if days <= 0 {
		days = s.store.WindowDays()
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	fetched := 0
	for _, category := range categories {
		records := s.fetcher.FetchWindow(ctx, category, cutoff)
		if len(records) == 0 {
			// Leaving the category untouched keeps its last-known-good
			// records instead of wiping them on a dead page.
			s.logger.Warn().Str("category", category).Msg("Window fetch yielded nothing, keeping cached data")
			continue
		}
		fetched += len(records)
		s.store.IngestFull(category, records, days)
	}

	if fetched == 0 {
		refreshCycles.WithLabelValues(string(ModeFull), "stale").Inc()
		s.logger.Warn().Msg("Full refresh fetched nothing, serving last-known-good cache")
		return s.store.Records(), s.store.Snapshot(0)
	}

	refreshCycles.WithLabelValues(string(ModeFull), "updated").Inc()
	s.logger.Info().
		Int("fetched", fetched).
		Int("days", days).
		Int("total", s.store.Len()).
		Msg("Full refresh complete")

	return s.store.Records(), s.store.Snapshot(fetched)
}
