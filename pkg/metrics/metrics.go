// Package metrics documents the Prometheus metrics exported by
// tracker-feed. The metric variables themselves live in the packages that
// own them (scraper, cache, syncer, metalookup) to keep registration next
// to the code that drives them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by tracker-feed.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Scrape Metrics (pkg/scraper):
//   - trackerfeed_scrape_requests_total{category, status} (Counter): listing page requests
//   - trackerfeed_scrape_request_duration_seconds{category} (Histogram): page request latency
//   - trackerfeed_scrape_errors_total{class} (Counter): page failures by class
//     (client, server, rate_limit, network)
//   - trackerfeed_scrape_records_total{category} (Counter): torrents parsed from pages
//
// Cache Metrics (pkg/cache):
//   - trackerfeed_cache_records_ingested_total{mode} (Counter): torrents merged by mode
//   - trackerfeed_cache_records (Gauge): current store size
//   - trackerfeed_cache_persist_errors_total (Counter): failed cache writes
//   - trackerfeed_cache_load_fallbacks_total{source} (Counter): loads served from
//     backup or empty initialization
//   - trackerfeed_cache_migrations_total (Counter): legacy cache files migrated
//
// Refresh Metrics (pkg/syncer):
//   - trackerfeed_refresh_cycles_total{mode, outcome} (Counter): refresh cycles
//   - trackerfeed_refresh_duration_seconds{mode} (Histogram): cycle duration
//
// Lookup Metrics (pkg/metalookup):
//   - trackerfeed_lookup_cache_hits_total (Counter): lookups served from redis
//   - trackerfeed_lookup_cache_misses_total (Counter): lookup cache misses
//   - trackerfeed_lookup_errors_total{operation} (Counter): lookup failures
//
// Example Prometheus Queries:
//
//   # Page fetch error rate
//   rate(trackerfeed_scrape_errors_total[5m]) / rate(trackerfeed_scrape_requests_total[5m])
//
//   # Refresh cycles served purely from cache
//   rate(trackerfeed_refresh_cycles_total{outcome="cache"}[15m])
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(trackerfeed_scrape_request_duration_seconds_bucket[5m]))
//
//   # Lookup cache hit rate
//   rate(trackerfeed_lookup_cache_hits_total[5m]) /
//   (rate(trackerfeed_lookup_cache_hits_total[5m]) + rate(trackerfeed_lookup_cache_misses_total[5m]))
