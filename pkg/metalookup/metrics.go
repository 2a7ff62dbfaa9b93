package metalookup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LookupCacheHits tracks lookup responses served from redis.
	LookupCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackerfeed_lookup_cache_hits_total",
			Help: "Total lookup responses served from cache",
		},
	)

	// LookupCacheMisses tracks lookups that had to hit the API.
	LookupCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackerfeed_lookup_cache_misses_total",
			Help: "Total lookup cache misses",
		},
	)

	// LookupErrors tracks failed lookup operations.
	LookupErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackerfeed_lookup_errors_total",
			Help: "Total lookup errors by operation",
		},
		[]string{"operation"}, // "auth", "search", "cache_get", "cache_set"
	)
)
