package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsIngested counts torrents merged into the store by mode.
	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackerfeed_cache_records_ingested_total",
			Help: "Total torrents merged into the cache store",
		},
		[]string{"mode"}, // "full", "incremental"
	)

	// StoreSize tracks the current number of records in the store.
	StoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackerfeed_cache_records",
			Help: "Current number of torrents in the cache store",
		},
	)

	// PersistErrors counts failed cache file writes.
	PersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackerfeed_cache_persist_errors_total",
			Help: "Total failed cache persistence attempts",
		},
	)

	// LoadFallbacks counts loads that could not use the canonical file.
	LoadFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackerfeed_cache_load_fallbacks_total",
			Help: "Cache loads served from a fallback source",
		},
		[]string{"source"}, // "backup", "empty"
	)

	// Migrations counts legacy-format cache files migrated on load.
	Migrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackerfeed_cache_migrations_total",
			Help: "Legacy cache files migrated to the current format",
		},
	)
)
