package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PageRequests counts listing page requests by category and outcome.
	PageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackerfeed_scrape_requests_total",
			Help: "Total listing page requests by category and status",
		},
		[]string{"category", "status"},
	)

	// PageDuration observes listing page request latency.
	PageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trackerfeed_scrape_request_duration_seconds",
			Help:    "Listing page request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"category"},
	)

	// ScrapeErrors counts failed page fetches by error class.
	ScrapeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackerfeed_scrape_errors_total",
			Help: "Total page fetch failures by class",
		},
		[]string{"class"},
	)

	// RecordsParsed counts torrents yielded by the parser per category.
	RecordsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackerfeed_scrape_records_total",
			Help: "Total torrents parsed from listing pages",
		},
		[]string{"category"},
	)
)
