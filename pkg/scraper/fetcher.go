package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sternrassler/tracker-feed/pkg/feed"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// PageSize is the tracker's listing page stride: page n starts at
	// offset n*PageSize.
	PageSize = 50

	// defaultTimeout is the hard per-request cutoff.
	defaultTimeout = 30 * time.Second
)

// Config holds the fetcher configuration.
type Config struct {
	// BaseURL is the tracker root, e.g. "https://tracker.example.com".
	BaseURL string

	// Cookie is the raw session cookie header value.
	Cookie string

	// UserAgent sent with every request.
	UserAgent string

	// Timeout per page request. Defaults to 30s.
	Timeout time.Duration

	// RequestsPerSecond paces individual page requests across all walks.
	// Zero disables pacing.
	RequestsPerSecond float64
}

// Fetcher performs single-page listing requests and delegates content
// interpretation to the parser. It has no state beyond its HTTP client and
// limiter and is safe for concurrent use.
type Fetcher struct {
	httpClient *http.Client
	config     Config
	parser     feed.Parser
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// New creates a Fetcher. The parser is required; everything else has
// workable defaults.
func New(cfg Config, parser feed.Parser, logger zerolog.Logger) (*Fetcher, error) {
	if parser == nil {
		return nil, fmt.Errorf("parser is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		parser:     parser,
		limiter:    limiter,
		logger:     logger.With().Str("component", "scraper").Logger(),
	}, nil
}

// FetchPage requests one listing page of one category at the given record
// offset and returns whatever the parser yields. Any failure — unknown
// category, transport error, bad status, parse error — is logged and
// reported as zero records. FetchPage never retries and has no side effects
// beyond the network call and the log entry.
func (f *Fetcher) FetchPage(ctx context.Context, category string, offset int) []feed.Torrent {
	categoryID, ok := feed.Categories[category]
	if !ok {
		f.logger.Warn().Str("category", category).Msg("Unknown category, skipping")
		return nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		ScrapeErrors.WithLabelValues(string(ErrorClassNetwork)).Inc()
		f.logger.Warn().Err(err).Str("category", category).Msg("Page fetch cancelled")
		return nil
	}

	url := fmt.Sprintf("%s/t?%s", f.config.BaseURL, categoryID)
	if offset > 0 {
		url = fmt.Sprintf("%s;o=%d", url, offset)
	}

	start := time.Now()
	defer func() {
		PageDuration.WithLabelValues(category).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		ScrapeErrors.WithLabelValues(string(ErrorClassNetwork)).Inc()
		f.logger.Error().Err(err).Str("url", url).Msg("Building page request failed")
		return nil
	}
	if f.config.Cookie != "" {
		req.Header.Set("Cookie", f.config.Cookie)
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		class := classifyError(nil, err)
		ScrapeErrors.WithLabelValues(string(class)).Inc()
		PageRequests.WithLabelValues(category, "network_error").Inc()
		f.logger.Warn().
			Err(err).
			Str("category", category).
			Int("offset", offset).
			Msg("Page fetch failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		class := classifyError(resp, nil)
		ScrapeErrors.WithLabelValues(string(class)).Inc()
		PageRequests.WithLabelValues(category, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		f.logger.Warn().
			Str("category", category).
			Int("offset", offset).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Page fetch returned error status")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ScrapeErrors.WithLabelValues(string(ErrorClassNetwork)).Inc()
		PageRequests.WithLabelValues(category, "read_error").Inc()
		f.logger.Warn().Err(err).Str("category", category).Msg("Reading page body failed")
		return nil
	}

	PageRequests.WithLabelValues(category, "200").Inc()

	torrents, err := f.parser.Parse(body, category)
	if err != nil {
		f.logger.Warn().
			Err(err).
			Str("category", category).
			Int("offset", offset).
			Msg("Page parse failed")
		return nil
	}

	RecordsParsed.WithLabelValues(category).Add(float64(len(torrents)))

	f.logger.Debug().
		Str("category", category).
		Int("offset", offset).
		Int("records", len(torrents)).
		Msg("Page fetched")

	return torrents
}
