package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/tracker-feed/pkg/cache"
	"github.com/Sternrassler/tracker-feed/pkg/config"
	"github.com/Sternrassler/tracker-feed/pkg/downloads"
	"github.com/Sternrassler/tracker-feed/pkg/feed"
	"github.com/Sternrassler/tracker-feed/pkg/logging"
	"github.com/Sternrassler/tracker-feed/pkg/metalookup"
	"github.com/Sternrassler/tracker-feed/pkg/scraper"
	"github.com/Sternrassler/tracker-feed/pkg/syncer"
)

func main() {
	configFile := flag.String("config", "", "path to config file (default: ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fallback := logging.Setup(logging.DefaultConfig())
		fallback.Fatal().Err(err).Msg("Loading configuration failed")
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	store := cache.Open(cfg.Cache.Path, logger)

	fetcher, err := scraper.New(scraper.Config{
		BaseURL:           cfg.Tracker.BaseURL,
		Cookie:            cfg.Tracker.Cookie,
		UserAgent:         cfg.Tracker.UserAgent,
		RequestsPerSecond: cfg.Tracker.RequestsPerSecond,
	}, &feed.JSONParser{}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Creating fetcher failed")
	}

	refresher := syncer.New(fetcher, store,
		time.Duration(cfg.Cache.FreshMinutes)*time.Minute, logger)

	var downloadClient *downloads.Client
	if cfg.QBittorrent.Enabled {
		downloadClient, err = downloads.New(context.Background(), downloads.Config{
			Host:     cfg.QBittorrent.Host,
			Username: cfg.QBittorrent.Username,
			Password: cfg.QBittorrent.Password,
			Category: cfg.QBittorrent.Category,
		}, logger)
		if err != nil {
			// The feed keeps working without the download queue.
			logger.Warn().Err(err).Msg("qBittorrent unavailable, download submission disabled")
			downloadClient = nil
		}
	}

	var lookupClient *metalookup.Client
	if cfg.Lookup.Enabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Lookup.RedisAddr})
		lookupCache := metalookup.NewCache(redisClient)
		lookupClient, err = metalookup.NewClient(metalookup.Config{
			ClientID:     cfg.Lookup.ClientID,
			ClientSecret: cfg.Lookup.ClientSecret,
			CacheTTL:     time.Duration(cfg.Lookup.CacheTTLHours) * time.Hour,
		}, lookupCache, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Metadata lookup unavailable")
			lookupClient = nil
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/torrents", torrentsHandler(refresher, logger))
	mux.HandleFunc("/api/download", downloadHandler(downloadClient, logger))
	mux.HandleFunc("/api/lookup", lookupHandler(lookupClient, logger))

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("tracker", cfg.Tracker.BaseURL).
		Str("cache", cfg.Cache.Path).
		Msg("Starting tracker-feed server")

	if err := http.ListenAndServe(cfg.Server.Addr, mux); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// torrentsHandler serves the refresh surface:
//
//	GET /api/torrents?mode=full&categories=PC-ISO,PC-Rip&days=30&force=true
//
// Optional filter/sort parameters (search, min_snatched, exclude, sort,
// order) narrow the returned listing without touching the store.
func torrentsHandler(refresher *syncer.Syncer, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := syncer.ParseMode(r.URL.Query().Get("mode"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		req := syncer.Request{Mode: mode}
		if cats := r.URL.Query().Get("categories"); cats != "" {
			req.Categories = strings.Split(cats, ",")
		}
		if days := r.URL.Query().Get("days"); days != "" {
			if n, err := strconv.Atoi(days); err == nil {
				req.Days = n
			}
		}
		req.Force = r.URL.Query().Get("force") == "true"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		torrents, snapshot := refresher.Refresh(ctx, req)

		opts := feed.FilterOptions{Search: r.URL.Query().Get("search")}
		if min := r.URL.Query().Get("min_snatched"); min != "" {
			if n, err := strconv.Atoi(min); err == nil {
				opts.MinSnatched = n
			}
		}
		if excl := r.URL.Query().Get("exclude"); excl != "" {
			opts.ExcludeKeywords = strings.Split(excl, ",")
		}
		torrents = feed.Filter(torrents, opts, time.Now())

		if field := r.URL.Query().Get("sort"); field != "" {
			feed.Sort(torrents, feed.SortField(field), r.URL.Query().Get("order") == "asc")
		}

		writeJSON(w, logger, map[string]any{
			"torrents": torrents,
			"metadata": snapshot,
		})
	}
}

// downloadHandler submits a torrent to the configured qBittorrent
// instance. Returns 503 when submission is not configured or unavailable.
func downloadHandler(client *downloads.Client, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if client == nil {
			http.Error(w, "download submission not configured", http.StatusServiceUnavailable)
			return
		}

		var body struct {
			DownloadLink string `json:"download_link"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := client.Submit(r.Context(), body.DownloadLink); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		writeJSON(w, logger, map[string]any{"status": "submitted"})
	}
}

// lookupHandler resolves game metadata for a name. Returns 503 when the
// lookup integration is not configured.
func lookupHandler(client *metalookup.Client, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			http.Error(w, "metadata lookup not configured", http.StatusServiceUnavailable)
			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "name parameter is required", http.StatusBadRequest)
			return
		}

		game, err := client.SearchGame(r.Context(), name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if game == nil {
			http.Error(w, "no match", http.StatusNotFound)
			return
		}

		writeJSON(w, logger, game)
	}
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn().Err(err).Msg("Writing response failed")
	}
}
