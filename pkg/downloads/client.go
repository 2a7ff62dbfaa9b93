// Package downloads submits torrent download references to a qBittorrent
// instance. It is glue around the WebAPI client: submission failures are
// logged and surfaced to the caller, but nothing in the refresh pipeline
// depends on them.
package downloads

import (
	"context"
	"fmt"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
)

// Config holds the qBittorrent connection settings.
type Config struct {
	Host     string
	Username string
	Password string

	// Category assigned to submitted torrents. Empty means none.
	Category string
}

// Client wraps the qBittorrent WebAPI client.
type Client struct {
	qbt    *qbt.Client
	config Config
	logger zerolog.Logger
}

// New connects and authenticates against the qBittorrent instance.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("qbittorrent host is required")
	}

	client := qbt.NewClient(qbt.Config{
		Host:     cfg.Host,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  30,
	})

	loginCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := client.LoginCtx(loginCtx); err != nil {
		return nil, fmt.Errorf("qbittorrent login: %w", err)
	}

	logger.Info().Str("host", cfg.Host).Msg("Connected to qBittorrent")

	return &Client{
		qbt:    client,
		config: cfg,
		logger: logger.With().Str("component", "downloads").Logger(),
	}, nil
}

// Submit queues a torrent by its download reference. The configured
// category, when set, is assigned on submission.
func (c *Client) Submit(ctx context.Context, downloadLink string) error {
	if downloadLink == "" {
		return fmt.Errorf("download link is empty")
	}

	options := map[string]string{}
	if c.config.Category != "" {
		options["category"] = c.config.Category
	}

	if err := c.qbt.AddTorrentFromUrlCtx(ctx, downloadLink, options); err != nil {
		c.logger.Warn().
			Err(err).
			Str("link", downloadLink).
			Msg("Torrent submission failed")
		return fmt.Errorf("add torrent: %w", err)
	}

	c.logger.Info().
		Str("link", downloadLink).
		Str("category", c.config.Category).
		Msg("Torrent submitted")

	return nil
}
