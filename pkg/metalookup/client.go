package metalookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultAPIURL   = "https://api.igdb.com/v4"
	defaultOAuthURL = "https://id.twitch.tv/oauth2/token"

	// tokenExpiryBuffer forces a refresh slightly before the token is
	// actually due, so an in-flight request never carries a dead token.
	tokenExpiryBuffer = 5 * time.Minute
)

// Game is the lookup result attached to torrent entries on demand.
type Game struct {
	Name    string   `json:"name"`
	Summary string   `json:"summary,omitempty"`
	Rating  float64  `json:"rating,omitempty"`
	Year    int      `json:"year,omitempty"`
	Genres  []string `json:"genres,omitempty"`
	Cover   string   `json:"cover,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// Config holds the lookup client configuration.
type Config struct {
	ClientID     string
	ClientSecret string

	// CacheTTL is how long search responses stay cached. Defaults to 24h.
	CacheTTL time.Duration

	// APIURL and OAuthURL override the production endpoints, for tests.
	APIURL   string
	OAuthURL string
}

// Client queries the IGDB API. Access tokens are client-credentials grants
// cached in memory (they last around 60 days); search responses are cached
// in redis through Cache.
type Client struct {
	httpClient *http.Client
	config     Config
	cache      *Cache
	logger     zerolog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a lookup client. cache may be nil, in which case every
// search hits the API.
func NewClient(cfg Config, cache *Cache, logger zerolog.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("lookup client id and secret are required")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = defaultOAuthURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		config:     cfg,
		cache:      cache,
		logger:     logger.With().Str("component", "metalookup").Logger(),
	}, nil
}

// token returns a valid access token, requesting a new one when the cached
// token is missing or about to expire.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Add(tokenExpiryBuffer).Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"grant_type":    {"client_credentials"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.OAuthURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		LookupErrors.WithLabelValues("auth").Inc()
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		LookupErrors.WithLabelValues("auth").Inc()
		return "", fmt.Errorf("token request: status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		LookupErrors.WithLabelValues("auth").Inc()
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		LookupErrors.WithLabelValues("auth").Inc()
		return "", fmt.Errorf("token response carried no token")
	}

	c.accessToken = payload.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)

	c.logger.Info().Time("expiry", c.tokenExpiry).Msg("Obtained lookup access token")
	return c.accessToken, nil
}

// SearchGame looks up metadata for a game name. The redis cache is
// consulted first; a cache miss queries the API and caches the result.
// Returns nil without error when the API has no match.
func (c *Client) SearchGame(ctx context.Context, name string) (*Game, error) {
	if c.cache != nil {
		if entry, err := c.cache.Get(ctx, name); err == nil {
			var game Game
			if err := json.Unmarshal(entry.Data, &game); err == nil {
				c.logger.Debug().Str("name", name).Msg("Lookup served from cache")
				return &game, nil
			}
		}
	}

	game, err := c.searchAPI(ctx, name)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && game != nil {
		data, err := json.Marshal(game)
		if err == nil {
			entry := &Entry{
				Data:     data,
				Expires:  time.Now().Add(c.config.CacheTTL),
				CachedAt: time.Now(),
			}
			if err := c.cache.Set(ctx, name, entry); err != nil {
				c.logger.Warn().Err(err).Str("name", name).Msg("Caching lookup result failed")
			}
		}
	}

	return game, nil
}

// apiGame is the wire shape of an IGDB /games row.
type apiGame struct {
	Name             string  `json:"name"`
	Summary          string  `json:"summary"`
	Rating           float64 `json:"rating"`
	FirstReleaseDate int64   `json:"first_release_date"`
	URL              string  `json:"url"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Cover struct {
		URL string `json:"url"`
	} `json:"cover"`
}

func (c *Client) searchAPI(ctx context.Context, name string) (*Game, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`search %q; fields name,summary,rating,first_release_date,url,genres.name,cover.url; limit 1;`,
		name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.APIURL+"/games", strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Client-ID", c.config.ClientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		LookupErrors.WithLabelValues("search").Inc()
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		LookupErrors.WithLabelValues("search").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search request: status %d: %s", resp.StatusCode, body)
	}

	var rows []apiGame
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		LookupErrors.WithLabelValues("search").Inc()
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	game := &Game{
		Name:    row.Name,
		Summary: row.Summary,
		Rating:  row.Rating,
		Cover:   row.Cover.URL,
		URL:     row.URL,
	}
	if row.FirstReleaseDate > 0 {
		game.Year = time.Unix(row.FirstReleaseDate, 0).UTC().Year()
	}
	for _, g := range row.Genres {
		game.Genres = append(game.Genres, g.Name)
	}

	return game, nil
}
