// Package config loads the application configuration from an optional
// config file plus TRACKERFEED_-prefixed environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// TrackerConfig configures the tracker connection.
type TrackerConfig struct {
	// BaseURL is the tracker root URL.
	BaseURL string `mapstructure:"base_url"`

	// Cookie is the raw session cookie header value. Acquiring and
	// refreshing it is outside this program.
	Cookie string `mapstructure:"cookie"`

	UserAgent string `mapstructure:"user_agent"`

	// RequestsPerSecond paces listing page requests. Zero disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// CacheConfig configures the persistent listing store.
type CacheConfig struct {
	Path         string `mapstructure:"path"`
	FreshMinutes int    `mapstructure:"fresh_minutes"`
	WindowDays   int    `mapstructure:"window_days"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// QBittorrentConfig configures the optional download queue submission.
type QBittorrentConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// Category assigned to submitted torrents. Empty means none.
	Category string `mapstructure:"category"`
}

// LookupConfig configures the optional game metadata lookup.
type LookupConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`

	// RedisAddr is the redis instance backing the lookup response cache.
	RedisAddr string `mapstructure:"redis_addr"`

	// CacheTTLHours is how long lookup responses stay cached.
	CacheTTLHours int `mapstructure:"cache_ttl_hours"`
}

// Config is the root application configuration.
type Config struct {
	Tracker     TrackerConfig     `mapstructure:"tracker"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	QBittorrent QBittorrentConfig `mapstructure:"qbittorrent"`
	Lookup      LookupConfig      `mapstructure:"lookup"`
}

// setDefaults registers every key. Viper only applies env overrides to
// keys it already knows, so even the empty defaults matter.
func setDefaults(v *viper.Viper) {
	v.SetDefault("tracker.base_url", "")
	v.SetDefault("tracker.cookie", "")
	v.SetDefault("tracker.user_agent", "tracker-feed/0.1.0")
	v.SetDefault("tracker.requests_per_second", 2.0)
	v.SetDefault("cache.path", "cache.json")
	v.SetDefault("cache.fresh_minutes", 15)
	v.SetDefault("cache.window_days", 30)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("qbittorrent.enabled", false)
	v.SetDefault("qbittorrent.host", "")
	v.SetDefault("qbittorrent.username", "")
	v.SetDefault("qbittorrent.password", "")
	v.SetDefault("qbittorrent.category", "")
	v.SetDefault("lookup.enabled", false)
	v.SetDefault("lookup.client_id", "")
	v.SetDefault("lookup.client_secret", "")
	v.SetDefault("lookup.cache_ttl_hours", 24)
	v.SetDefault("lookup.redis_addr", "localhost:6379")
}

// Load reads the configuration. configFile may be empty, in which case
// config.yaml in the working directory is used if present; a missing file
// is not an error since every key has an env override.
func Load(configFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TRACKERFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings a refresh cycle cannot run without.
func (c Config) Validate() error {
	if c.Tracker.BaseURL == "" {
		return fmt.Errorf("tracker.base_url is required")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required")
	}
	return nil
}
