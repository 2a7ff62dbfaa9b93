// Package metalookup resolves game metadata for torrent names through the
// IGDB API, with OAuth2 client-credentials authentication and a
// redis-backed response cache.
package metalookup

import "time"

// Entry is one cached lookup response.
type Entry struct {
	// Data is the serialized lookup result.
	Data []byte `json:"data"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when the response was cached.
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, or 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
