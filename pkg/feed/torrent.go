// Package feed defines the torrent listing model shared by the scraper,
// the cache store and the refresh orchestrator.
package feed

import (
	"sort"
	"time"
)

// Categories maps the known browse category names to their tracker ids.
var Categories = map[string]string{
	"PC-ISO":      "43",
	"PC-Rip":      "45",
	"PC-Mixed":    "2",
	"Nintendo":    "47",
	"Playstation": "71",
	"Xbox":        "44",
	"Wii":         "50",
}

// DefaultCategories are fetched when a refresh request names none.
var DefaultCategories = []string{"PC-ISO", "PC-Rip"}

// Torrent is one listing entry. ID is the identity: the cache store never
// holds two torrents with the same ID.
type Torrent struct {
	// ID is the tracker's numeric torrent id, as a string.
	ID string `json:"id"`

	// Name is the display name of the release.
	Name string `json:"name"`

	// Category is the browse category this entry was listed under.
	Category string `json:"category"`

	// Size is the free-form size string as shown by the tracker ("3.5 GB").
	Size string `json:"size"`

	Seeders  int `json:"seeders"`
	Leechers int `json:"leechers"`
	Snatched int `json:"snatched"`

	// UploadTime is the human-readable relative age ("10.9 hours ago").
	UploadTime string `json:"upload_time"`

	// Timestamp is the absolute upload time derived from UploadTime at
	// fetch time. Serialized as ISO-8601.
	Timestamp time.Time `json:"timestamp"`

	// DownloadLink is the .torrent download reference.
	DownloadLink string `json:"download_link,omitempty"`

	// URL is the detail page for this entry.
	URL string `json:"url,omitempty"`

	Freeleech bool `json:"is_freeleech"`

	// Optional metadata filled in by lookup integrations.
	Rating   float64  `json:"rating,omitempty"`
	Year     int      `json:"year,omitempty"`
	Genres   []string `json:"genres,omitempty"`
	Quality  string   `json:"quality,omitempty"`
	Uploader string   `json:"uploader,omitempty"`
}

// SortByTimestampDesc orders torrents newest first, in place. Stable so
// that entries with equal timestamps keep their relative order.
func SortByTimestampDesc(torrents []Torrent) {
	sort.SliceStable(torrents, func(i, j int) bool {
		return torrents[i].Timestamp.After(torrents[j].Timestamp)
	})
}
