package feed

import (
	"encoding/json"
	"fmt"
	"time"
)

// Parser turns one fetched page's raw content into torrent entries.
//
// Implementations must be row-tolerant: a malformed row is skipped, never a
// reason to fail the whole page. Partial or missing fields must not cause an
// error either; the parser fills what it can.
type Parser interface {
	Parse(pageContent []byte, category string) ([]Torrent, error)
}

// listingRow is the wire shape of one entry in a JSON listing page.
type listingRow struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Size         string `json:"size"`
	Seeders      int    `json:"seeders"`
	Leechers     int    `json:"leechers"`
	Snatched     int    `json:"snatched"`
	UploadTime   string `json:"upload_time"`
	DownloadLink string `json:"download_link"`
	URL          string `json:"url"`
	Freeleech    bool   `json:"is_freeleech"`
}

// JSONParser parses JSON listing pages (an array of row objects). It is the
// parser used against JSON-capable endpoints and by the test tracker; the
// HTML table heuristics of individual sites live outside this module.
type JSONParser struct {
	// Now is the reference instant for resolving relative ages.
	// Defaults to time.Now when nil.
	Now func() time.Time
}

// Parse implements Parser. Rows without an id or name are skipped. A row
// whose relative age cannot be parsed keeps the reference instant as its
// timestamp, which matches how the original listing parser degraded.
func (p *JSONParser) Parse(pageContent []byte, category string) ([]Torrent, error) {
	var rows []listingRow
	if err := json.Unmarshal(pageContent, &rows); err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}

	torrents := make([]Torrent, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" || row.Name == "" {
			continue
		}

		ts, _ := ParseRelativeAge(row.UploadTime, now)

		torrents = append(torrents, Torrent{
			ID:           row.ID,
			Name:         row.Name,
			Category:     category,
			Size:         row.Size,
			Seeders:      row.Seeders,
			Leechers:     row.Leechers,
			Snatched:     row.Snatched,
			UploadTime:   row.UploadTime,
			Timestamp:    ts,
			DownloadLink: row.DownloadLink,
			URL:          row.URL,
			Freeleech:    row.Freeleech,
		})
	}

	return torrents, nil
}
