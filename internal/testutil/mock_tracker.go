// Package testutil provides testing utilities for tracker-feed.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Row is one listing entry served by the mock tracker, in the JSON shape
// the feed.JSONParser consumes.
type Row struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Size         string `json:"size"`
	Seeders      int    `json:"seeders"`
	Leechers     int    `json:"leechers"`
	Snatched     int    `json:"snatched"`
	UploadTime   string `json:"upload_time"`
	DownloadLink string `json:"download_link,omitempty"`
	URL          string `json:"url,omitempty"`
	Freeleech    bool   `json:"is_freeleech"`
}

// MockTracker is a configurable fake tracker for scraper tests. Pages are
// keyed by (category id, record offset); unconfigured pages return an
// empty listing.
type MockTracker struct {
	server *httptest.Server

	mu       sync.RWMutex
	pages    map[string][]Row
	statuses map[string]int
	requests []string
}

// NewMockTracker starts the mock server.
func NewMockTracker() *MockTracker {
	m := &MockTracker{
		pages:    make(map[string][]Row),
		statuses: make(map[string]int),
	}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categoryID, offset := parseListingQuery(r.URL.RawQuery)
		key := pageKey(categoryID, offset)

		m.mu.Lock()
		m.requests = append(m.requests, key)
		status := m.statuses[key]
		rows, ok := m.pages[key]
		m.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			return
		}

		if !ok {
			rows = []Row{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	}))

	return m
}

// parseListingQuery splits the tracker listing query "43;o=50" into the
// category id and record offset.
func parseListingQuery(rawQuery string) (string, int) {
	categoryID := rawQuery
	offset := 0
	if idx := strings.Index(rawQuery, ";o="); idx >= 0 {
		categoryID = rawQuery[:idx]
		if n, err := strconv.Atoi(rawQuery[idx+len(";o="):]); err == nil {
			offset = n
		}
	}
	return categoryID, offset
}

func pageKey(categoryID string, offset int) string {
	return fmt.Sprintf("%s:%d", categoryID, offset)
}

// URL returns the mock server URL.
func (m *MockTracker) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockTracker) Close() {
	m.server.Close()
}

// SetPage configures the rows served for one (category id, offset) page.
func (m *MockTracker) SetPage(categoryID string, offset int, rows []Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[pageKey(categoryID, offset)] = rows
}

// FailPage makes one page respond with the given HTTP status.
func (m *MockTracker) FailPage(categoryID string, offset int, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[pageKey(categoryID, offset)] = status
}

// Requests returns the pages requested so far, in order, as
// "categoryID:offset" keys.
func (m *MockTracker) Requests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of pages requested so far.
func (m *MockTracker) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Reset clears request tracking and configured pages.
func (m *MockTracker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = make(map[string][]Row)
	m.statuses = make(map[string]int)
	m.requests = nil
}
