package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/tracker-feed/internal/testutil"
	"github.com/Sternrassler/tracker-feed/pkg/feed"
)

func newTestFetcher(t *testing.T, baseURL string) *Fetcher {
	t.Helper()
	f, err := New(Config{BaseURL: baseURL}, &feed.JSONParser{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return f
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{BaseURL: "http://example.com"}, nil, zerolog.Nop()); err == nil {
		t.Error("Expected error for nil parser")
	}
	if _, err := New(Config{}, &feed.JSONParser{}, zerolog.Nop()); err == nil {
		t.Error("Expected error for empty base URL")
	}
}

func TestFetchPage(t *testing.T) {
	tracker := testutil.NewMockTracker()
	defer tracker.Close()

	tracker.SetPage("43", 0, []testutil.Row{
		{ID: "1", Name: "one", UploadTime: "1 hour ago"},
		{ID: "2", Name: "two", UploadTime: "2 hours ago"},
	})

	f := newTestFetcher(t, tracker.URL())
	torrents := f.FetchPage(context.Background(), "PC-ISO", 0)

	if len(torrents) != 2 {
		t.Fatalf("Expected 2 torrents, got %d", len(torrents))
	}
	if torrents[0].Category != "PC-ISO" {
		t.Errorf("Category = %s, want PC-ISO", torrents[0].Category)
	}
}

func TestFetchPage_OffsetAddressing(t *testing.T) {
	tracker := testutil.NewMockTracker()
	defer tracker.Close()

	tracker.SetPage("43", 50, []testutil.Row{
		{ID: "51", Name: "page two", UploadTime: "1 day ago"},
	})

	f := newTestFetcher(t, tracker.URL())
	torrents := f.FetchPage(context.Background(), "PC-ISO", 50)

	if len(torrents) != 1 || torrents[0].ID != "51" {
		t.Fatalf("Expected the offset-50 page, got %+v", torrents)
	}
	requests := tracker.Requests()
	if len(requests) != 1 || requests[0] != "43:50" {
		t.Errorf("Expected one request for 43:50, got %v", requests)
	}
}

func TestFetchPage_UnknownCategory(t *testing.T) {
	tracker := testutil.NewMockTracker()
	defer tracker.Close()

	f := newTestFetcher(t, tracker.URL())
	if got := f.FetchPage(context.Background(), "Dreamcast", 0); got != nil {
		t.Errorf("Expected nil for unknown category, got %+v", got)
	}
	if tracker.RequestCount() != 0 {
		t.Errorf("Unknown category must not hit the tracker, saw %d requests",
			tracker.RequestCount())
	}
}

func TestFetchPage_ErrorStatusYieldsNoRecords(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"server error", http.StatusInternalServerError},
		{"rate limited", http.StatusTooManyRequests},
		{"forbidden", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := testutil.NewMockTracker()
			defer tracker.Close()
			tracker.FailPage("43", 0, tt.status)

			f := newTestFetcher(t, tracker.URL())
			if got := f.FetchPage(context.Background(), "PC-ISO", 0); len(got) != 0 {
				t.Errorf("Expected no records on %d, got %+v", tt.status, got)
			}
		})
	}
}

func TestFetchPage_UnparseableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>session expired</html>"))
	}))
	defer server.Close()

	f := newTestFetcher(t, server.URL)
	if got := f.FetchPage(context.Background(), "PC-ISO", 0); len(got) != 0 {
		t.Errorf("Expected no records for unparseable body, got %+v", got)
	}
}

func TestFetchPage_SendsSessionHeaders(t *testing.T) {
	var gotCookie, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	f, err := New(Config{
		BaseURL:   server.URL,
		Cookie:    "uid=1; pass=abc",
		UserAgent: "tracker-feed/1.0",
	}, &feed.JSONParser{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	f.FetchPage(context.Background(), "PC-ISO", 0)

	if gotCookie != "uid=1; pass=abc" {
		t.Errorf("Cookie = %q", gotCookie)
	}
	if gotAgent != "tracker-feed/1.0" {
		t.Errorf("User-Agent = %q", gotAgent)
	}
}

func TestFetchPage_CancelledContext(t *testing.T) {
	tracker := testutil.NewMockTracker()
	defer tracker.Close()

	f := newTestFetcher(t, tracker.URL())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := f.FetchPage(ctx, "PC-ISO", 0); len(got) != 0 {
		t.Errorf("Expected no records after cancellation, got %+v", got)
	}
}
