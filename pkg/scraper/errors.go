package scraper

import "net/http"

// ErrorClass classifies a failed page fetch for observability. Page
// failures are never retried and never abort a walk; the class only feeds
// the trackerfeed_scrape_errors_total metric and the log entry.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses (bad cookie, bad category).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses from the tracker.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"
)

// classifyError categorizes a page fetch failure. err wins over the
// response: a transport failure has no usable status code.
func classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
