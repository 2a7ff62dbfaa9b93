package feed

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FilterOptions narrows a listing. Zero values mean "no constraint".
type FilterOptions struct {
	// Categories keeps only entries from these categories.
	Categories []string

	// Days keeps only entries newer than now minus this many days.
	Days int

	// MinSnatched keeps only entries with at least this many snatches.
	MinSnatched int

	// ExcludeKeywords drops entries whose name contains any keyword
	// (case-insensitive).
	ExcludeKeywords []string

	// Search keeps only entries whose name contains the query
	// (case-insensitive).
	Search string
}

// Filter applies opts in a single pass and returns the surviving entries.
func Filter(torrents []Torrent, opts FilterOptions, now time.Time) []Torrent {
	var catSet map[string]struct{}
	if len(opts.Categories) > 0 {
		catSet = make(map[string]struct{}, len(opts.Categories))
		for _, c := range opts.Categories {
			catSet[c] = struct{}{}
		}
	}

	var cutoff time.Time
	if opts.Days > 0 {
		cutoff = now.AddDate(0, 0, -opts.Days)
	}

	var exclude []string
	for _, kw := range opts.ExcludeKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			exclude = append(exclude, kw)
		}
	}

	search := strings.ToLower(opts.Search)

	filtered := make([]Torrent, 0, len(torrents))
	for _, t := range torrents {
		if catSet != nil {
			if _, ok := catSet[t.Category]; !ok {
				continue
			}
		}
		if !cutoff.IsZero() && t.Timestamp.Before(cutoff) {
			continue
		}
		if opts.MinSnatched > 0 && t.Snatched < opts.MinSnatched {
			continue
		}
		if len(exclude) > 0 || search != "" {
			name := strings.ToLower(t.Name)
			if containsAny(name, exclude) {
				continue
			}
			if search != "" && !strings.Contains(name, search) {
				continue
			}
		}
		filtered = append(filtered, t)
	}

	return filtered
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// SortField selects the ordering key for Sort.
type SortField string

const (
	SortBySnatched SortField = "snatched"
	SortByDate     SortField = "date"
	SortBySeeders  SortField = "seeders"
	SortByName     SortField = "name"
	SortBySize     SortField = "size"
)

// Sort orders torrents by the given field, descending unless asc is set.
// Unknown fields leave the slice untouched.
func Sort(torrents []Torrent, field SortField, asc bool) {
	var less func(a, b Torrent) bool

	switch field {
	case SortBySnatched:
		less = func(a, b Torrent) bool { return a.Snatched < b.Snatched }
	case SortByDate:
		less = func(a, b Torrent) bool { return a.Timestamp.Before(b.Timestamp) }
	case SortBySeeders:
		less = func(a, b Torrent) bool { return a.Seeders < b.Seeders }
	case SortByName:
		less = func(a, b Torrent) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case SortBySize:
		less = func(a, b Torrent) bool { return sizeToMB(a.Size) < sizeToMB(b.Size) }
	default:
		return
	}

	sort.SliceStable(torrents, func(i, j int) bool {
		if asc {
			return less(torrents[i], torrents[j])
		}
		return less(torrents[j], torrents[i])
	})
}

var sizePattern = regexp.MustCompile(`(?i)([\d.]+)\s*(GB|MB|TB)`)

// sizeToMB parses free-form size strings for ordering. Unparseable sizes
// sort as zero.
func sizeToMB(size string) float64 {
	m := sizePattern.FindStringSubmatch(size)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(m[2]) {
	case "TB":
		return value * 1024 * 1024
	case "GB":
		return value * 1024
	default:
		return value
	}
}
