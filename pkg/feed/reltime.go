package feed

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativeAgePattern matches tracker age strings like "10.9 hours ago",
// "1 minute ago" or "2.5 Weeks Ago".
var relativeAgePattern = regexp.MustCompile(`(?i)([\d.]+)\s*(minute|hour|day|week|month)s?\s*ago`)

// ParseRelativeAge converts a human-readable relative age into an absolute
// time anchored at ref. Months are approximated as 30 days, matching how the
// tracker itself rounds. Returns ref and false when the string does not
// contain a recognizable age.
func ParseRelativeAge(age string, ref time.Time) (time.Time, bool) {
	m := relativeAgePattern.FindStringSubmatch(age)
	if m == nil {
		return ref, false
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return ref, false
	}

	var unit time.Duration
	switch strings.ToLower(m[2]) {
	case "minute":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "week":
		unit = 7 * 24 * time.Hour
	case "month":
		unit = 30 * 24 * time.Hour
	default:
		return ref, false
	}

	return ref.Add(-time.Duration(value * float64(unit))), true
}
