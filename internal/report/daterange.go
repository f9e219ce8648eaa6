package report

import (
	"time"

	"github.com/mailfleet/campdash/internal/klaviyo"
)

// Range is a symbolic date-range selector for the dashboard.
type Range string

const (
	RangeAll    Range = "all"
	RangeLast7  Range = "7d"
	RangeLast30 Range = "30d"
	RangeLast90 Range = "90d"
)

// ParseRange maps a query-string value to a Range. Unrecognized values
// fall through to RangeAll rather than failing.
func ParseRange(s string) Range {
	switch Range(s) {
	case RangeLast7, RangeLast30, RangeLast90:
		return Range(s)
	default:
		return RangeAll
	}
}

// ResolveWindow converts a Range into concrete send-time bounds for the
// upstream query. RangeAll yields an unbounded filter. The result is a
// pure function of (r, now).
func ResolveWindow(r Range, now time.Time) klaviyo.Filter {
	var days int
	switch r {
	case RangeLast7:
		days = 7
	case RangeLast30:
		days = 30
	case RangeLast90:
		days = 90
	default:
		return klaviyo.Filter{}
	}

	start := now.AddDate(0, 0, -days)
	return klaviyo.Filter{Start: &start, End: &now}
}
