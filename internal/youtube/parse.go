package youtube

import (
	"strconv"
	"strings"
	"time"
)

// parseClockDuration converts "1:23:45" or "12:34" style length text to
// seconds. Unparseable text yields zero.
func parseClockDuration(text string) int {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	seconds := 0
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 0 {
			return 0
		}
		seconds = seconds*60 + value
	}
	return seconds
}

// parseViewCount strips everything but digits from "12,345 views" style
// text. Unparseable text yields zero.
func parseViewCount(text string) int64 {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	value, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	return value
}

// relativeUnits approximates YouTube's relative published text. Months and
// years are calendar-inexact but close enough for ordering a channel grid.
var relativeUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  30 * 24 * time.Hour,
	"year":   365 * 24 * time.Hour,
}

// parseRelativeTime turns "2 weeks ago" or "Streamed 3 days ago" into an
// approximate absolute time relative to now.
func parseRelativeTime(text string, now time.Time) (time.Time, bool) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) > 0 && (fields[0] == "streamed" || fields[0] == "premiered") {
		fields = fields[1:]
	}
	if len(fields) != 3 || fields[2] != "ago" {
		return time.Time{}, false
	}

	count, err := strconv.Atoi(fields[0])
	if err != nil || count < 0 {
		return time.Time{}, false
	}
	unit, ok := relativeUnits[strings.TrimSuffix(fields[1], "s")]
	if !ok {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(count) * unit), true
}

// parsePublishDate handles the watch page's publish date, which is either a
// bare date or a full RFC 3339 timestamp. Unparseable text yields the zero
// time.
func parsePublishDate(text string) time.Time {
	text = strings.TrimSpace(text)
	if ts, err := time.Parse(time.RFC3339, text); err == nil {
		return ts.UTC()
	}
	if ts, err := time.Parse("2006-01-02", text); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}
