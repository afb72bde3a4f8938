package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	yearOnlyRe = regexp.MustCompile(`^\d{4}$`)
	dayMonthRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
)

// dateTimeLayouts are the full date or datetime encodings seen in EMDAT
// exports and in dates rebuilt by the spreadsheet adapter.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate parses s as a full datetime, then as a bare year (January 1st),
// then as D/M/YYYY or D-M-YYYY. It reports false when nothing matches; callers
// must never substitute the current time. Results are in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	if yearOnlyRe.MatchString(s) {
		year, _ := strconv.Atoi(s)
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes 31/2 into March; reject instead of rolling over.
		if t.Day() != day || int(t.Month()) != month || t.Year() != year {
			return time.Time{}, false
		}
		return t, true
	}

	return time.Time{}, false
}

// BuildDate assembles an ISO date from separate year, month and day cells as
// EMDAT spreadsheets store them. Month is 1-based; a missing month means
// January and a missing day means the 1st. It reports false when the year is
// absent or any present cell is not a valid number.
func BuildDate(year, month, day string) (string, bool) {
	y, ok := parseCalendarInt(year)
	if !ok {
		return "", false
	}
	m, d := 1, 1
	if strings.TrimSpace(month) != "" {
		if m, ok = parseCalendarInt(month); !ok || m < 1 || m > 12 {
			return "", false
		}
	}
	if strings.TrimSpace(day) != "" {
		if d, ok = parseCalendarInt(day); !ok || d < 1 || d > 31 {
			return "", false
		}
	}

	// Days past the end of the month roll over (31/2 becomes 3/3).
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Format("2006-01-02"), true
}

// parseCalendarInt accepts "1990" and spreadsheet-style "1990.0".
func parseCalendarInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
