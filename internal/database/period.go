package database

import (
	"strings"
	"time"
)

// Reporting periods are keyed by a period_id string: a single collection
// day is "YYYY-MM-DD", a catch-up run covering several days is
// "YYYY-MM-DD..YYYY-MM-DD". Every report, insight and source record hangs
// off one period_id.

const dayFormat = "2006-01-02"

// GetToday returns today's date in period_id day format.
func GetToday() string {
	return time.Now().Format(dayFormat)
}

// MakePeriodID builds a period_id covering start through end inclusive.
// A one-day period collapses to the bare date.
func MakePeriodID(start, end string) string {
	if start == end {
		return start
	}
	return start + ".." + end
}

// PeriodEndDate returns the last collection day of a period, which is the
// date catch-up detection compares against.
func PeriodEndDate(periodID string) string {
	if _, end, ok := splitRange(periodID); ok {
		return end
	}
	return periodID
}

// FormatPeriodDisplay renders a period_id for report headings, e.g.
// "Aug 29, 2026" or "Aug 25 - Aug 29, 2026". Unparseable ids render
// verbatim rather than failing.
func FormatPeriodDisplay(periodID string) string {
	if start, end, ok := splitRange(periodID); ok {
		s, errS := time.Parse(dayFormat, start)
		e, errE := time.Parse(dayFormat, end)
		if errS != nil || errE != nil {
			return periodID
		}
		return s.Format("Jan 02") + " - " + e.Format("Jan 02, 2006")
	}

	d, err := time.Parse(dayFormat, periodID)
	if err != nil {
		return periodID
	}
	return d.Format("Jan 02, 2006")
}

// splitRange splits a range-form period_id into its start and end days.
func splitRange(periodID string) (start, end string, ok bool) {
	if !strings.Contains(periodID, "..") {
		return "", "", false
	}
	parts := strings.SplitN(periodID, "..", 2)
	return parts[0], parts[1], true
}
