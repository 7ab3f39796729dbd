package invoice

import (
	"errors"
	"time"
)

const dateOnly = "2006-01-02"

var errBadDate = errors.New("dates must look like 2024-01-31 or be RFC 3339 timestamps")

// parseDate accepts a calendar date or a full timestamp. Calendar dates are
// midnight UTC, or the last millisecond of the day when endOfDay is set, so
// that a date range includes both of its days.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse(dateOnly, s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		return &t, nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, errBadDate
	}

	t = t.UTC()
	return &t, nil
}
