package cli

import (
	"fmt"
	"strings"
	"time"

	"example.com/runlog/internal/domain"
)

// parseDateFlag parses a YYYY-MM-DD flag value.
func parseDateFlag(name, value string) (time.Time, error) {
	d, err := domain.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid --%s %q (use YYYY-MM-DD)", domain.ErrConfig, name, value)
	}
	return d, nil
}

// dateRange parses --start/--end. An empty end defaults to today in loc.
func dateRange(start, end string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if start == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --start is required", domain.ErrConfig)
	}
	s, err := parseDateFlag("start", start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e := domain.Date(now.In(loc))
	if end != "" {
		if e, err = parseDateFlag("end", end); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --end %s precedes --start %s", domain.ErrConfig, e.Format(domain.DateLayout), s.Format(domain.DateLayout))
	}
	return s, e, nil
}
