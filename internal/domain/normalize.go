package domain

import (
	"fmt"
	"sort"
	"strings"
)

// MetersPerMile is the conversion factor applied to API distances.
const MetersPerMile = 1609

// Normalize converts raw API activities into canonical records ordered by
// (start_date, start_time) ascending.
func Normalize(raw []RawActivity) ([]ActivityRecord, error) {
	records := make([]ActivityRecord, 0, len(raw))
	for _, activity := range raw {
		record, err := normalizeOne(activity)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Before(records[j])
	})
	return records, nil
}

func normalizeOne(activity RawActivity) (ActivityRecord, error) {
	datePart, timePart, ok := strings.Cut(activity.StartDateLocal, "T")
	if !ok {
		return ActivityRecord{}, fmt.Errorf("%w: activity %d has malformed start_date_local %q", ErrFetch, activity.ID, activity.StartDateLocal)
	}

	date, err := ParseDate(datePart)
	if err != nil {
		return ActivityRecord{}, fmt.Errorf("%w: activity %d start date: %v", ErrFetch, activity.ID, err)
	}

	timePart = strings.TrimSuffix(timePart, "Z")
	offset, err := ParseTimeOfDay(timePart)
	if err != nil {
		return ActivityRecord{}, fmt.Errorf("%w: activity %d start time: %v", ErrFetch, activity.ID, err)
	}

	elapsed := activity.ElapsedTime
	if elapsed < 0 {
		elapsed = 0
	}
	totalMinutes := elapsed / 60

	return ActivityRecord{
		StartDate: date,
		StartTime: offset,
		Miles:     Round1(activity.Distance / MetersPerMile),
		Hours:     totalMinutes / 60,
		Minutes:   totalMinutes % 60,
	}, nil
}
