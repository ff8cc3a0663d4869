package domain

import (
	"context"
	"fmt"
	"time"
)

// DayNames are the weekly summary column headers, Monday first.
var DayNames = [7]string{"Mon", "Tues", "Weds", "Thurs", "Fri", "Sat", "Sun"}

// WeeklySummaryRow holds daily mileage for one Monday-starting week.
type WeeklySummaryRow struct {
	WeekOf time.Time
	Days   [7]float64
	Total  float64
}

// Label renders WeekOf as a short month and day, e.g. "Mar 04".
func (r WeeklySummaryRow) Label() string {
	return r.WeekOf.Format("Jan 02")
}

// Monday returns the Monday of the week containing date.
func Monday(date time.Time) time.Time {
	date = Date(date)
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// WeeklySummary buckets stored runs into Monday-starting weeks covering start and end.
// Both boundary weeks are always complete, even when start or end fall mid-week.
func (s *Service) WeeklySummary(ctx context.Context, start, end time.Time) ([]WeeklySummaryRow, error) {
	start, end = Date(start), Date(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s precedes start date %s", ErrConfig, end.Format(DateLayout), start.Format(DateLayout))
	}

	firstMonday := Monday(start)
	lastMonday := Monday(end)

	records, err := s.repo.QueryRange(ctx, firstMonday, lastMonday.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}
	return BuildWeeklySummary(firstMonday, lastMonday, records), nil
}

// BuildWeeklySummary produces one row per Monday from firstMonday to lastMonday inclusive.
// Records outside that span are ignored.
func BuildWeeklySummary(firstMonday, lastMonday time.Time, records []ActivityRecord) []WeeklySummaryRow {
	daily := make(map[time.Time]float64, len(records))
	for _, r := range records {
		daily[Date(r.StartDate)] += r.Miles
	}

	last := Date(lastMonday)
	var rows []WeeklySummaryRow
	for monday := Date(firstMonday); !monday.After(last); monday = monday.AddDate(0, 0, 7) {
		row := WeeklySummaryRow{WeekOf: monday}
		var total float64
		for i := range row.Days {
			row.Days[i] = Round1(daily[monday.AddDate(0, 0, i)])
			total += row.Days[i]
		}
		row.Total = Round1(total)
		rows = append(rows, row)
	}
	return rows
}
