package api

import (
	"time"

	"example.com/runlog/internal/domain"
)

// RunView is the JSON form of a stored run.
type RunView struct {
	StartDate string  `json:"start_date"`
	StartTime string  `json:"start_time"`
	Miles     float64 `json:"miles"`
	Hours     int     `json:"hours"`
	Minutes   int     `json:"minutes"`
}

// ListRunsResponse packages list results.
type ListRunsResponse struct {
	Items []RunView `json:"items"`
}

// WeekView is one weekly summary row keyed by day name.
type WeekView struct {
	WeekOf string             `json:"week_of"`
	Date   string             `json:"date"`
	Days   map[string]float64 `json:"days"`
	Total  float64            `json:"total"`
}

// WeeklySummaryResponse lists weeks in ascending order.
type WeeklySummaryResponse struct {
	Weeks []WeekView `json:"weeks"`
}

// SyncResponse reports the outcome of POST /v1/sync.
type SyncResponse struct {
	RunID       string    `json:"run_id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Fetched     int       `json:"fetched"`
	Inserted    int       `json:"inserted"`
	Latest      *RunView  `json:"latest,omitempty"`
}

func toRunView(rec domain.ActivityRecord) RunView {
	return RunView{
		StartDate: rec.DateString(),
		StartTime: rec.TimeString(),
		Miles:     rec.Miles,
		Hours:     rec.Hours,
		Minutes:   rec.Minutes,
	}
}

func toWeekView(row domain.WeeklySummaryRow) WeekView {
	days := make(map[string]float64, len(row.Days))
	for i, name := range domain.DayNames {
		days[name] = row.Days[i]
	}
	return WeekView{
		WeekOf: row.Label(),
		Date:   row.WeekOf.Format(domain.DateLayout),
		Days:   days,
		Total:  row.Total,
	}
}
