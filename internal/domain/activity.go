package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout and TimeLayout are the canonical text forms of a record's date and time-of-day.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// ActivityRecord is the canonical run row stored in PostgreSQL.
type ActivityRecord struct {
	StartDate time.Time     // calendar date at UTC midnight
	StartTime time.Duration // wall-clock offset since midnight
	Miles     float64
	Hours     int
	Minutes   int
}

// RawActivity is one element of the Strava athlete activities response.
type RawActivity struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	SportType      string  `json:"sport_type"`
	StartDateLocal string  `json:"start_date_local"`
	Distance       float64 `json:"distance"`
	ElapsedTime    int     `json:"elapsed_time"`
}

// ActivityType returns Type, falling back to SportType.
func (r RawActivity) ActivityType() string {
	if r.Type != "" {
		return r.Type
	}
	return r.SportType
}

// StartedAt combines the record's date and time-of-day in loc.
func (r ActivityRecord) StartedAt(loc *time.Location) time.Time {
	return At(r.StartDate, r.StartTime, loc)
}

// Before orders records by (start_date, start_time).
func (r ActivityRecord) Before(other ActivityRecord) bool {
	if !r.StartDate.Equal(other.StartDate) {
		return r.StartDate.Before(other.StartDate)
	}
	return r.StartTime < other.StartTime
}

// DateString formats StartDate as YYYY-MM-DD.
func (r ActivityRecord) DateString() string {
	return r.StartDate.Format(DateLayout)
}

// TimeString formats StartTime as HH:MM:SS.
func (r ActivityRecord) TimeString() string {
	return FormatTimeOfDay(r.StartTime)
}

// Date truncates t to its calendar date, returned at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD into a calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// At builds the instant in loc whose wall clock reads date plus the time-of-day offset.
// The offset is applied to clock fields so DST days keep their wall-clock meaning.
func At(date time.Time, offset time.Duration, loc *time.Location) time.Time {
	y, m, d := date.Date()
	secs := int(offset / time.Second)
	return time.Date(y, m, d, secs/3600, (secs/60)%60, secs%60, int(offset%time.Second), loc)
}

// ParseTimeOfDay parses HH:MM:SS into an offset since midnight.
func ParseTimeOfDay(value string) (time.Duration, error) {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
}

// FormatTimeOfDay renders an offset since midnight as HH:MM:SS.
func FormatTimeOfDay(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// Round1 rounds to one decimal place, half away from zero.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
