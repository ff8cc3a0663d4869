// Package persistence holds storage adapters for run records.
package persistence

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"example.com/runlog/internal/domain"
)

// CSVHeader is the required column order of a bulk import file.
var CSVHeader = []string{"start_date", "start_time", "miles", "hours", "minutes"}

// ReadActivitiesCSV parses a bulk import file into records. Rows are coerced to the
// column types and returned in file order.
func ReadActivitiesCSV(r io.Reader) ([]domain.ActivityRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(CSVHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: csv file is empty", domain.ErrConfig)
		}
		return nil, fmt.Errorf("%w: read csv header: %v", domain.ErrConfig, err)
	}
	for i, name := range CSVHeader {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")), name) {
			return nil, fmt.Errorf("%w: csv column %d is %q, want %q", domain.ErrConfig, i+1, header[i], name)
		}
	}

	var records []domain.ActivityRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", domain.ErrConfig, line, err)
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: csv line %d: %v", domain.ErrConfig, line, err)
		}
		records = append(records, rec)
	}
}

func parseRow(row []string) (domain.ActivityRecord, error) {
	date, err := domain.ParseDate(strings.TrimSpace(row[0]))
	if err != nil {
		return domain.ActivityRecord{}, fmt.Errorf("start_date: %w", err)
	}
	offset, err := domain.ParseTimeOfDay(strings.TrimSpace(row[1]))
	if err != nil {
		return domain.ActivityRecord{}, fmt.Errorf("start_time: %w", err)
	}
	miles, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return domain.ActivityRecord{}, fmt.Errorf("miles: %w", err)
	}
	hours, err := strconv.Atoi(strings.TrimSpace(row[3]))
	if err != nil {
		return domain.ActivityRecord{}, fmt.Errorf("hours: %w", err)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(row[4]))
	if err != nil {
		return domain.ActivityRecord{}, fmt.Errorf("minutes: %w", err)
	}
	return domain.ActivityRecord{StartDate: date, StartTime: offset, Miles: miles, Hours: hours, Minutes: minutes}, nil
}
