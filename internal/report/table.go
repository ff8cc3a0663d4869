// Package report renders runs and weekly summaries as text tables, CSV and an HTML heatmap.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"example.com/runlog/internal/domain"
)

func weeklyHeader() []string {
	header := []string{"week_of"}
	header = append(header, domain.DayNames[:]...)
	return append(header, "Total")
}

func weeklyCells(row domain.WeeklySummaryRow) []string {
	cells := []string{row.Label()}
	for _, v := range row.Days {
		cells = append(cells, formatMiles(v))
	}
	return append(cells, formatMiles(row.Total))
}

func formatMiles(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// WriteGrid prints columns and rows aligned with tabs.
func WriteGrid(w io.Writer, columns []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// WriteTable prints the weekly summary as an aligned table.
func WriteTable(w io.Writer, rows []domain.WeeklySummaryRow) error {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, weeklyCells(row))
	}
	return WriteGrid(w, weeklyHeader(), cells)
}

// WriteCSV writes the weekly summary with a header row.
func WriteCSV(w io.Writer, rows []domain.WeeklySummaryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(weeklyHeader()); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(weeklyCells(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRunsTable prints stored runs in the column order of the run table.
func WriteRunsTable(w io.Writer, records []domain.ActivityRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.DateString(),
			r.TimeString(),
			formatMiles(r.Miles),
			strconv.Itoa(r.Hours),
			strconv.Itoa(r.Minutes),
		})
	}
	return WriteGrid(w, []string{"start_date", "start_time", "miles", "hours", "minutes"}, rows)
}
