package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"example.com/runlog/internal/domain"
	"example.com/runlog/internal/report"
)

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Summarise mileage per Monday-starting week",
	Long: `Print one row per week between --start and --end with daily miles and a total.

Examples:
  runlog weekly --start 2024-03-04 --end 2024-03-31
  runlog weekly --start 2024-01-01 --format csv > weeks.csv
  runlog weekly --start 2024-01-01 --format html --out heatmap.html`,
	Args: cobra.NoArgs,
	RunE: runWeekly,
}

var (
	weeklyStart  string
	weeklyEnd    string
	weeklyFormat string
	weeklyOut    string
)

func init() {
	rootCmd.AddCommand(weeklyCmd)

	weeklyCmd.Flags().StringVar(&weeklyStart, "start", "", "first date (YYYY-MM-DD)")
	weeklyCmd.Flags().StringVar(&weeklyEnd, "end", "", "last date (YYYY-MM-DD), default today")
	weeklyCmd.Flags().StringVar(&weeklyFormat, "format", "table", "output format: table, csv or html")
	weeklyCmd.Flags().StringVarP(&weeklyOut, "out", "o", "", "write to file instead of stdout")
}

func weeklyWriter(format string) (func(io.Writer, string, []domain.WeeklySummaryRow) error, error) {
	switch format {
	case "table":
		return func(w io.Writer, _ string, rows []domain.WeeklySummaryRow) error { return report.WriteTable(w, rows) }, nil
	case "csv":
		return func(w io.Writer, _ string, rows []domain.WeeklySummaryRow) error { return report.WriteCSV(w, rows) }, nil
	case "html":
		return report.WriteHeatmap, nil
	default:
		return nil, fmt.Errorf("%w: unknown --format %q", domain.ErrConfig, format)
	}
}

func runWeekly(cmd *cobra.Command, args []string) error {
	write, err := weeklyWriter(weeklyFormat)
	if err != nil {
		return err
	}
	start, end, err := dateRange(weeklyStart, weeklyEnd, time.Now(), cfg.Location())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.Service.WeeklySummary(ctx, start, end)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if weeklyOut != "" {
		f, err := os.Create(weeklyOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	title := fmt.Sprintf("Weekly miles %s to %s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	return write(out, title, rows)
}
