package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"example.com/runlog/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs in a date range, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

var lastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the most recent stored run",
	Args:  cobra.NoArgs,
	RunE:  runLast,
}

var (
	runsStart string
	runsEnd   string
)

func init() {
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(lastCmd)

	runsCmd.Flags().StringVar(&runsStart, "start", "", "first date (YYYY-MM-DD)")
	runsCmd.Flags().StringVar(&runsEnd, "end", "", "last date (YYYY-MM-DD), default today")
}

func runRuns(cmd *cobra.Command, args []string) error {
	start, end, err := dateRange(runsStart, runsEnd, time.Now(), cfg.Location())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.Service.Runs(ctx, start, end)
	if err != nil {
		return err
	}
	return report.WriteRunsTable(cmd.OutOrStdout(), records)
}

func runLast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	last, err := a.Service.LatestRun(ctx)
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs stored.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %.1f mi  %dh %02dm\n", last.DateString(), last.TimeString(), last.Miles, last.Hours, last.Minutes)
	return nil
}
