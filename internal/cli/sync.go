package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"example.com/runlog/internal/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch new runs from Strava and store them",
	Long: `Fetch runs that started after the newest stored run and up to the end of
--end (default today), then insert them.

Examples:
  runlog sync                              # Incremental sync up to today
  runlog sync --end 2024-03-10             # Incremental sync up to a date
  runlog sync --start 2024-01-01 --end 2024-01-31   # Backfill a fixed window`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var (
	syncStart string
	syncEnd   string
)

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncStart, "start", "", "manual start date (YYYY-MM-DD), bypasses the stored watermark")
	syncCmd.Flags().StringVar(&syncEnd, "end", "", "inclusive end date (YYYY-MM-DD), default today")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	req := domain.SyncRequest{EndDate: domain.Date(time.Now().In(a.Service.Location()))}
	if syncEnd != "" {
		if req.EndDate, err = parseDateFlag("end", syncEnd); err != nil {
			return err
		}
	}
	if syncStart != "" {
		start, err := parseDateFlag("start", syncStart)
		if err != nil {
			return err
		}
		req.ManualStart = &start
	}

	result, err := a.Service.Sync(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Window:   %s .. %s\n", result.WindowStart.Format(time.DateTime), result.WindowEnd.Format(time.DateTime))
	fmt.Fprintf(out, "Fetched:  %d\n", result.Fetched)
	fmt.Fprintf(out, "Inserted: %d\n", result.Inserted)
	if result.Latest != nil {
		fmt.Fprintf(out, "Latest:   %s %s (%.1f mi)\n", result.Latest.DateString(), result.Latest.TimeString(), result.Latest.Miles)
	}
	return nil
}
