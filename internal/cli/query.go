package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"example.com/runlog/internal/report"
)

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run an ad-hoc SQL statement and print the result",
	Long: `Run an ad-hoc SQL statement against the configured database.

Examples:
  runlog query "SELECT start_date, miles FROM runs WHERE miles > 10"
  runlog query "SELECT date_trunc('month', start_date) AS month, sum(miles) FROM runs GROUP BY 1 ORDER BY 1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Repo.RunQuery(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(res.Columns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	}
	return report.WriteGrid(cmd.OutOrStdout(), res.Columns, res.Rows)
}
