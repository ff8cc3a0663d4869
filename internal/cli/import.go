package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"example.com/runlog/internal/domain"
	"example.com/runlog/internal/persistence"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Bulk insert runs from a CSV file",
	Long: `Insert every row of a CSV file with the header
start_date,start_time,miles,hours,minutes into the run table.

Rows are inserted as-is without deduplication.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	defer f.Close()

	records, err := persistence.ReadActivitiesCSV(f)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Service.Import(ctx, records)
	if errors.Is(err, domain.ErrNoRows) {
		fmt.Fprintln(cmd.OutOrStdout(), "No rows to import.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows.\n", n)
	return nil
}
