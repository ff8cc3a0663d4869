package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the run table",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	applied, err := a.Repo.Migrate(ctx)
	if err != nil {
		return err
	}
	if applied == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date.\n", a.Repo.Table())
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) to %s.\n", applied, a.Repo.Table())
	return nil
}
