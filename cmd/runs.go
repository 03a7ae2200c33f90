package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/teacherbean/internal/store"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded assembly runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent assembly runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		runs, err := e.store.RunRepo().ListRuns(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No assembly runs recorded.")
			return nil
		}

		// Header.
		fmt.Printf("%-36s  %-19s  %-3s  %5s  %5s  %s\n",
			"ID", "Timestamp", "OK", "Asked", "Got", "Fallbacks")
		fmt.Println(strings.Repeat("─", 110))

		for _, r := range runs {
			ok := "✓"
			if !r.Success {
				ok = "✗"
			}
			fallbacks := make([]string, len(r.Fallbacks))
			for i, f := range r.Fallbacks {
				fallbacks[i] = string(f)
			}
			fmt.Printf("%-36s  %-19s  %-3s  %5d  %5d  %s\n",
				r.ID,
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				ok,
				r.Requested.TotalItems,
				len(r.ItemIDs),
				strings.Join(fallbacks, ", "),
			)
		}
		return nil
	},
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent assembly runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		if keep < 0 {
			return fmt.Errorf("--keep must not be negative")
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.store.RunRepo().Prune(cmd.Context(), keep); err != nil {
			return err
		}
		fmt.Printf("Kept the %d most recent runs.\n", keep)
		return nil
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")
	runsPruneCmd.Flags().Int("keep", 50, "Number of runs to keep")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsPruneCmd)
}
