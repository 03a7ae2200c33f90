package cmd

import (
	"fmt"
	"os"

	"github.com/abhisek/teacherbean/internal/assembly"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the item bank can satisfy a paper as written",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		spec, err := specFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		pool, err := e.store.ItemRepo().ListItems(cmd.Context(), poolFilter(cmd.Flags(), spec))
		if err != nil {
			return fmt.Errorf("load item pool: %w", err)
		}

		report := assembly.ValidateDistribution(pool, spec)
		e.log.Debug("distribution checked", "valid", report.IsValid, "issues", len(report.Issues))

		if asJSON {
			return writeJSON(os.Stdout, report)
		}
		renderDistributionReport(os.Stdout, spec, report, len(pool))
		return nil
	},
}

func init() {
	addSpecFlags(checkCmd)
	checkCmd.Flags().Bool("json", false, "Print the report as JSON")
}
