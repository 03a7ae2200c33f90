package cmd

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/abhisek/teacherbean/internal/assembly"
	"github.com/abhisek/teacherbean/internal/store"
	"github.com/spf13/cobra"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble a test paper from the item bank",
	Long: `Assemble a test paper from the item bank. When the bank cannot meet the
request exactly, the difficulty mix is relaxed, short item types are
substituted, the paper is shortened and, as a last resort, the first
available items are used. Every adjustment is reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, _ := cmd.Flags().GetUint64("seed")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
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

		ctx := cmd.Context()
		pool, err := e.store.ItemRepo().ListItems(ctx, poolFilter(cmd.Flags(), spec))
		if err != nil {
			return fmt.Errorf("load item pool: %w", err)
		}

		if !cmd.Flags().Changed("seed") {
			seed = e.cfg.Seed
		}
		opts := assembly.Options{
			Logger:         e.log.Zap(),
			EmergencyLimit: e.cfg.EmergencyLimit,
		}
		if seed != 0 {
			opts.Rand = rand.New(rand.NewPCG(seed, seed+1))
		}
		res := assembly.New(opts).Assemble(pool, spec)
		e.log.Info("assembled paper",
			"pool", len(pool),
			"selected", len(res.SelectedItems),
			"success", res.Success,
			"fallbacks", res.FallbacksApplied,
		)

		if !dryRun {
			run := store.NewRunRecord(spec, res, time.Now().UTC())
			if err := e.store.RunRepo().AppendRun(ctx, run); err != nil {
				return fmt.Errorf("record run: %w", err)
			}
			if err := e.store.ItemRepo().IncrementUsage(ctx, run.ItemIDs); err != nil {
				return fmt.Errorf("update usage counts: %w", err)
			}
			e.log.Debug("run recorded", "run_id", run.ID)
		}

		if asJSON {
			return writeJSON(os.Stdout, res)
		}
		renderAssembly(os.Stdout, spec, res, len(pool))
		return nil
	},
}

func init() {
	addSpecFlags(assembleCmd)
	assembleCmd.Flags().Uint64("seed", 0, "Seed for reproducible selection (overrides TEACHERBEAN_SEED; 0 = random)")
	assembleCmd.Flags().Bool("dry-run", false, "Do not record the run or update usage counts")
	assembleCmd.Flags().Bool("json", false, "Print the result as JSON")
}
