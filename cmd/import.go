package cmd

import (
	"fmt"
	"os"

	"github.com/abhisek/teacherbean/internal/itembank"
	"github.com/abhisek/teacherbean/internal/ui/theme"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import candidate items from a JSON document",
	Long: `Import candidate items from a JSON document: either an array of item
records or an object with an "items" array. Each record is normalized on
its own; records that cannot be repaired are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read import file: %w", err)
		}
		candidates, err := itembank.ValidateImportDocument(data)
		if err != nil {
			return err
		}
		if owner != "" {
			candidates = withDefaultOwner(candidates, owner)
		}

		batch := itembank.NormalizeBatch(candidates)

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		e.log.Info("normalized import batch",
			"file", args[0],
			"candidates", len(candidates),
			"successful", len(batch.Successful),
			"failed", len(batch.Failed),
			"repaired", len(batch.Repaired),
		)
		if !dryRun && len(batch.Successful) > 0 {
			if err := e.store.ItemRepo().PutItems(cmd.Context(), batch.Successful); err != nil {
				return fmt.Errorf("store items: %w", err)
			}
		}

		verb := "Imported"
		if dryRun {
			verb = "Would import"
		}
		fmt.Printf("%s %s of %d candidates.\n",
			verb, theme.Passed.Render(fmt.Sprintf("%d", len(batch.Successful))), len(candidates))

		if len(batch.Repaired) > 0 {
			fmt.Println()
			fmt.Println(theme.Warned.Render(fmt.Sprintf("%d multiple-choice items were patched with placeholder options or answers:", len(batch.Repaired))))
			for _, id := range batch.Repaired {
				fmt.Printf("  %s\n", id)
			}
		}
		if len(batch.Failed) > 0 {
			fmt.Println()
			fmt.Println(theme.Failed.Render(fmt.Sprintf("%d candidates were rejected:", len(batch.Failed))))
			for _, f := range batch.Failed {
				fmt.Printf("  %s: %s\n", describeCandidate(f.Original), f.Error)
			}
		}
		return nil
	},
}

// withDefaultOwner fills a missing or empty owner_id on each record
// candidate. Records are copied, never modified in place.
func withDefaultOwner(candidates []any, owner string) []any {
	out := make([]any, len(candidates))
	for i, c := range candidates {
		rec, ok := c.(map[string]any)
		if !ok {
			out[i] = c
			continue
		}
		if id, _ := rec["owner_id"].(string); id != "" {
			out[i] = rec
			continue
		}
		cp := make(map[string]any, len(rec)+1)
		for k, v := range rec {
			cp[k] = v
		}
		cp["owner_id"] = owner
		out[i] = cp
	}
	return out
}

func describeCandidate(c any) string {
	if rec, ok := c.(map[string]any); ok {
		if id, _ := rec["id"].(string); id != "" {
			return id
		}
		if stem, _ := rec["stem"].(string); stem != "" {
			return fmt.Sprintf("%q", truncate(stem, 40))
		}
	}
	return "(unnamed)"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	importCmd.Flags().String("owner", "", "Owner ID for records that do not carry one")
	importCmd.Flags().Bool("dry-run", false, "Normalize and report without storing")
}
