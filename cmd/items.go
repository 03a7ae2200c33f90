package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/abhisek/teacherbean/internal/itembank"
	"github.com/abhisek/teacherbean/internal/store"
	"github.com/spf13/cobra"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Browse the item bank",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored items (optionally filtered)",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		levelFlag, _ := cmd.Flags().GetString("level")
		typeFlags, _ := cmd.Flags().GetStringArray("type")
		tags, _ := cmd.Flags().GetStringArray("tag")
		limit, _ := cmd.Flags().GetInt("limit")

		f := store.ItemFilter{OwnerID: owner, Tags: tags, Limit: limit}
		if levelFlag != "" {
			level, ok := itembank.ParseLevel(levelFlag)
			if !ok {
				return fmt.Errorf("unknown level %q", levelFlag)
			}
			f.Level = level
		}
		for _, s := range typeFlags {
			t, ok := itembank.ParseItemType(s)
			if !ok {
				return fmt.Errorf("unknown item type %q", s)
			}
			f.Types = append(f.Types, t)
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		items, err := e.store.ItemRepo().ListItems(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("No items found.")
			return nil
		}

		// Header.
		fmt.Printf("%-36s  %-22s  %-5s  %5s  %5s  %s\n",
			"ID", "Type", "Level", "Diff", "Used", "Stem")
		fmt.Println(strings.Repeat("─", 115))

		for _, it := range items {
			fmt.Printf("%-36s  %-22s  %-5s  %5.2f  %5d  %s\n",
				truncate(it.ID, 36), it.Type.DisplayName(), it.Level,
				it.DifficultyScore, it.UsageCount, truncate(it.Stem, 40))
		}

		fmt.Printf("\n%d items\n", len(items))
		return nil
	},
}

var itemsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one item as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		it, err := e.store.ItemRepo().GetItem(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, it)
	},
}

var itemsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count stored items per type",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		counts, err := e.store.ItemRepo().CountByType(cmd.Context(), owner)
		if err != nil {
			return fmt.Errorf("count items: %w", err)
		}

		total := 0
		for _, t := range itembank.AllItemTypes {
			fmt.Printf("%-22s  %6d\n", t.DisplayName(), counts[t])
			total += counts[t]
		}
		fmt.Println(strings.Repeat("─", 30))
		fmt.Printf("%-22s  %6d\n", "total", total)
		return nil
	},
}

func init() {
	itemsListCmd.Flags().String("owner", "", "Filter by owner ID")
	itemsListCmd.Flags().String("level", "", "Filter by CEFR level (A1-C2)")
	itemsListCmd.Flags().StringArray("type", nil, "Filter by item type (repeatable)")
	itemsListCmd.Flags().StringArray("tag", nil, "Filter by tag; items must carry every tag given (repeatable)")
	itemsListCmd.Flags().Int("limit", 0, "Maximum number of items to list (0 = all)")

	itemsCountCmd.Flags().String("owner", "", "Count only items owned by this ID")

	itemsCmd.AddCommand(itemsListCmd)
	itemsCmd.AddCommand(itemsShowCmd)
	itemsCmd.AddCommand(itemsCountCmd)
}
