package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/teacherbean/internal/assembly"
	"github.com/abhisek/teacherbean/internal/itembank"
	"github.com/abhisek/teacherbean/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addSpecFlags registers the flags shared by assemble and check.
func addSpecFlags(c *cobra.Command) {
	c.Flags().String("spec", "", "Assembly spec file (YAML or JSON); other flags override it")
	c.Flags().Int("total", 0, "Total number of items on the paper")
	c.Flags().StringArray("type", nil, "Items per type as TYPE=N (repeatable, e.g. --type cloze=4)")
	c.Flags().Float64("easy", 0, "Fraction of easy items")
	c.Flags().Float64("medium", 0, "Fraction of medium items")
	c.Flags().Float64("hard", 0, "Fraction of hard items")
	c.Flags().String("level", "", "CEFR level of the paper (A1-C2)")
	c.Flags().StringArray("tag", nil, "Only draw items carrying this tag (repeatable)")
	c.Flags().String("owner", "", "Only draw items owned by this ID")
}

// specFromFlags builds the requested assembly config from --spec and the
// individual flags. Flags that were set explicitly win over the file.
func specFromFlags(flags *pflag.FlagSet) (assembly.Config, error) {
	cfg := assembly.Config{
		ItemDistribution:       map[itembank.ItemType]int{},
		DifficultyDistribution: assembly.DefaultDifficulty,
	}
	if path, _ := flags.GetString("spec"); path != "" {
		loaded, err := assembly.LoadConfigFile(path)
		if err != nil {
			return assembly.Config{}, err
		}
		cfg = loaded
	}

	if flags.Changed("total") {
		cfg.TotalItems, _ = flags.GetInt("total")
	}
	if flags.Changed("type") {
		vals, _ := flags.GetStringArray("type")
		dist, err := parseTypeCounts(vals)
		if err != nil {
			return assembly.Config{}, err
		}
		cfg.ItemDistribution = dist
	}
	if flags.Changed("easy") || flags.Changed("medium") || flags.Changed("hard") {
		easy, _ := flags.GetFloat64("easy")
		medium, _ := flags.GetFloat64("medium")
		hard, _ := flags.GetFloat64("hard")
		cfg.DifficultyDistribution = assembly.DifficultyDistribution{Easy: easy, Medium: medium, Hard: hard}
	}
	if flags.Changed("level") {
		s, _ := flags.GetString("level")
		level, ok := itembank.ParseLevel(s)
		if !ok {
			return assembly.Config{}, fmt.Errorf("unknown level %q", s)
		}
		cfg.Level = level
	}
	if flags.Changed("tag") {
		cfg.Tags, _ = flags.GetStringArray("tag")
	}

	if cfg.TotalItems == 0 {
		cfg.TotalItems = cfg.DistributionTotal()
	}
	if cfg.TotalItems <= 0 {
		return assembly.Config{}, fmt.Errorf("set --total, --type or --spec to describe the paper")
	}
	return cfg, nil
}

// parseTypeCounts parses TYPE=N pairs. Repeated types add up.
func parseTypeCounts(vals []string) (map[itembank.ItemType]int, error) {
	dist := make(map[itembank.ItemType]int, len(vals))
	for _, v := range vals {
		name, count, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --type %q: want TYPE=N", v)
		}
		t, ok := itembank.ParseItemType(name)
		if !ok {
			return nil, fmt.Errorf("unknown item type %q", name)
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid count in --type %q", v)
		}
		dist[t] += n
	}
	return dist, nil
}

// poolFilter selects the candidate pool for a paper. Types are left open
// so substitution can reach beyond the requested ones.
func poolFilter(flags *pflag.FlagSet, cfg assembly.Config) store.ItemFilter {
	owner, _ := flags.GetString("owner")
	return store.ItemFilter{
		OwnerID: owner,
		Level:   cfg.Level,
		Tags:    cfg.Tags,
	}
}
