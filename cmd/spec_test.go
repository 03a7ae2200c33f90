package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/teacherbean/internal/assembly"
	"github.com/abhisek/teacherbean/internal/itembank"
)

func specFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addSpecFlags(c)
	require.NoError(t, c.Flags().Parse(args))
	return c.Flags()
}

func TestParseTypeCounts(t *testing.T) {
	dist, err := parseTypeCounts([]string{"mcq=3", "cloze=2", "Multiple-Choice=1"})
	require.NoError(t, err)
	assert.Equal(t, map[itembank.ItemType]int{
		itembank.TypeMultipleChoice: 4,
		itembank.TypeCloze:          2,
	}, dist)

	for _, bad := range []string{"cloze", "essay=2", "cloze=x", "cloze=-1"} {
		_, err := parseTypeCounts([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestSpecFromFlags(t *testing.T) {
	cfg, err := specFromFlags(specFlags(t, "--type", "cloze=4", "--type", "matching=2", "--level", "b2", "--tag", "food"))
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.TotalItems)
	assert.Equal(t, map[itembank.ItemType]int{itembank.TypeCloze: 4, itembank.TypeMatching: 2}, cfg.ItemDistribution)
	assert.Equal(t, assembly.DefaultDifficulty, cfg.DifficultyDistribution)
	assert.Equal(t, itembank.LevelB2, cfg.Level)
	assert.Equal(t, []string{"food"}, cfg.Tags)
}

func TestSpecFromFlagsDifficulty(t *testing.T) {
	cfg, err := specFromFlags(specFlags(t, "--total", "10", "--easy", "0.5", "--hard", "0.5"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.TotalItems)
	assert.Empty(t, cfg.ItemDistribution)
	assert.Equal(t, assembly.DifficultyDistribution{Easy: 0.5, Hard: 0.5}, cfg.DifficultyDistribution)
}

func TestSpecFromFlagsOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.yaml")
	doc := "total_items: 10\nitem_distribution:\n  multiple_choice: 10\nlevel: A2\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := specFromFlags(specFlags(t, "--spec", path, "--total", "5", "--type", "multiple_choice=5"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TotalItems)
	assert.Equal(t, map[itembank.ItemType]int{itembank.TypeMultipleChoice: 5}, cfg.ItemDistribution)
	assert.Equal(t, itembank.LevelA2, cfg.Level)
}

func TestSpecFromFlagsErrors(t *testing.T) {
	tests := map[string][]string{
		"empty":        {},
		"bad level":    {"--total", "3", "--level", "D1"},
		"bad type":     {"--type", "poem=3"},
		"missing spec": {"--spec", filepath.Join(t.TempDir(), "nope.yaml")},
		"zero total":   {"--total", "0"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := specFromFlags(specFlags(t, args...))
			assert.Error(t, err)
		})
	}
}

func TestPoolFilter(t *testing.T) {
	cfg := assembly.Config{Level: itembank.LevelB1, Tags: []string{"travel"}}
	f := poolFilter(specFlags(t, "--owner", "teacher-9"), cfg)
	assert.Equal(t, "teacher-9", f.OwnerID)
	assert.Equal(t, itembank.LevelB1, f.Level)
	assert.Equal(t, []string{"travel"}, f.Tags)
	assert.Empty(t, f.Types)
}

func TestWithDefaultOwner(t *testing.T) {
	owned := map[string]any{"id": "a", "owner_id": "t1"}
	unowned := map[string]any{"id": "b"}
	in := []any{owned, unowned, "not a record"}

	out := withDefaultOwner(in, "t2")
	require.Len(t, out, 3)
	assert.Equal(t, "t1", out[0].(map[string]any)["owner_id"])
	assert.Equal(t, "t2", out[1].(map[string]any)["owner_id"])
	assert.Equal(t, "not a record", out[2])
	_, touched := unowned["owner_id"]
	assert.False(t, touched, "input record must not be modified")
}

func TestDescribeConfig(t *testing.T) {
	cfg := assembly.Config{
		TotalItems: 5,
		ItemDistribution: map[itembank.ItemType]int{
			itembank.TypeCloze:          2,
			itembank.TypeMultipleChoice: 3,
		},
		DifficultyDistribution: assembly.DefaultDifficulty,
	}
	assert.Equal(t, "5 items (3 multiple choice, 2 cloze); 30% easy, 40% medium, 30% hard", describeConfig(cfg))
}

func TestRenderAssemblyListsFallbacks(t *testing.T) {
	requested := assembly.Config{
		TotalItems:             10,
		ItemDistribution:       map[itembank.ItemType]int{itembank.TypeMultipleChoice: 10},
		DifficultyDistribution: assembly.DefaultDifficulty,
	}
	res := assembly.AssembleWithFallback(nil, requested)

	var buf bytes.Buffer
	renderAssembly(&buf, requested, res, 0)
	out := buf.String()
	assert.Contains(t, out, string(assembly.FallbackEmergency))
	assert.Contains(t, out, res.Warnings[0])
	assert.NotContains(t, out, "Stem")
}

func TestRenderDistributionReport(t *testing.T) {
	cfg := assembly.Config{
		TotalItems:             4,
		ItemDistribution:       map[itembank.ItemType]int{itembank.TypeCloze: 4},
		DifficultyDistribution: assembly.DefaultDifficulty,
	}
	report := assembly.ValidateDistribution(nil, cfg)

	var buf bytes.Buffer
	renderDistributionReport(&buf, cfg, report, 0)
	out := buf.String()
	for _, issue := range report.Issues {
		assert.Contains(t, out, issue)
	}
	assert.Contains(t, out, "4 more (have 0, need 4)")
}
