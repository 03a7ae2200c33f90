package assembly

import (
	"fmt"
	"maps"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/teacherbean/internal/itembank"
)

// Band is a difficulty band derived from an item's difficulty score.
type Band string

const (
	BandEasy   Band = "easy"
	BandMedium Band = "medium"
	BandHard   Band = "hard"
)

// AllBands lists the bands from easiest to hardest.
var AllBands = []Band{BandEasy, BandMedium, BandHard}

// Band thresholds: easy <= EasyMax < medium <= MediumMax < hard.
const (
	EasyMax   = 0.30
	MediumMax = 0.60
)

// BandOf returns the difficulty band for a score.
func BandOf(score float64) Band {
	switch {
	case score <= EasyMax:
		return BandEasy
	case score <= MediumMax:
		return BandMedium
	default:
		return BandHard
	}
}

// DifficultyDistribution holds the fraction of items wanted in each band.
type DifficultyDistribution struct {
	Easy   float64 `json:"easy" yaml:"easy"`
	Medium float64 `json:"medium" yaml:"medium"`
	Hard   float64 `json:"hard" yaml:"hard"`
}

// distributionTolerance is how far a distribution's sum may drift from 1.
const distributionTolerance = 0.01

var (
	// DefaultDifficulty is used when a config carries no usable fractions.
	DefaultDifficulty = DifficultyDistribution{Easy: 0.3, Medium: 0.4, Hard: 0.3}

	// EqualDifficulty is the three-way split the emergency fallback uses.
	EqualDifficulty = DifficultyDistribution{Easy: 0.33, Medium: 0.34, Hard: 0.33}
)

// Fraction returns the fraction for band b.
func (d DifficultyDistribution) Fraction(b Band) float64 {
	switch b {
	case BandEasy:
		return d.Easy
	case BandMedium:
		return d.Medium
	case BandHard:
		return d.Hard
	}
	return 0
}

// Sum returns easy + medium + hard.
func (d DifficultyDistribution) Sum() float64 {
	return d.Easy + d.Medium + d.Hard
}

// Valid reports whether all fractions are non-negative and sum to 1
// within floating-point tolerance.
func (d DifficultyDistribution) Valid() bool {
	if d.Easy < 0 || d.Medium < 0 || d.Hard < 0 {
		return false
	}
	return math.Abs(d.Sum()-1) <= distributionTolerance
}

func (d DifficultyDistribution) String() string {
	return fmt.Sprintf("%.0f%% easy, %.0f%% medium, %.0f%% hard", d.Easy*100, d.Medium*100, d.Hard*100)
}

// BandQuota is the number of items wanted per band for one item type.
type BandQuota struct {
	Easy   int
	Medium int
	Hard   int
}

// Get returns the quota for band b.
func (q BandQuota) Get(b Band) int {
	switch b {
	case BandEasy:
		return q.Easy
	case BandMedium:
		return q.Medium
	case BandHard:
		return q.Hard
	}
	return 0
}

// Total returns the sum of the three quotas.
func (q BandQuota) Total() int {
	return q.Easy + q.Medium + q.Hard
}

// QuotaFor splits n items across bands. Easy and medium are rounded and
// hard absorbs the remainder, so the quotas always sum to exactly n.
func QuotaFor(n int, d DifficultyDistribution) BandQuota {
	easy := int(math.Round(float64(n) * d.Easy))
	medium := int(math.Round(float64(n) * d.Medium))
	return BandQuota{Easy: easy, Medium: medium, Hard: n - easy - medium}
}

// Config is the target specification for one assembly run.
type Config struct {
	TotalItems             int                       `json:"total_items" yaml:"total_items"`
	ItemDistribution       map[itembank.ItemType]int `json:"item_distribution" yaml:"item_distribution"`
	DifficultyDistribution DifficultyDistribution    `json:"difficulty_distribution" yaml:"difficulty_distribution"`

	// Level, Topics and Tags describe the paper. The fallback chain
	// never alters them.
	Level  itembank.Level `json:"level,omitempty" yaml:"level,omitempty"`
	Topics []string       `json:"topics,omitempty" yaml:"topics,omitempty"`
	Tags   []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	out.ItemDistribution = maps.Clone(c.ItemDistribution)
	if out.ItemDistribution == nil {
		out.ItemDistribution = map[itembank.ItemType]int{}
	}
	out.Topics = slices.Clone(c.Topics)
	out.Tags = slices.Clone(c.Tags)
	return out
}

// Equal reports whether c and o describe the same assembly target.
// Distribution entries with a zero count are ignored.
func (c Config) Equal(o Config) bool {
	if c.TotalItems != o.TotalItems ||
		c.DifficultyDistribution != o.DifficultyDistribution ||
		c.Level != o.Level ||
		!slices.Equal(c.Topics, o.Topics) ||
		!slices.Equal(c.Tags, o.Tags) {
		return false
	}
	for t, n := range c.ItemDistribution {
		if o.ItemDistribution[t] != n {
			return false
		}
	}
	for t, n := range o.ItemDistribution {
		if c.ItemDistribution[t] != n {
			return false
		}
	}
	return true
}

// DistributionTotal returns the sum of the positive per-type counts.
func (c Config) DistributionTotal() int {
	total := 0
	for _, n := range c.ItemDistribution {
		if n > 0 {
			total += n
		}
	}
	return total
}

// fileConfig is the on-disk shape of an assembly spec. Type names and
// levels are parsed leniently, the same way candidate items are.
type fileConfig struct {
	TotalItems             int                     `yaml:"total_items"`
	ItemDistribution       map[string]int          `yaml:"item_distribution"`
	DifficultyDistribution *DifficultyDistribution `yaml:"difficulty_distribution"`
	Level                  string                  `yaml:"level"`
	Topics                 []string                `yaml:"topics"`
	Tags                   []string                `yaml:"tags"`
}

// ParseConfig decodes a YAML (or JSON) assembly spec.
func ParseConfig(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("decode assembly spec: %w", err)
	}

	cfg := Config{
		TotalItems:             fc.TotalItems,
		ItemDistribution:       make(map[itembank.ItemType]int, len(fc.ItemDistribution)),
		DifficultyDistribution: DefaultDifficulty,
		Topics:                 fc.Topics,
		Tags:                   fc.Tags,
	}
	if fc.DifficultyDistribution != nil {
		cfg.DifficultyDistribution = *fc.DifficultyDistribution
	}
	for name, n := range fc.ItemDistribution {
		t, ok := itembank.ParseItemType(name)
		if !ok {
			return Config{}, fmt.Errorf("unknown item type %q in item_distribution", name)
		}
		cfg.ItemDistribution[t] += n
	}
	if strings.TrimSpace(fc.Level) != "" {
		l, ok := itembank.ParseLevel(fc.Level)
		if !ok {
			return Config{}, fmt.Errorf("unknown level %q", fc.Level)
		}
		cfg.Level = l
	}
	return cfg, nil
}

// LoadConfigFile reads an assembly spec from path.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read assembly spec: %w", err)
	}
	return ParseConfig(data)
}
